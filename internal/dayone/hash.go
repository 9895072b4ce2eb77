package dayone

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// HashFile computes the MD5 hex digest of a file. Day One names archived
// photos by this digest and references them through the "md5" photo field.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashContent computes the MD5 hex digest of content bytes.
func HashContent(content []byte) string {
	h := md5.Sum(content)
	return hex.EncodeToString(h[:])
}

// FileType returns the canonical lowercase file-type tag for a path: the
// extension without the dot, with common alias suffixes collapsed so
// identical content always gets one archive member name per hash.
func FileType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	default:
		return ext
	}
}
