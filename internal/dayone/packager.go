package dayone

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrLocalFileMissing indicates an attachment that was expected on disk at
// packaging time is gone. Packaging logs and skips it, never aborts.
var ErrLocalFileMissing = errors.New("dayone: local attachment file missing")

// photoFile caches the hash and type of a local file so each unique path is
// hashed once per run.
type photoFile struct {
	md5 string
	ext string
}

// Packager turns entries plus their downloaded attachment files into a Day
// One import zip. It owns the run-scoped hash cache; create one per run.
type Packager struct {
	files map[string]photoFile
}

// NewPackager creates a packager with an empty hash cache.
func NewPackager() *Packager {
	return &Packager{files: make(map[string]photoFile)}
}

// lookup returns the cached hash/type for path, computing them on first use.
func (p *Packager) lookup(path string) (photoFile, error) {
	if pf, ok := p.files[path]; ok {
		return pf, nil
	}
	md5sum, err := HashFile(path)
	if err != nil {
		return photoFile{}, err
	}
	pf := photoFile{md5: md5sum, ext: FileType(path)}
	p.files[path] = pf
	return pf, nil
}

// AttachPhotos resolves an entry's attachment placeholders: each surviving
// local file gets a photo descriptor and its placeholder becomes a
// dayone-moment:// reference. Files missing from disk are logged, skipped,
// and their placeholder image markup removed so no placeholder survives
// packaging.
func (p *Packager) AttachPhotos(entry *Entry) {
	for i, localPath := range entry.AttachmentPaths {
		placeholder := AttachmentPlaceholder(i)

		info, err := os.Stat(localPath)
		if err != nil || info.IsDir() {
			slog.Warn("attachment not found, skipping",
				"path", localPath, "error", ErrLocalFileMissing)
			entry.Text = removePlaceholder(entry.Text, placeholder)
			continue
		}

		pf, err := p.lookup(localPath)
		if err != nil {
			slog.Warn("failed to hash attachment, skipping",
				"path", localPath, "error", err)
			entry.Text = removePlaceholder(entry.Text, placeholder)
			continue
		}

		identifier := NewIdentifier()
		entry.Photos = append(entry.Photos, Photo{
			MD5:          pf.md5,
			Identifier:   identifier,
			Type:         pf.ext,
			OrderInEntry: len(entry.Photos),
		})

		entry.Text = strings.ReplaceAll(entry.Text, placeholder, MomentRef(identifier))
	}
}

// removePlaceholder strips the image markup around an unresolvable
// placeholder, falling back to removing the bare token.
func removePlaceholder(text, placeholder string) string {
	text = strings.ReplaceAll(text, "![]("+placeholder+")\n\n", "")
	text = strings.ReplaceAll(text, "![]("+placeholder+")", "")
	return strings.ReplaceAll(text, placeholder, "")
}

// BuildJournal wraps entries in the versioned import envelope, converting
// each to its serialization shape.
func BuildJournal(entries []*Entry) *Journal {
	records := make([]EntryRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, entry.Record())
	}
	return &Journal{
		Metadata: Metadata{Version: "1.0"},
		Entries:  records,
	}
}

// Serialize renders the import document as indented JSON.
func Serialize(entries []*Entry) ([]byte, error) {
	data, err := json.MarshalIndent(BuildJournal(entries), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal journal: %w", err)
	}
	return data, nil
}

// ParseJournal decodes an import document produced by Serialize.
func ParseJournal(data []byte) (*Journal, error) {
	journal := &Journal{}
	if err := json.Unmarshal(data, journal); err != nil {
		return nil, fmt.Errorf("failed to parse journal: %w", err)
	}
	return journal, nil
}

// WriteArchive packages entries and their downloaded attachments into a Day
// One import zip at outputDir/filename and returns its path.
//
// The zip contains Journal.json plus one photos/<md5>.<type> member per
// unique attachment content, written exactly once even when referenced by
// multiple entries.
func (p *Packager) WriteArchive(entries []*Entry, outputDir, filename string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	zipPath := filepath.Join(outputDir, filename)

	for _, entry := range entries {
		p.AttachPhotos(entry)
	}

	manifest, err := Serialize(entries)
	if err != nil {
		return "", err
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	w, err := zw.Create("Journal.json")
	if err != nil {
		return "", fmt.Errorf("failed to add manifest: %w", err)
	}
	if _, err := w.Write(manifest); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	// One member per unique content hash.
	added := make(map[string]bool)
	for localPath, pf := range p.files {
		if added[pf.md5] {
			continue
		}
		if err := addFileMember(zw, localPath, "photos/"+pf.md5+"."+pf.ext); err != nil {
			return "", err
		}
		added[pf.md5] = true
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	return zipPath, nil
}

func addFileMember(zw *zip.Writer, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open attachment %s: %w", localPath, err)
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add archive member %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write archive member %s: %w", name, err)
	}
	return nil
}
