// Package dayone builds Day One-compatible import zip files with embedded
// attachments.
//
// Day One's import format (used by the web app, iOS, macOS, Android) is a
// .zip file containing:
//
//	Journal.json        entries with a "photos" array referencing files
//	photos/<md5>.jpeg   attachment files named by their MD5 hash
//
// Each entry references its photos via a "photos" list with "md5",
// "identifier", and "type" fields, and ![](dayone-moment://<identifier>)
// markdown in the entry text.
package dayone

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Placeholder format used in entry text while attachment identifiers are
// still unknown, replaced during zip packaging.
const placeholderFormat = "{{ATTACHMENT_%d}}"

// momentScheme is the URI scheme Day One uses for embedded photo references.
const momentScheme = "dayone-moment://"

// AttachmentPlaceholder returns the numbered placeholder token for the
// attachment at the given zero-based index within an entry.
func AttachmentPlaceholder(index int) string {
	return fmt.Sprintf(placeholderFormat, index)
}

// MomentRef returns the in-text reference for a packaged photo.
func MomentRef(identifier string) string {
	return momentScheme + identifier
}

// HasPlaceholders reports whether text still contains any unresolved
// attachment placeholder.
func HasPlaceholders(text string) bool {
	return strings.Contains(text, "{{ATTACHMENT_")
}

// NewIdentifier generates an identifier in Day One's format: uppercase hex,
// no dashes.
func NewIdentifier() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Photo links an entry's embedded image reference to a packaged file.
type Photo struct {
	MD5          string `json:"md5"`
	Identifier   string `json:"identifier"`
	Type         string `json:"type"`
	OrderInEntry int    `json:"orderInEntry"`
}

// Entry is the internal working representation of a journal entry. It
// carries the transient AttachmentPaths list used during packaging, which is
// deliberately absent from the serialization shape (EntryRecord).
type Entry struct {
	UUID         string
	CreationDate string
	ModifiedDate string
	Text         string
	Tags         []string
	Starred      bool
	Journal      string
	Photos       []Photo

	// AttachmentPaths holds local paths of downloaded attachments in
	// placeholder order. Packaging input only; never serialized.
	AttachmentPaths []string
}

// NewEntry creates an entry with a fresh identifier. Empty dates default to
// the current time.
func NewEntry(text, creationDate, modifiedDate string, tags []string, starred bool, journal string) *Entry {
	now := time.Now().UTC().Format(DateFormat)
	if creationDate == "" {
		creationDate = now
	}
	if modifiedDate == "" {
		modifiedDate = now
	}
	if tags == nil {
		tags = []string{}
	}

	return &Entry{
		UUID:         NewIdentifier(),
		CreationDate: creationDate,
		ModifiedDate: modifiedDate,
		Text:         text,
		Tags:         tags,
		Starred:      starred,
		Journal:      journal,
	}
}

// DateFormat is the fixed-offset form entry dates are normalized to.
// time.Format renders the zero offset as "+00:00" rather than "Z".
const DateFormat = "2006-01-02T15:04:05-07:00"

// EntryRecord is the external serialization shape of an entry, exactly the
// fields the Day One JSON spec defines.
type EntryRecord struct {
	UUID         string   `json:"uuid"`
	CreationDate string   `json:"creationDate"`
	ModifiedDate string   `json:"modifiedDate"`
	Text         string   `json:"text"`
	Tags         []string `json:"tags"`
	Starred      bool     `json:"starred"`
	Journal      string   `json:"journal"`
	Photos       []Photo  `json:"photos"`
}

// Record converts the working entry to its serialization shape, stripping
// transient fields.
func (e *Entry) Record() EntryRecord {
	photos := e.Photos
	if photos == nil {
		photos = []Photo{}
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryRecord{
		UUID:         e.UUID,
		CreationDate: e.CreationDate,
		ModifiedDate: e.ModifiedDate,
		Text:         e.Text,
		Tags:         tags,
		Starred:      e.Starred,
		Journal:      e.Journal,
		Photos:       photos,
	}
}

// Metadata is the version envelope of a Day One import document.
type Metadata struct {
	Version string `json:"version"`
}

// Journal is the import document: a versioned envelope around the entries.
type Journal struct {
	Metadata Metadata      `json:"metadata"`
	Entries  []EntryRecord `json:"entries"`
}
