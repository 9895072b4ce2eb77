package dayone

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func entryWithAttachments(paths ...string) *Entry {
	var b strings.Builder
	b.WriteString("# Entry\n\n")
	for i := range paths {
		fmt.Fprintf(&b, "![](%s)\n\n", AttachmentPlaceholder(i))
	}
	entry := NewEntry(strings.TrimRight(b.String(), "\n"), "", "", nil, false, "Journal")
	entry.AttachmentPaths = paths
	return entry
}

func TestAttachPhotos(t *testing.T) {
	dir := t.TempDir()
	photo := writeTempFile(t, dir, "beach.jpg", "jpeg bytes")

	entry := entryWithAttachments(photo)

	p := NewPackager()
	p.AttachPhotos(entry)

	if len(entry.Photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(entry.Photos))
	}

	got := entry.Photos[0]
	if got.MD5 != HashContent([]byte("jpeg bytes")) {
		t.Errorf("photo md5 = %q", got.MD5)
	}
	if got.Type != "jpeg" {
		t.Errorf("photo type = %q, want jpeg", got.Type)
	}
	if got.OrderInEntry != 0 {
		t.Errorf("orderInEntry = %d, want 0", got.OrderInEntry)
	}

	if HasPlaceholders(entry.Text) {
		t.Errorf("placeholder survived packaging: %q", entry.Text)
	}
	if !strings.Contains(entry.Text, "![]("+MomentRef(got.Identifier)+")") {
		t.Errorf("text missing moment reference: %q", entry.Text)
	}
}

func TestAttachPhotos_MissingFileSkipped(t *testing.T) {
	dir := t.TempDir()
	present := writeTempFile(t, dir, "ok.png", "png bytes")
	missing := filepath.Join(dir, "vanished.jpg")

	entry := entryWithAttachments(missing, present)

	p := NewPackager()
	p.AttachPhotos(entry)

	// Only the surviving file gets a descriptor, indexed within the
	// surviving list
	if len(entry.Photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(entry.Photos))
	}
	if entry.Photos[0].Type != "png" {
		t.Errorf("photo type = %q, want png", entry.Photos[0].Type)
	}
	if entry.Photos[0].OrderInEntry != 0 {
		t.Errorf("orderInEntry = %d, want 0", entry.Photos[0].OrderInEntry)
	}

	// The missing file's placeholder must not survive either
	if HasPlaceholders(entry.Text) {
		t.Errorf("placeholder survived packaging: %q", entry.Text)
	}
}

func TestAttachPhotos_HashCachedPerPath(t *testing.T) {
	dir := t.TempDir()
	photo := writeTempFile(t, dir, "shared.jpg", "shared bytes")

	first := entryWithAttachments(photo)
	second := entryWithAttachments(photo)

	p := NewPackager()
	p.AttachPhotos(first)
	p.AttachPhotos(second)

	if first.Photos[0].MD5 != second.Photos[0].MD5 {
		t.Error("same file should produce the same hash")
	}
	if first.Photos[0].Identifier == second.Photos[0].Identifier {
		t.Error("identifiers must be fresh per photo reference")
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	entry := NewEntry("# Hello\n\nWorld", "2023-01-15T09:00:00+00:00", "2023-02-20T10:30:00+00:00",
		[]string{"Travel", "Fun"}, false, "Journal")
	entry.Photos = []Photo{
		{MD5: "abc123", Identifier: "DEADBEEF", Type: "jpeg", OrderInEntry: 0},
	}
	entry.AttachmentPaths = []string{"/tmp/should/not/appear"}

	data, err := Serialize([]*Entry{entry})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Transient fields are stripped from the document
	if strings.Contains(string(data), "should/not/appear") {
		t.Error("serialized document leaked transient attachment paths")
	}

	journal, err := ParseJournal(data)
	if err != nil {
		t.Fatalf("ParseJournal failed: %v", err)
	}

	if journal.Metadata.Version != "1.0" {
		t.Errorf("version = %q, want 1.0", journal.Metadata.Version)
	}
	if len(journal.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(journal.Entries))
	}

	got := journal.Entries[0]
	if got.UUID != entry.UUID || got.Text != entry.Text || got.Journal != entry.Journal {
		t.Error("round-trip changed entry fields")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "Travel" || got.Tags[1] != "Fun" {
		t.Errorf("round-trip tags = %v", got.Tags)
	}
	if len(got.Photos) != 1 || got.Photos[0] != entry.Photos[0] {
		t.Errorf("round-trip photos = %v", got.Photos)
	}
}

func readArchive(t *testing.T, zipPath string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer r.Close()

	members := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open member %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read member %s: %v", f.Name, err)
		}
		members[f.Name] = string(data)
	}
	return members
}

func TestWriteArchive(t *testing.T) {
	dir := t.TempDir()
	photo := writeTempFile(t, dir, "cards/c1/beach.jpg", "jpeg bytes")

	entry := entryWithAttachments(photo)

	p := NewPackager()
	zipPath, err := p.WriteArchive([]*Entry{entry}, filepath.Join(dir, "out"), "Journal.zip")
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	members := readArchive(t, zipPath)

	manifest, ok := members["Journal.json"]
	if !ok {
		t.Fatal("archive missing Journal.json")
	}

	journal, err := ParseJournal([]byte(manifest))
	if err != nil {
		t.Fatalf("manifest does not parse: %v", err)
	}
	if len(journal.Entries) != 1 {
		t.Fatalf("expected 1 entry in manifest, got %d", len(journal.Entries))
	}

	md5sum := HashContent([]byte("jpeg bytes"))
	photoMember := "photos/" + md5sum + ".jpeg"
	if got, ok := members[photoMember]; !ok {
		t.Errorf("archive missing %s, members: %v", photoMember, memberNames(members))
	} else if got != "jpeg bytes" {
		t.Errorf("photo member content = %q", got)
	}
}

func TestWriteArchive_DeduplicatesIdenticalContent(t *testing.T) {
	dir := t.TempDir()

	// Two cards attach byte-identical content under different names
	first := writeTempFile(t, dir, "cards/c1/sunset.jpg", "same bytes")
	second := writeTempFile(t, dir, "cards/c2/copy-of-sunset.jpg", "same bytes")

	entries := []*Entry{
		entryWithAttachments(first),
		entryWithAttachments(second),
	}

	p := NewPackager()
	zipPath, err := p.WriteArchive(entries, filepath.Join(dir, "out"), "Journal.zip")
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	members := readArchive(t, zipPath)

	photoCount := 0
	for name := range members {
		if strings.HasPrefix(name, "photos/") {
			photoCount++
		}
	}
	if photoCount != 1 {
		t.Errorf("expected exactly 1 photo member, got %d: %v", photoCount, memberNames(members))
	}

	// Both entries' descriptors reference the same content hash
	md5sum := HashContent([]byte("same bytes"))
	for i, entry := range entries {
		if len(entry.Photos) != 1 || entry.Photos[0].MD5 != md5sum {
			t.Errorf("entry %d photos = %v, want md5 %s", i, entry.Photos, md5sum)
		}
	}
}

func TestWriteArchive_AliasExtensionsShareMember(t *testing.T) {
	dir := t.TempDir()

	// Identical content under the two common jpeg suffixes collapses to one
	// canonical member name
	first := writeTempFile(t, dir, "cards/c1/a.jpg", "same bytes")
	second := writeTempFile(t, dir, "cards/c2/b.jpeg", "same bytes")

	p := NewPackager()
	zipPath, err := p.WriteArchive([]*Entry{
		entryWithAttachments(first),
		entryWithAttachments(second),
	}, filepath.Join(dir, "out"), "Journal.zip")
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	members := readArchive(t, zipPath)
	want := "photos/" + HashContent([]byte("same bytes")) + ".jpeg"
	if _, ok := members[want]; !ok || len(members) != 2 {
		t.Errorf("expected Journal.json plus %s, got %v", want, memberNames(members))
	}
}

func memberNames(members map[string]string) []string {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	return names
}
