// Package transform maps Trello cards onto Day One entries.
//
// Mapping:
//
//	card name                     -> entry title (markdown H1)
//	card desc                     -> entry body (markdown)
//	card due or dateLastActivity  -> entry creationDate
//	card dateLastActivity         -> entry modifiedDate
//	card labels                   -> entry tags
//	card listName                 -> additional tag (first)
//	card attachments              -> downloaded files, embedded via
//	                                 dayone-moment:// refs after packaging
//
// Nothing here raises on malformed input; missing fields degrade to empty
// or omitted content.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/islandhopper81/trello-journal-migration/internal/dayone"
	"github.com/islandhopper81/trello-journal-migration/internal/trello"
)

// ParseDate converts a Trello date string to the fixed-offset form used in
// entries. Trello uses ISO 8601 with a "Z" suffix; the result renders UTC as
// "+00:00". Missing or unparsable input degrades to the current time.
func ParseDate(dateString string) string {
	if dateString == "" {
		return time.Now().UTC().Format(dayone.DateFormat)
	}
	parsed, err := time.Parse(time.RFC3339, dateString)
	if err != nil {
		return time.Now().UTC().Format(dayone.DateFormat)
	}
	return parsed.Format(dayone.DateFormat)
}

// ResolveDates returns the entry creation and modification dates for a card.
// Creation prefers the due date, falling back to last activity; modification
// uses last activity. Both fall back to now.
func ResolveDates(card trello.Card) (creationDate, modifiedDate string) {
	rawCreation := card.Due
	if rawCreation == "" {
		rawCreation = card.DateLastActivity
	}
	return ParseDate(rawCreation), ParseDate(card.DateLastActivity)
}

// BuildBody builds the markdown text for an entry from a card.
//
// Downloaded attachments get numbered placeholders that the packager
// replaces with dayone-moment:// references. Attachments that weren't
// downloaded are listed as regular markdown links under "Other Attachments".
func BuildBody(card trello.Card, includeAttachments bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", card.Name)

	if desc := strings.TrimSpace(card.Desc); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	if includeAttachments && len(card.Attachments) > 0 {
		var downloaded, notDownloaded []trello.Attachment
		for _, att := range card.Attachments {
			if att.LocalPath != "" {
				downloaded = append(downloaded, att)
			} else {
				notDownloaded = append(notDownloaded, att)
			}
		}

		for i := range downloaded {
			fmt.Fprintf(&b, "![](%s)\n\n", dayone.AttachmentPlaceholder(i))
		}

		if len(notDownloaded) > 0 {
			b.WriteString("## Other Attachments\n\n")
			for _, att := range notDownloaded {
				name := att.Name
				if name == "" {
					name = att.URL
				}
				fmt.Fprintf(&b, "- [%s](%s)\n", name, att.URL)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// CollectTags gathers tags from a card: the list name first, then each
// label's name in card order. Duplicates are kept.
func CollectTags(card trello.Card) []string {
	tags := []string{}

	if card.ListName != "" {
		tags = append(tags, card.ListName)
	}
	for _, label := range card.Labels {
		if label.Name != "" {
			tags = append(tags, label.Name)
		}
	}

	return tags
}

// CardToEntry converts a single card to an entry. The entry carries the
// local paths of downloaded attachments (in placeholder order) as transient
// packaging input; entries are never starred.
func CardToEntry(card trello.Card, journalName string, includeAttachments bool) *dayone.Entry {
	body := BuildBody(card, includeAttachments)
	tags := CollectTags(card)
	creationDate, modifiedDate := ResolveDates(card)

	entry := dayone.NewEntry(body, creationDate, modifiedDate, tags, false, journalName)

	if includeAttachments {
		for _, att := range card.Attachments {
			if att.LocalPath != "" {
				entry.AttachmentPaths = append(entry.AttachmentPaths, att.LocalPath)
			}
		}
	}

	return entry
}

// TransformCards converts cards to entries, preserving card order. If
// listFilter is non-empty, only cards whose list name matches one of the
// given names (case-insensitive) are converted.
func TransformCards(cards []trello.Card, listFilter []string, journalName string, includeAttachments bool) []*dayone.Entry {
	allowed := make(map[string]bool, len(listFilter))
	for _, name := range listFilter {
		allowed[strings.ToLower(name)] = true
	}

	entries := make([]*dayone.Entry, 0, len(cards))
	for _, card := range cards {
		if len(allowed) > 0 && !allowed[strings.ToLower(card.ListName)] {
			continue
		}
		entries = append(entries, CardToEntry(card, journalName, includeAttachments))
	}

	return entries
}
