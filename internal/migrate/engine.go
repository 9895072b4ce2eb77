// Package migrate glues the pipeline stages together: fetch board data,
// download attachments, transform cards, package the import archive.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"

	"github.com/islandhopper81/trello-journal-migration/internal/config"
	"github.com/islandhopper81/trello-journal-migration/internal/dayone"
	"github.com/islandhopper81/trello-journal-migration/internal/transform"
	"github.com/islandhopper81/trello-journal-migration/internal/trello"
)

// Engine runs the migration pipeline
type Engine struct {
	client *trello.Client
	cfg    *config.Config
}

// NewEngine creates a migration engine for the configured board
func NewEngine(cfg *config.Config) (*Engine, error) {
	client, err := trello.NewClient(cfg.Trello.APIKey, cfg.Trello.APIToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create trello client: %w", err)
	}
	return &Engine{client: client, cfg: cfg}, nil
}

// Run executes the full pipeline. Board and card retrieval failures are
// fatal; per-attachment failures are logged and the run continues. With
// dryRun set, a summary is printed and nothing is written.
func (e *Engine) Run(ctx context.Context, outputDir string, dryRun bool) error {
	start := time.Now()
	boardID := e.cfg.Trello.BoardID

	fmt.Printf("Connecting to Trello board: %s\n", boardID)

	board, err := e.client.FetchBoard(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to fetch board: %w", err)
	}
	fmt.Printf("Board: %q\n", board.Name)

	lists, cards, err := e.client.FetchAllCards(ctx, boardID, e.cfg.Options.IncludeArchived)
	if err != nil {
		return fmt.Errorf("failed to fetch cards: %w", err)
	}
	fmt.Printf("Found %d lists, %d cards\n", len(lists), len(cards))

	if e.cfg.Options.IncludeAttachments {
		downloadDir := filepath.Join(outputDir, "attachments")
		fmt.Printf("\nDownloading attachments to: %s\n", downloadDir)
		downloaded := e.DownloadAttachments(ctx, cards, downloadDir)
		fmt.Printf("Downloaded %d attachment(s)\n", downloaded)
	}

	entries := transform.TransformCards(cards,
		e.cfg.Options.ListFilter,
		e.cfg.Journal.Name,
		e.cfg.Options.IncludeAttachments)
	fmt.Printf("\nTransformed %d entries for Day One\n", len(entries))

	if dryRun {
		printDryRunSummary(entries)
		return nil
	}

	packager := dayone.NewPackager()
	zipPath, err := packager.WriteArchive(entries, outputDir, e.cfg.Output.Filename)
	if err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	slog.Debug("migration completed", "duration_s", time.Since(start).Seconds())

	fmt.Printf("\nDay One import zip written to: %s\n", zipPath)
	fmt.Println("\nTo import into Day One:")
	fmt.Println("  1. Go to dayone.me (web app) or open Day One on iOS/Android/Mac")
	fmt.Println("  2. Settings -> Import (web) or File -> Import (desktop/mobile)")
	fmt.Printf("  3. Select %s\n", zipPath)

	return nil
}

// DownloadAttachments downloads every attachment from the given cards into
// downloadDir, one subdirectory per card id. Each attachment that downloads
// successfully gets its LocalPath set in place. Failures and ignore-pattern
// matches are logged and skipped; the affected attachment later appears as a
// plain link instead of an embedded photo. Returns the number of files
// downloaded.
func (e *Engine) DownloadAttachments(ctx context.Context, cards []trello.Card, downloadDir string) int {
	total := 0
	for _, card := range cards {
		total += len(card.Attachments)
	}
	if total == 0 {
		return 0
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Downloading attachments"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)

	downloaded := 0
	for ci := range cards {
		card := &cards[ci]
		cardDir := filepath.Join(downloadDir, card.ID)

		for ai := range card.Attachments {
			att := &card.Attachments[ai]
			bar.Add(1)

			if att.URL == "" {
				continue
			}

			filename := att.Name
			if filename == "" {
				filename = path.Base(urlPath(att.URL))
			}

			if e.shouldIgnore(card.ID + "/" + filename) {
				slog.Debug("attachment matches ignore pattern, skipping",
					"card", card.ID, "name", filename)
				continue
			}

			savePath := filepath.Join(cardDir, filename)
			if _, err := e.client.DownloadAttachment(ctx, att.URL, savePath); err != nil {
				var dlErr *trello.DownloadError
				if errors.As(err, &dlErr) {
					slog.Warn("failed to download attachment",
						"card", card.ID, "name", filename, "error", dlErr.Err)
				} else {
					slog.Warn("failed to download attachment",
						"card", card.ID, "name", filename, "error", err)
				}
				continue
			}

			att.LocalPath = savePath
			downloaded++
			slog.Info("downloaded attachment", "card", card.ID, "name", filename)
		}
	}
	bar.Finish()

	return downloaded
}

// shouldIgnore checks an attachment's cardID/filename against the configured
// ignore patterns.
func (e *Engine) shouldIgnore(relPath string) bool {
	for _, pattern := range e.cfg.Options.IgnorePatterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// urlPath returns the path component of a URL, or the raw string when it
// does not parse.
func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

// printDryRunSummary prints what a real run would produce: entry count,
// total attachment count, and one sample entry.
func printDryRunSummary(entries []*dayone.Entry) {
	fmt.Println("\n--- DRY RUN ---")
	fmt.Printf("Would create %d Day One entries.\n", len(entries))

	attachmentCount := 0
	for _, entry := range entries {
		attachmentCount += len(entry.AttachmentPaths)
	}
	fmt.Printf("Total attachments: %d\n", attachmentCount)

	if len(entries) > 0 {
		sample, err := json.MarshalIndent(entries[0].Record(), "", "  ")
		if err == nil {
			fmt.Println("\nSample entry:")
			fmt.Println(string(sample))
		}
	}
}
