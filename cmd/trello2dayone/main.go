package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/islandhopper81/trello-journal-migration/internal/config"
	"github.com/islandhopper81/trello-journal-migration/internal/migrate"
)

var (
	cfgFile   string
	outputDir string
	dryRun    bool
	verbose   bool
	version   = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trello2dayone",
		Short: "Migrate a Trello board into a Day One import zip",
		Long: `Fetches a Trello board's lists, cards, and attachments and packages
them into a Day One-compatible import zip with embedded photos.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if outputDir == "" {
				outputDir = cfg.Output.Dir
			}

			engine, err := migrate.NewEngine(cfg)
			if err != nil {
				return fmt.Errorf("failed to create migration engine: %w", err)
			}

			return engine.Run(ctx, outputDir, dryRun)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory (default from config)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without writing output")

	rootCmd.AddCommand(initCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive setup to create config file",
		Long:  `Interactively creates a configuration file with your Trello credentials and migration options.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			fmt.Println("=== Trello2DayOne Setup ===")
			fmt.Println()
			fmt.Println("Get your API key and token at https://trello.com/power-ups/admin")
			fmt.Println()

			fmt.Print("Trello board ID: ")
			boardID, _ := reader.ReadString('\n')
			boardID = strings.TrimSpace(boardID)
			if boardID == "" {
				return fmt.Errorf("board ID is required")
			}

			fmt.Print("Trello API key: ")
			apiKey, _ := reader.ReadString('\n')
			apiKey = strings.TrimSpace(apiKey)

			fmt.Print("Trello API token: ")
			apiToken, _ := reader.ReadString('\n')
			apiToken = strings.TrimSpace(apiToken)

			fmt.Print("Journal name [Journal]: ")
			journalName, _ := reader.ReadString('\n')
			journalName = strings.TrimSpace(journalName)
			if journalName == "" {
				journalName = "Journal"
			}

			fmt.Print("Include archived lists and cards? [y/N]: ")
			archived, _ := reader.ReadString('\n')
			includeArchived := strings.EqualFold(strings.TrimSpace(archived), "y")

			content, err := yaml.Marshal(map[string]any{
				"trello": map[string]any{
					"board_id":  boardID,
					"api_key":   apiKey,
					"api_token": "${TRELLO_API_TOKEN}",
				},
				"journal": map[string]any{
					"name": journalName,
				},
				"options": map[string]any{
					"include_archived":    includeArchived,
					"include_attachments": true,
				},
				"output": map[string]any{
					"dir":      "output",
					"filename": "Journal.zip",
				},
			})
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}

			configDir, err := config.GetConfigDir()
			if err != nil {
				return err
			}
			configPath := filepath.Join(configDir, "config.yaml")

			if err := os.WriteFile(configPath, content, 0600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Printf("\nConfig file written to: %s\n", configPath)
			fmt.Printf("\nIMPORTANT: Set the TRELLO_API_TOKEN environment variable:\n")
			fmt.Printf("  export TRELLO_API_TOKEN='%s'\n", apiToken)
			fmt.Println("\nTo preview the migration, run: trello2dayone --dry-run")
			fmt.Println("To produce the import zip, run: trello2dayone")

			return nil
		},
	}
}
