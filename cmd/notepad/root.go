package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
	"github.com/aretw0/notepad/pkg/core"
)

var (
	verbose    bool
	dbPath     string
	configPath string

	// cfg is loaded before every command runs.
	cfg notepad.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notepad",
	Short: "Keep short colored notes in a local SQLite database",
	Long: `notepad stores short notes (a heading, an optional description and a color)
in a local SQLite database. Every view is live: list and show can keep
watching while other processes add, edit or delete notes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := notepad.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.Database = dbPath
		}
		cfg = loaded

		level, err := cfg.Level()
		if err != nil {
			return err
		}
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (overrides config and NOTEPAD_DB)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: notepad.yaml found upwards)")
}

// openService opens the configured database.
func openService() (*core.Service, error) {
	opts := append(cfg.Options(), notepad.WithLogger(slog.Default()))
	svc, err := notepad.New(cfg.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Database, err)
	}
	return svc, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", arg)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printNote(w io.Writer, n core.Note) {
	fmt.Fprintf(w, "%d\t%-6s\t%s\n", n.ID, n.Color.OrDefault(), n.Heading)
}
