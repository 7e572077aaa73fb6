package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pocketbrain/wacore/internal/config"
	"github.com/pocketbrain/wacore/internal/state"
	"github.com/pocketbrain/wacore/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a fresh state store, seeding the root user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// runInit opens (or creates) the data directory's state store and seeds
// RootState with cfg.InitialRootUserID if the store has never been
// written to before. This is the same first-boot seeding `serve` performs
// lazily on its own first run (via state.NewManager); running it here
// lets a deployment provision the root user once, ahead of time, without
// depending on the first inbound message to trigger it.
func runInit() error {
	_ = config.LoadDotEnvFile(".env")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("init: load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("init: open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	mgr, err := state.NewManager(ctx, db, cfg.InitialRootUserID, logger)
	if err != nil {
		return fmt.Errorf("init: seed root state: %w", err)
	}

	// NewManager only seeds the document in memory; force a save now so a
	// freshly-provisioned store has the root user on disk before the first
	// inbound message arrives.
	var rootUserID string
	if err := mgr.WithRoot(ctx, func(doc *state.Document) error {
		for uid := range doc.Root.RootUsers {
			rootUserID = uid
			break
		}
		return nil
	}); err != nil {
		return fmt.Errorf("init: persist seeded state: %w", err)
	}

	logger.Info("init: state store ready", "data_dir", cfg.DataDir, "root_user_id", rootUserID)
	return nil
}
