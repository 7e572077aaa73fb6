package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pocketbrain/wacore/internal/config"
	"github.com/pocketbrain/wacore/internal/event"
	"github.com/pocketbrain/wacore/internal/outbound"
	"github.com/pocketbrain/wacore/internal/wiring"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"start"},
	Short:   "Read NDJSON inbound events from stdin and reply on stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe is the CLI harness substituting for the out-of-scope HTTP
// webhook transport: one event.Inbound JSON object per
// line on stdin, one reply JSON object per line on stdout.
func runServe() error {
	_ = config.LoadDotEnvFile(".env")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("serve: load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sender := outbound.NewStdioSender(os.Stdout)

	ctx := context.Background()
	app, err := wiring.Build(ctx, cfg, sender, logger)
	if err != nil {
		return fmt.Errorf("serve: build app: %w", err)
	}
	defer app.Close()

	logger.Info("serve: ready", "data_dir", cfg.DataDir)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var in event.Inbound
		if err := json.Unmarshal(line, &in); err != nil {
			logger.Error("serve: malformed event line", "error", err)
			continue
		}
		if err := app.Router.Handle(ctx, in); err != nil {
			logger.Error("serve: handle event failed", "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serve: read stdin: %w", err)
	}
	return nil
}
