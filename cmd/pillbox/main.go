// Command pillbox manages a local pillbox and shows a live countdown to the next doses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/config"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/logger"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

// cliApp is shared by every subcommand. The store is opened on first use so
// commands like preview work without a database.
type cliApp struct {
	cfg  config.Config
	log  *zap.Logger
	repo store.Repo
	now  func() time.Time
}

func (a *cliApp) store(ctx context.Context) (store.Repo, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.log)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.DBPath, err)
	}
	a.repo = repo
	return repo, nil
}

func (a *cliApp) close() {
	if a.repo != nil {
		_ = a.repo.Close()
	}
}

func newRootCmd(a *cliApp) *cobra.Command {
	root := &cobra.Command{
		Use:           "pillbox",
		Short:         "Pillbox reminders CLI",
		Long:          "Manage medications and reminder times, and watch the countdown to upcoming doses.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Int64Var(&a.cfg.ChatID, "chat", a.cfg.ChatID, "pillbox owner id (defaults to CHAT_ID)")

	root.AddCommand(
		medsCmd(a),
		rulesCmd(a),
		previewCmd(a),
		watchCmd(a),
		debugCmd(a),
	)
	return root
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	a := &cliApp{cfg: cfg, log: log, now: time.Now}
	err = newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
