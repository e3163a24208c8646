package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/scheduler"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

const clearScreen = "\033[H\033[2J"

func watchCmd(a *cliApp) *cobra.Command {
	var once, noClear bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live countdown to upcoming doses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if once {
				snap, err := loadSnapshot(cmd.Context(), repo, a.cfg.ChatID)
				if err != nil {
					return err
				}
				now := a.now()
				renderCountdown(out, countdown.Compute(snap, now), now)
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, repo, out, !noClear)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print a single frame and exit")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "append frames instead of redrawing the screen")
	return cmd
}

func loadSnapshot(ctx context.Context, repo store.Repo, chatID int64) (countdown.Snapshot, error) {
	meds, err := repo.ListMedications(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load pillbox: %w", err)
	}
	return countdown.Snapshot(meds), nil
}

// watch redraws the countdown every REFRESH_PERIOD and re-reads the pillbox
// every SNAPSHOT_POLL until ctx is done.
func (a *cliApp) watch(ctx context.Context, repo store.Repo, out io.Writer, clear bool) error {
	snap, err := loadSnapshot(ctx, repo, a.cfg.ChatID)
	if err != nil {
		return err
	}

	sched := scheduler.New(a.log, scheduler.RenderFunc(func(entries []countdown.Entry, now time.Time) {
		if clear {
			_, _ = io.WriteString(out, clearScreen)
		}
		renderCountdown(out, entries, now)
	}), a.cfg.RefreshPeriod)
	sched.Replace(snap)
	sched.Start(ctx)
	defer sched.Stop()

	pollEvery := a.cfg.SnapshotPoll
	if pollEvery <= 0 {
		pollEvery = 30 * time.Second
	}
	poll := time.NewTicker(pollEvery)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			snap, err := loadSnapshot(ctx, repo, a.cfg.ChatID)
			if err != nil {
				// Keep counting down from the last good snapshot.
				a.log.Warn("snapshot reload failed", zap.Error(err))
				continue
			}
			sched.Replace(snap)
		}
	}
}
