package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

func previewCmd(a *cliApp) *cobra.Command {
	var at, days, tz, nowFlag string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show when a reminder time would next fire, without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tz == "" {
				tz = a.cfg.DefaultTZ
			}
			rule, err := domain.NewRule(0, at, days, tz)
			if err != nil {
				return err
			}
			now := a.now()
			if nowFlag != "" {
				if now, err = time.Parse(time.RFC3339, nowFlag); err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rule:      %s %s (%s)\n", rule.TimeOfDay, rule.DaysOfWeek, rule.TZ)
			fmt.Fprintf(out, "Cron:      %s\n", rule.CronSpec())
			occ, ok := rule.Next(now)
			if !ok {
				fmt.Fprintln(out, "Next dose: never")
				return nil
			}
			fmt.Fprintf(out, "Next dose: %s\n", occ.Label)
			fmt.Fprintf(out, "UTC:       %s\n", occ.At.Format(time.RFC3339))
			fmt.Fprintf(out, "In:        %s\n", countdown.FormatRemaining(occ.At.Sub(now)))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "time of day, HH:MM (24h)")
	cmd.Flags().StringVar(&days, "days", domain.Daily, `"daily" or comma-separated days, e.g. mon,wed,fri`)
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone (defaults to DEFAULT_TZ)")
	cmd.Flags().StringVar(&nowFlag, "now", "", "evaluate at this RFC3339 instant instead of the current time")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
