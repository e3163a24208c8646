package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

func debugCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Show which reminder times match the current minute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := loadSnapshot(cmd.Context(), repo, a.cfg.ChatID)
			if err != nil {
				return err
			}
			now := a.now()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Now (UTC): %s\n", now.UTC().Format("2006-01-02 15:04:05 Mon"))

			var rows [][]interface{}
			for _, m := range snap {
				for _, r := range m.Rules {
					match := "no"
					if r.Enabled && domain.MatchesNow(r, now) {
						match = dueColor.Sprint("DUE")
					}
					rows = append(rows, []interface{}{r.ID, m.Name, r.TimeOfDay.String(), r.DaysOfWeek, r.TZ, r.Enabled, match})
				}
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No reminder times.")
				return nil
			}
			renderTable(out, []string{"Rule", "Medication", "Time", "Days", "Zone", "Enabled", "Now"}, rows)
			return nil
		},
	}
}
