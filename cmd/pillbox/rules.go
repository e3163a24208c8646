package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

func rulesCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage reminder times",
	}
	cmd.AddCommand(
		addRuleCmd(a),
		setRuleEnabledCmd(a, "enable", "Enable a reminder time", true),
		setRuleEnabledCmd(a, "disable", "Pause a reminder time", false),
		deleteRuleCmd(a),
	)
	return cmd
}

// ruleZone picks the zone for a new rule: the flag, then the owner's saved zone, then DEFAULT_TZ.
func (a *cliApp) ruleZone(ctx context.Context, repo store.Repo, flag string) string {
	if flag != "" {
		return flag
	}
	u, err := repo.GetUser(ctx, a.cfg.ChatID)
	if err == nil && u.TZ != "" {
		return u.TZ
	}
	return a.cfg.DefaultTZ
}

func addRuleCmd(a *cliApp) *cobra.Command {
	var at, days, tz string
	cmd := &cobra.Command{
		Use:   "add MED_ID",
		Short: "Add a reminder time to a medication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			medID, err := parseID(args[0])
			if err != nil {
				return err
			}
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			rule, err := domain.NewRule(medID, at, days, a.ruleZone(cmd.Context(), repo, tz))
			if err != nil {
				return err
			}
			if err := repo.CreateRule(cmd.Context(), a.cfg.ChatID, &rule); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("medication %d: %w", medID, err)
				}
				return fmt.Errorf("create rule: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added reminder #%d: %s %s (%s)\n", rule.ID, rule.TimeOfDay, rule.DaysOfWeek, rule.TZ)
			now := a.now()
			if occ, ok := rule.Next(now); ok {
				fmt.Fprintf(out, "Next dose: %s, in %s\n", occ.Label, countdown.FormatRemaining(occ.At.Sub(now)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "time of day, HH:MM (24h)")
	cmd.Flags().StringVar(&days, "days", domain.Daily, `"daily" or comma-separated days, e.g. mon,wed,fri`)
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone (defaults to the owner's zone)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func setRuleEnabledCmd(a *cliApp, use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " RULE_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.SetRuleEnabled(cmd.Context(), a.cfg.ChatID, id, enabled); err != nil {
				return fmt.Errorf("%s rule %d: %w", use, id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder #%d %sd\n", id, use)
			return nil
		},
	}
}

func deleteRuleCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RULE_ID",
		Short: "Delete a reminder time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.DeleteRule(cmd.Context(), a.cfg.ChatID, id); err != nil {
				return fmt.Errorf("delete rule %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted reminder #%d\n", id)
			return nil
		},
	}
}
