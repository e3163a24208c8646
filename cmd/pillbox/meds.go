package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

func medsCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meds",
		Short: "Manage medications",
	}
	cmd.AddCommand(
		listMedsCmd(a),
		addMedCmd(a),
		deleteMedCmd(a),
		stockCmd(a),
	)
	return cmd
}

func listMedsCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List medications and their reminder times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			meds, err := repo.ListMedications(cmd.Context(), a.cfg.ChatID)
			if err != nil {
				return fmt.Errorf("list medications: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(meds) == 0 {
				fmt.Fprintln(out, "Pillbox is empty.")
				return nil
			}
			rows := make([][]interface{}, 0, len(meds))
			for i := range meds {
				m := &meds[i]
				stock := strconv.Itoa(m.StockCount)
				if m.LowStock() {
					stock = warnColor.Sprint(stock + " low")
				}
				rows = append(rows, []interface{}{m.ID, m.Name, m.Purpose, stock, rulesCell(m.Rules)})
			}
			renderTable(out, []string{"ID", "Name", "Purpose", "Stock", "Reminders"}, rows)
			return nil
		},
	}
}

// rulesCell lists rules one per line as "#id HH:MM days (tz)".
func rulesCell(rules []domain.Rule) string {
	if len(rules) == 0 {
		return "-"
	}
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		s := fmt.Sprintf("#%d %s %s (%s)", r.ID, r.TimeOfDay, r.DaysOfWeek, r.TZ)
		if !r.Enabled {
			s += " [off]"
		}
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n")
}

func addMedCmd(a *cliApp) *cobra.Command {
	var (
		purpose  string
		notes    string
		stock    int
		lowStock int
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a medication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("name cannot be empty")
			}
			if stock < 0 || lowStock < 0 {
				return fmt.Errorf("stock and threshold must be 0 or more")
			}
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			m := &domain.Medication{
				ChatID:            a.cfg.ChatID,
				Name:              name,
				Purpose:           purpose,
				DosageNotes:       notes,
				StockCount:        stock,
				LowStockThreshold: lowStock,
			}
			if err := repo.CreateMedication(cmd.Context(), m); err != nil {
				return fmt.Errorf("create medication: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added medication #%d %s\n", m.ID, m.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&purpose, "purpose", "", "what the medication is for")
	cmd.Flags().StringVar(&notes, "notes", "", "dosage notes")
	cmd.Flags().IntVar(&stock, "stock", 0, "doses on hand")
	cmd.Flags().IntVar(&lowStock, "low", 5, "low-stock threshold")
	return cmd
}

func deleteMedCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a medication and its reminder times",
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
			if err := repo.DeleteMedication(cmd.Context(), a.cfg.ChatID, id); err != nil {
				return fmt.Errorf("delete medication %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted medication #%d\n", id)
			return nil
		},
	}
}

func stockCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "stock ID COUNT",
		Short: "Set the number of doses on hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid count %q", args[1])
			}
			repo, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.SetStock(cmd.Context(), a.cfg.ChatID, id, n); err != nil {
				return fmt.Errorf("set stock for %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stock for #%d set to %d\n", id, n)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
