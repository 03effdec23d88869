package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Manage the attempt log",
}

var attemptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		includeDeleted, _ := cmd.Flags().GetBool("deleted")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		list, err := s.AttemptRepo().ListByUser(context.Background(), resolveUser(cmd))
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No attempts recorded yet.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-24s  %-9s  %-20s  %s\n",
			"ID", "Timestamp", "Problem", "Outcome", "Hints", "Note")
		fmt.Println(strings.Repeat("─", 120))
		for _, a := range list {
			if a.Deleted && !includeDeleted {
				continue
			}
			tiers := make([]string, len(a.HintsUsed))
			for i, t := range a.HintsUsed {
				tiers[i] = t.String()
			}
			problem := a.ProblemID
			if len(problem) > 24 {
				problem = problem[:24]
			}
			line := fmt.Sprintf("%-36s  %-19s  %-24s  %-9s  %-20s  %s",
				a.ID,
				a.Timestamp.Local().Format("2006-01-02 15:04:05"),
				problem,
				a.Outcome,
				strings.Join(tiers, ","),
				a.Note,
			)
			if a.Deleted {
				line += "  (deleted)"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var attemptsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Move an attempt to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		if err := s.AttemptRepo().SoftDelete(context.Background(), args[0]); err != nil {
			return fmt.Errorf("delete attempt: %w", err)
		}
		fmt.Printf("Attempt %s moved to trash. Restore with: solvenext attempts restore %s\n", args[0], args[0])
		return nil
	},
}

var attemptsRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a deleted attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		if err := s.AttemptRepo().Restore(context.Background(), args[0]); err != nil {
			return fmt.Errorf("restore attempt: %w", err)
		}
		fmt.Printf("Attempt %s restored.\n", args[0])
		return nil
	},
}

func init() {
	attemptsListCmd.Flags().Bool("deleted", false, "Include soft-deleted attempts")

	attemptsCmd.AddCommand(attemptsListCmd)
	attemptsCmd.AddCommand(attemptsDeleteCmd)
	attemptsCmd.AddCommand(attemptsRestoreCmd)
}
