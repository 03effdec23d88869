package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/hints"
)

var hintCmd = &cobra.Command{
	Use:   "hint <problem>",
	Short: "Request the next hint for a problem",
	Long: "Request a progressive hint. Hints escalate concept, approach,\n" +
		"implementation; each later tier unlocks after you have spent time\n" +
		"with the previous one or failed another attempt. Re-requesting an\n" +
		"unlocked tier shows it again without regenerating.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tierFlag, _ := cmd.Flags().GetString("tier")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		svc, err := newRecommendService(s)
		if err != nil {
			return err
		}
		ctx := context.Background()
		ctrl, err := newHintController(ctx, s, svc)
		if err != nil {
			return err
		}

		userID := resolveUser(cmd)
		problemID := args[0]
		var unlock *hints.Unlock
		if tierFlag == "" {
			unlock, err = ctrl.RequestNext(ctx, userID, problemID)
		} else {
			tier := attempts.ParseTier(tierFlag)
			if tier == attempts.TierNone {
				return fmt.Errorf("unknown tier %q (want concept, approach or implementation)", tierFlag)
			}
			unlock, err = ctrl.RequestTier(ctx, userID, problemID, tier)
		}
		if err != nil {
			var notReady *hints.ErrHintNotReady
			if errors.As(err, &notReady) {
				fmt.Println(notReady.Error())
				return nil
			}
			return err
		}

		label := unlock.Tier.String()
		if unlock.Cached {
			label += " (shown earlier)"
		}
		fmt.Printf("[%s]\n%s\n", label, unlock.Content)
		return nil
	},
}

func init() {
	hintCmd.Flags().String("tier", "", "Request a specific tier instead of the next one")
}
