package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/store"
)

var logCmd = &cobra.Command{
	Use:   "log <problem>",
	Short: "Record a problem attempt",
	Long: "Record an attempt at a problem. The problem may be a LeetCode ID,\n" +
		"title slug, or an ID already in the local catalog. Unknown problems\n" +
		"are looked up online and cached.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcomeFlag, _ := cmd.Flags().GetString("outcome")
		hintsFlag, _ := cmd.Flags().GetString("hints")
		note, _ := cmd.Flags().GetString("note")
		topicsFlag, _ := cmd.Flags().GetString("topics")
		difficultyFlag, _ := cmd.Flags().GetString("difficulty")
		offline, _ := cmd.Flags().GetBool("offline")

		outcome := attempts.Outcome(outcomeFlag)
		switch outcome {
		case attempts.OutcomeSolved, attempts.OutcomeFailed, attempts.OutcomeAbandoned:
		default:
			return fmt.Errorf("--outcome must be solved, failed or abandoned")
		}

		var hintsUsed []attempts.HintTier
		for _, label := range splitList(hintsFlag) {
			t := attempts.ParseTier(label)
			if t == attempts.TierNone {
				return fmt.Errorf("unknown hint tier %q (want concept, approach or implementation)", label)
			}
			hintsUsed = append(hintsUsed, t)
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()
		problem, err := lookupProblem(ctx, s, args[0], offline)
		if err != nil {
			return err
		}
		if topicsFlag != "" {
			problem.Topics = nil
			for _, t := range splitList(topicsFlag) {
				problem.Topics = append(problem.Topics, catalog.Topic(strings.ToLower(t)))
			}
		}
		if difficultyFlag != "" {
			d := catalog.ParseDifficulty(difficultyFlag)
			if d == "" {
				return fmt.Errorf("unknown difficulty %q", difficultyFlag)
			}
			problem.Difficulty = d
		}
		if len(problem.Topics) == 0 || problem.Difficulty == "" {
			return fmt.Errorf("problem %q needs --topics and --difficulty (not found in catalog)", args[0])
		}
		if err := s.ProblemRepo().Upsert(ctx, *problem); err != nil {
			return fmt.Errorf("save problem: %w", err)
		}

		a := attempts.Attempt{
			ID:         uuid.NewString(),
			UserID:     resolveUser(cmd),
			ProblemID:  problem.ID,
			Topics:     problem.Topics,
			Difficulty: problem.Difficulty,
			Outcome:    outcome,
			HintsUsed:  hintsUsed,
			Note:       note,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.AttemptRepo().Append(ctx, a); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}

		// A solved or abandoned attempt ends any open hint escalation.
		if outcome != attempts.OutcomeFailed {
			if err := s.HintSessionRepo().CloseOpen(ctx, a.UserID, a.ProblemID); err != nil {
				return fmt.Errorf("close hint session: %w", err)
			}
		}

		fmt.Printf("Recorded %s attempt on %s (%s)\n", outcome, problem.Title, problem.Difficulty)
		return nil
	},
}

func init() {
	logCmd.Flags().String("outcome", "", "Attempt outcome: solved, failed or abandoned (required)")
	logCmd.Flags().String("hints", "", "Comma-separated hint tiers used: concept,approach,implementation")
	logCmd.Flags().String("note", "", "Free-form note about the attempt")
	logCmd.Flags().String("topics", "", "Comma-separated topic tags (overrides catalog)")
	logCmd.Flags().String("difficulty", "", "Problem difficulty: Easy, Medium or Hard (overrides catalog)")
	logCmd.Flags().Bool("offline", false, "Never look the problem up online")
	_ = logCmd.MarkFlagRequired("outcome")
}

// lookupProblem resolves a problem reference against the local catalog
// first, then LeetCode unless offline. Unresolvable refs come back as a
// bare problem the caller must fill in.
func lookupProblem(ctx context.Context, s *store.Store, ref string, offline bool) (*catalog.Problem, error) {
	p, err := s.ProblemRepo().Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if p != nil {
		return p, nil
	}
	if !offline {
		client := catalog.NewLeetCodeClient()
		if remote, err := client.Resolve(ctx, ref); err == nil {
			return remote, nil
		}
	}
	return &catalog.Problem{ID: ref, Title: ref}, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
