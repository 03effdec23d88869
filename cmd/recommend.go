package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/recommend"
	"github.com/noooah2000/solve-next/internal/store"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend problems to solve next",
	RunE: func(cmd *cobra.Command, args []string) error {
		topicsFlag, _ := cmd.Flags().GetString("topics")
		difficultyFlag, _ := cmd.Flags().GetString("difficulty")
		companiesFlag, _ := cmd.Flags().GetString("companies")
		limit, _ := cmd.Flags().GetInt("limit")
		excludeDays, _ := cmd.Flags().GetInt("exclude-recent")
		explain, _ := cmd.Flags().GetBool("explain")

		req := recommend.Request{
			UserID:            resolveUser(cmd),
			Limit:             limit,
			ExcludeRecentDays: excludeDays,
		}
		for _, t := range splitList(topicsFlag) {
			req.Filters.Topics = append(req.Filters.Topics, catalog.Topic(strings.ToLower(t)))
		}
		for _, d := range splitList(difficultyFlag) {
			parsed := catalog.ParseDifficulty(d)
			if parsed == "" {
				return fmt.Errorf("unknown difficulty %q", d)
			}
			req.Filters.Difficulties = append(req.Filters.Difficulties, parsed)
		}
		req.Filters.Companies = splitList(companiesFlag)

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
		ranked, relaxed, err := svc.Recommend(ctx, req)
		if err != nil {
			return fmt.Errorf("compute recommendations: %w", err)
		}
		if len(ranked) == 0 {
			fmt.Println("No problems in the catalog match. Log some attempts or loosen the filters.")
			return nil
		}

		if relaxed.Any() {
			var dropped []string
			if relaxed.Company {
				dropped = append(dropped, "company")
			}
			if relaxed.Difficulty {
				dropped = append(dropped, "difficulty")
			}
			if relaxed.Topic {
				dropped = append(dropped, "topic")
			}
			fmt.Printf("Note: no exact matches; relaxed %s filters.\n\n", strings.Join(dropped, ", "))
		}

		for i, rc := range ranked {
			fmt.Printf("%2d. %s (%s)  score %.3f\n", i+1, rc.Problem.Title, rc.Problem.Difficulty, rc.Score)
			fmt.Printf("    gap %.3f  novelty %.3f  match %.3f\n",
				rc.ContributingFactors[recommend.FactorGap],
				rc.ContributingFactors[recommend.FactorNovelty],
				rc.ContributingFactors[recommend.FactorMatch])
			if rc.Problem.URL != "" {
				fmt.Printf("    %s\n", rc.Problem.URL)
			}
			if explain && i == 0 {
				fmt.Printf("    why: %s\n", rationaleFor(ctx, s, rc))
			}
		}
		return nil
	},
}

// rationaleFor asks the generator for rationale text, falling back to
// the deterministic factor summary when unavailable.
func rationaleFor(ctx context.Context, s *store.Store, rc recommend.RankedCandidate) string {
	p, _, err := newProvider(ctx, s)
	if err != nil {
		return recommend.FallbackRationale(rc)
	}
	text, err := recommend.NewExplainer(p, 0).Explain(ctx, rc)
	if err != nil {
		return recommend.FallbackRationale(rc)
	}
	return text
}

func init() {
	recommendCmd.Flags().String("topics", "", "Comma-separated topic filters")
	recommendCmd.Flags().String("difficulty", "", "Comma-separated difficulty filters (Easy, Medium, Hard)")
	recommendCmd.Flags().String("companies", "", "Comma-separated company tag filters")
	recommendCmd.Flags().Int("limit", 10, "Maximum number of recommendations")
	recommendCmd.Flags().Int("exclude-recent", 30, "Exclude problems solved within this many days (0 disables)")
	recommendCmd.Flags().Bool("explain", false, "Generate a rationale for the top pick")
}
