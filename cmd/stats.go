package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noooah2000/solve-next/internal/proficiency"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show proficiency estimates per topic and difficulty",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		svc, err := newRecommendService(s)
		if err != nil {
			return err
		}

		userID := resolveUser(cmd)
		profs, err := svc.ProficiencySnapshot(context.Background(), userID)
		if err != nil {
			return fmt.Errorf("estimate proficiency: %w", err)
		}
		if len(profs) == 0 {
			fmt.Println("No attempts recorded yet. Log one with: solvenext log <problem> --outcome solved")
			return nil
		}

		keys := make([]proficiency.Key, 0, len(profs))
		for k := range profs {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Topic != keys[j].Topic {
				return keys[i].Topic < keys[j].Topic
			}
			return keys[i].Difficulty < keys[j].Difficulty
		})

		fmt.Printf("Proficiency for %s\n", userID)
		fmt.Println(strings.Repeat("─", 64))
		fmt.Printf("%-24s  %-8s  %-22s  %s\n", "Topic", "Level", "Score", "Samples")
		fmt.Println(strings.Repeat("─", 64))
		for _, k := range keys {
			p := profs[k]
			fmt.Printf("%-24s  %-8s  %-22s  %d\n", k.Topic, k.Difficulty, bar(p.Score), p.SampleCount)
		}
		return nil
	},
}

// bar renders a score as a 16-cell gauge plus the numeric value.
func bar(score float64) string {
	const cells = 16
	filled := int(score*cells + 0.5)
	if filled > cells {
		filled = cells
	}
	return fmt.Sprintf("%s%s %.2f",
		strings.Repeat("█", filled),
		strings.Repeat("░", cells-filled),
		score)
}
