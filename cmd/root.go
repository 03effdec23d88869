package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noooah2000/solve-next/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "solvenext",
	Short: "Adaptive practice recommendations for coding problems",
	Long: "SolveNext tracks your problem-solving attempts, estimates per-topic\n" +
		"proficiency, and recommends what to solve next. Progressive hints are\n" +
		"available per problem, escalating from concept to implementation.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if strings.EqualFold(os.Getenv("SOLVENEXT_LOG"), "debug") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SOLVENEXT_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User ID (overrides SOLVENEXT_USER env var, default \"default\")")

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(hintCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SOLVENEXT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolveUser returns the acting user ID from --user, SOLVENEXT_USER, or
// the single-user default.
func resolveUser(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	if u := os.Getenv("SOLVENEXT_USER"); u != "" {
		return u
	}
	return "default"
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
