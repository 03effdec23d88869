package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release build time.
var (
	version = "(devel)"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("solvenext %s", version)
		if commit != "" {
			fmt.Printf(" (%s)", commit)
		}
		fmt.Printf(" %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
