package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set by main from linker flags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion records the build information printed by the version command.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
	rootCmd.Version = v
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print glyphterm version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "glyphterm %s (commit %s, built %s, %s)\n", version, commit, date, runtime.Version())
	},
}
