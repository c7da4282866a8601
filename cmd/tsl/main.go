package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tsl/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tsl",
	Short: "Tiny Shading Language compiler and toolchain",
	Long:  `tsl compiles Tiny Shading Language shaders to native code and links shader groups`,
}

// main initializes the CLI: version, subcommands, persistent flags.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color tri-state against the output terminal.
func useColor(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
