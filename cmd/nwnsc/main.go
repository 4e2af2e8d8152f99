// Command nwnsc compiles NWScript source (.nss) to compiled script
// bytecode (.ncs), optionally with a debug-symbols file (.ndb), and can
// disassemble a compiled script back to a readable listing.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nwnsc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "nwnsc",
	Short: "NWScript compiler and disassembler",
	Long:  "nwnsc compiles NWScript source to compiled bytecode and can disassemble it back to a readable listing.",
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress per-file success lines")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command, out *os.File) bool {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		mode = "auto"
	}
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(out)
	}
}
