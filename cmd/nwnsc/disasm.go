package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nwnsc/internal/disasm"
	"nwnsc/internal/ncs"
	"nwnsc/internal/ndb"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.ncs>",
	Short: "disassemble a compiled script into a readable listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func init() {
	disasmCmd.Flags().String("symbols", "", "path to a .ndb file to annotate the listing with (default: <file> with .ndb extension)")
}

func runDisasm(cmd *cobra.Command, args []string) error {
	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	code, err := ncs.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var symbols *ndb.Symbols
	symPath, _ := cmd.Flags().GetString("symbols")
	if symPath == "" {
		symPath = strings.TrimSuffix(path, ".ncs") + ".ndb"
	}
	if ndbRaw, err := os.ReadFile(symPath); err == nil {
		symbols, err = ndb.Parse(ndbRaw)
		if err != nil {
			return fmt.Errorf("%s: %w", symPath, err)
		}
	}

	listing, err := disasm.Listing(code, disasm.Options{Symbols: symbols, BaseAddr: uint32(ncs.HeaderLen)})
	if err != nil {
		fmt.Print(listing)
		return err
	}
	fmt.Print(listing)
	return nil
}
