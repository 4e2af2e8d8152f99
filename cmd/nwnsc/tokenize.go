package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file.nss>",
	Short: "print the raw token stream of a source file, ignoring #include/#define",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().Int("engine", 174, "NWScript engine version selector (169 or 174)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	engine, _ := cmd.Flags().GetInt("engine")
	version := lexer.Version174
	if engine == 169 {
		version = lexer.Version169
	}

	fs := source.NewFileSet()
	file := fs.Get(fs.Add(path, data, 0))
	diags := diag.NewBag(0)
	lx := lexer.New(file, lexer.Options{Version: version}, diags)

	for {
		tok, atLineStart := lx.Next()
		pos := fs.Position(file.ID, tok.Span.Start)
		marker := ""
		if atLineStart {
			marker = "^"
		}
		fmt.Printf("%4d:%-3d %-14s %s%s\n", pos.Line, pos.Col, tok.Kind, marker, tok.Text)
		if tok.Kind == token.EOF {
			break
		}
	}

	reporter := diag.NewTextReporter(os.Stdout, fs)
	reporter.Color = useColor(cmd, os.Stdout)
	for _, d := range diags.Items() {
		reporter.Report(d)
	}
	return nil
}
