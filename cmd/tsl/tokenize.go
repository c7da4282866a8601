package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tsl/internal/diag"
	"tsl/internal/diagfmt"
	"tsl/internal/lexer"
	"tsl/internal/source"
	"tsl/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file.tsl>",
	Short: "Dump the token stream of a shader source",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func runTokenize(cmd *cobra.Command, args []string) error {
	fs := source.NewFileSet()
	fileID, err := fs.Load(args[0])
	if err != nil {
		return err
	}
	file := fs.Get(fileID)

	reporter := diag.NewBagReporter(64)
	lx := lexer.New(file, lexer.Options{Reporter: reporter})

	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		lc, _ := fs.Resolve(tok.Span)
		fmt.Printf("%4d:%-3d %-14s %q\n", lc.Line, lc.Col, tok.Kind, tok.Text)
	}

	if reporter.Bag.Len() > 0 {
		diagfmt.Write(os.Stderr, fs, reporter.Bag, useColor(cmd))
	}
	if reporter.Bag.HasErrors() {
		return fmt.Errorf("tokenization produced errors")
	}
	return nil
}
