package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bsmannschott/revisionist/pkg/dumpparser"
	"github.com/bsmannschott/revisionist/pkg/event"
)

var validateFile string

// newValidateCmd is a thin convenience wrapper exercising dumpparser
// alone for its side effect: if nothing goes wrong, the input is a
// well-formed dump file.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse a dump file and report whether it is well-formed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate()
		},
	}
	cmd.Flags().StringVar(&validateFile, "file", "", "read from this path instead of stdin")
	return cmd
}

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func runValidate() error {
	src := io.Reader(os.Stdin)
	if validateFile != "" {
		f, err := os.Open(validateFile)
		if err != nil {
			return fmt.Errorf("revisionist validate: %w", err)
		}
		defer f.Close()
		src = f
	}

	p, err := dumpparser.New(src)
	if err != nil {
		return fmt.Errorf("revisionist validate: %w", err)
	}

	revisions, nodes := 0, 0
	for {
		evt, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("revisionist validate: invalid dump file: %w", err)
		}
		switch evt.Kind {
		case event.BeginRevision:
			revisions++
		case event.BeginNode:
			nodes++
		}
	}
	fmt.Fprintf(os.Stdout, "OK: %d revision(s), %d node(s)\n", revisions, nodes)
	return nil
}
