package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bsmannschott/revisionist/pkg/dumpparser"
	"github.com/bsmannschott/revisionist/pkg/dumpwriter"
	"github.com/bsmannschott/revisionist/pkg/editor"
	"github.com/bsmannschott/revisionist/pkg/event"
	"github.com/bsmannschott/revisionist/pkg/normalize"
	"github.com/bsmannschott/revisionist/pkg/ordmap"
)

// editOp is one edit clause applied in order to a matched property's
// value: either a literal substring replacement or a line-break
// normalization.
type editOp struct {
	normalize bool
	old, new  string
}

// propertyClause is one --property PATTERN clause together with the
// edit clauses that follow it.
type propertyClause struct {
	pattern string
	ops     []editOp
}

// edit's grammar ("-p PATTERN (-r OLD NEW | -n)*") is positional and
// stateful - a -r or -n applies to whichever -p most recently opened
// a clause - which pflag's flag-value-slice model can't express
// faithfully. So this subcommand disables cobra's flag parsing and
// walks the raw argument list itself by hand.
func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [-p PATTERN [-r OLD NEW | -n] ...] ...",
		Short: "Rewrite matched properties of a dump file read from stdin",
		Long: `edit reads a dump file from stdin, applies edit clauses to every
revision and node property whose name matches a glob pattern, and
writes the result to stdout.

  revisionist edit -p svn:externals -r svn://old.com/ svn://new.com/ -n

applies, to every property named svn:externals, a literal substring
replacement followed by line-break normalization.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			clauses, err := parseEditClauses(args)
			if err != nil {
				return err
			}
			return runEdit(clauses)
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newEditCmd())
}

func parseEditClauses(args []string) ([]propertyClause, error) {
	var clauses []propertyClause
	i := 0
	for i < len(args) {
		switch args[i] {
		case "--property", "-p":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("revisionist edit: %s requires a property name pattern", args[i-1])
			}
			pattern := args[i]
			i++
			var ops []editOp
		editClauses:
			for i < len(args) {
				switch args[i] {
				case "--replace", "-r":
					if i+2 >= len(args) {
						return nil, fmt.Errorf("revisionist edit: %s requires an old and a new value", args[i])
					}
					ops = append(ops, editOp{old: args[i+1], new: args[i+2]})
					i += 3
				case "--normalize-line-breaks", "-n":
					ops = append(ops, editOp{normalize: true})
					i++
				default:
					break editClauses
				}
			}
			clauses = append(clauses, propertyClause{pattern: pattern, ops: ops})
		case "--verbose", "-v":
			// cobra does not parse the persistent flag here, since flag
			// parsing is disabled for this subcommand.
			verbose = true
			i++
		default:
			return nil, fmt.Errorf("revisionist edit: unexpected argument %q", args[i])
		}
	}
	return clauses, nil
}

func runEdit(clauses []propertyClause) error {
	propNames := make([]string, len(clauses))
	for i, c := range clauses {
		propNames[i] = c.pattern
	}

	p, err := dumpparser.New(os.Stdin)
	if err != nil {
		return fmt.Errorf("revisionist edit: %w", err)
	}

	var events event.Source = p
	if verbose {
		events = editor.EchoProperties(events, propNames, os.Stderr)
	}
	events = editor.EditProperties(events, func(props *ordmap.Map) error {
		return applyClauses(props, clauses)
	})
	if verbose {
		events = editor.EchoProperties(events, propNames, os.Stderr)
	}

	w := dumpwriter.New(os.Stdout)
	for {
		evt, err := events.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = w.Close()
			return fmt.Errorf("revisionist edit: %w", err)
		}
		if err := w.WriteEvent(evt); err != nil {
			_ = w.Close()
			return fmt.Errorf("revisionist edit: %w", err)
		}
	}
	return w.Close()
}

// applyClauses applies every clause whose pattern glob-matches a
// property name to that property's value, in clause order then
// op order, skipping deletion records (there is no value to edit).
func applyClauses(props *ordmap.Map, clauses []propertyClause) error {
	for _, key := range props.Keys() {
		if props.IsDeletionRecord(key) {
			continue
		}
		val, _ := props.GetString(key)
		changed := false
		for _, clause := range clauses {
			matched, err := filepath.Match(clause.pattern, key)
			if err != nil {
				return fmt.Errorf("revisionist edit: pattern %q: %w", clause.pattern, err)
			}
			if !matched {
				continue
			}
			for _, op := range clause.ops {
				if op.normalize {
					val = string(normalize.Bytes([]byte(val)))
				} else {
					val = strings.ReplaceAll(val, op.old, op.new)
				}
			}
			changed = true
		}
		if changed {
			props.SetString(key, val)
		}
	}
	return nil
}
