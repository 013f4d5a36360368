package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bsmannschott/revisionist/pkg/dumpparser"
	"github.com/bsmannschott/revisionist/pkg/event"
)

var dumpShowProps bool

// newDumpCmd pretty-prints the parse-event stream for human
// inspection without re-serializing it, a read-only counterpart to
// the edit subcommand.
func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Pretty-print the parse-event stream of a dump file read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump()
		},
	}
	cmd.Flags().BoolVar(&dumpShowProps, "props", false, "also print user property names and values")
	return cmd
}

func init() {
	rootCmd.AddCommand(newDumpCmd())
}

func runDump() error {
	p, err := dumpparser.New(os.Stdin)
	if err != nil {
		return fmt.Errorf("revisionist dump: %w", err)
	}

	for {
		evt, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("revisionist dump: %w", err)
		}
		printEvent(evt)
	}
	return nil
}

func printEvent(evt event.Event) {
	switch evt.Kind {
	case event.BeginDumpfile:
		uuid := "(none)"
		if evt.UUID != nil {
			uuid = *evt.UUID
		}
		fmt.Printf("dumpfile version=%d uuid=%s\n", evt.Version, uuid)
	case event.BeginRevision:
		rev, _ := evt.Props.GetString("Revision-number")
		fmt.Printf("  revision %s\n", rev)
	case event.BeginNode:
		path, _ := evt.Props.GetString("Node-path")
		kind, _ := evt.Props.GetString("Node-kind")
		action, _ := evt.Props.GetString("Node-action")
		fmt.Printf("    node %s kind=%s action=%s\n", path, kind, action)
	case event.UserProperties:
		if !dumpShowProps {
			return
		}
		for _, k := range evt.Props.Keys() {
			if evt.Props.IsDeletionRecord(k) {
				fmt.Printf("      property %s = (deleted)\n", k)
				continue
			}
			v, _ := evt.Props.GetString(k)
			fmt.Printf("      property %s = %q\n", k, v)
		}
	case event.TextContent:
		fmt.Printf("      text (%d bytes)\n", len(evt.Text))
	}
}
