package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "revisionist",
	Short: "Edit, validate, and inspect Subversion dump files",
	Long: `revisionist reads a Subversion dump file (format version 2 or 3)
as a stream of parse events, optionally edits revision and node
properties, and re-serializes the result - without ever materializing
the whole file in memory.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "echo matched properties to stderr as they pass through")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
