// Command revisionist edits, validates, and pretty-prints Subversion
// dump files (format versions 2 and 3) as a streaming pipeline of
// parse events.
package main

func main() {
	execute()
}
