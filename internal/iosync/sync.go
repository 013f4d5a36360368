// Package iosync durably flushes an *os.File before the dump-file
// writer closes it, using the strongest per-platform "sync this file
// descriptor durably" primitive available (fdatasync, F_FULLFSYNC, or
// FlushFileBuffers).
package iosync

import "os"

// Sync durably flushes f to disk, using the strongest durability
// primitive available on the current platform.
func Sync(f *os.File) error {
	return sync(f)
}
