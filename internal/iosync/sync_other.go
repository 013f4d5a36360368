//go:build !linux && !freebsd && !darwin && !windows

package iosync

import "os"

// sync falls back to the portable os.File.Sync on platforms without
// a stronger primitive wired up above.
func sync(f *os.File) error {
	return f.Sync()
}
