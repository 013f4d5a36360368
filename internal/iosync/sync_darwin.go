//go:build darwin

package iosync

import (
	"os"

	"golang.org/x/sys/unix"
)

// sync uses F_FULLFSYNC, the only macOS primitive that survives a
// power loss rather than just a process crash; plain fsync on APFS/
// HFS+ can return before the drive has actually persisted the data.
func sync(f *os.File) error {
	_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
	if err != nil {
		return f.Sync()
	}
	return nil
}
