//go:build linux || freebsd

package iosync

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync is sufficient on Linux/FreeBSD: it guarantees file
// content (though not necessarily metadata like mtime) reaches disk.
func sync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
