//go:build windows

package iosync

import (
	"os"

	"golang.org/x/sys/windows"
)

// sync uses FlushFileBuffers, Windows' durable-flush primitive.
func sync(f *os.File) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
