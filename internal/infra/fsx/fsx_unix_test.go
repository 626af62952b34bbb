//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestRename_EXDEVBecomesCrossDeviceError(t *testing.T) {
	orig := renameFunc
	renameFunc = func(src, dst string) error {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: syscall.EXDEV}
	}
	t.Cleanup(func() { renameFunc = orig })

	err := Rename(filepath.Join(t.TempDir(), "a"), filepath.Join(t.TempDir(), "b"))
	if !IsCrossDevice(err) {
		t.Fatalf("期望 CrossDeviceError，实际 %v", err)
	}
}
