//go:build linux

package file

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential asks for aggressive read-ahead. Failures are ignored; the
// hint only affects throughput.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
