//go:build unix

package diskio

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an advisory exclusive lock held for the lifetime of a
// FilePager, grounded in 7thCode-BPTree/internal/mmap/mmap.go's use of
// golang.org/x/sys/unix for raw file-descriptor operations.
type fileLock struct {
	fd int
}

func lockFile(f *os.File) (fileLock, error) {
	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return fileLock{}, err
	}
	return fileLock{fd: fd}, nil
}

func (l fileLock) Unlock() error {
	return unix.Flock(l.fd, unix.LOCK_UN)
}
