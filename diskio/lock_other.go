//go:build !unix

package diskio

import "os"

// fileLock is a no-op on non-unix platforms; golang.org/x/sys/unix has
// no portable equivalent there.
type fileLock struct{}

func lockFile(f *os.File) (fileLock, error) { return fileLock{}, nil }

func (fileLock) Unlock() error { return nil }
