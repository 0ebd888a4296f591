//go:build linux

package launch

import (
	"os"
	"syscall"
)

// sockFile wraps one parent-side end of a connected stream socket pair
// (§4.3: "uses connected stream socket pairs (not pipes) because the I/O
// pump requires bidirectional endpoints"). It layers write-half shutdown
// and nonblocking-mode setup on top of *os.File, which already gives us
// Read/Write/Close over the raw descriptor.
type sockFile struct {
	*os.File
	fd int
}

func newSockFile(fd int, name string) (*sockFile, error) {
	if err := syscall.SetNonblock(fd, true); err != nil {
		return nil, err
	}
	return &sockFile{File: os.NewFile(uintptr(fd), name), fd: fd}, nil
}

// ShutdownWrite shuts down the write half so the child observes EOF on its
// next read (§4.4 "Writable-on-P0 ... shut down the write half of P0").
func (s *sockFile) ShutdownWrite() error {
	return syscall.Shutdown(s.fd, syscall.SHUT_WR)
}

// rawFd returns the descriptor we stashed at creation time. os.File.Fd()
// forces the descriptor back into blocking mode before returning it, which
// we must not do here since the pump relies on nonblocking reads.
func (s *sockFile) rawFd() int { return s.fd }
