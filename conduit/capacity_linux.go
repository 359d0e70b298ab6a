//go:build linux

package conduit

import (
	"os"

	"golang.org/x/sys/unix"
)

// pipeSize asks the kernel for the pipe buffer size. It goes through
// SyscallConn so the descriptor stays in non-blocking mode; (*os.File).Fd
// would switch it to blocking and stop Close from waking blocked reads.
func pipeSize(f *os.File) (int, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var (
		size  int
		opErr error
	)
	if err := rc.Control(func(fd uintptr) {
		size, opErr = unix.FcntlInt(fd, unix.F_GETPIPE_SZ, 0)
	}); err != nil {
		return 0, err
	}
	return size, opErr
}
