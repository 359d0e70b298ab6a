//go:build !linux

package conduit

import (
	"errors"
	"os"
)

func pipeSize(*os.File) (int, error) {
	return 0, errors.ErrUnsupported
}
