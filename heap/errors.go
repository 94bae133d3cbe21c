package heap

import (
	"errors"
)

var (
	ErrOutOfMemory = errors.New("heap: out of memory")
)
