package stringtable

import (
	"errors"
)

var (
	ErrHashNotComputed = errors.New("stringtable: lookup key hash field not computed")
	ErrHashMismatch    = errors.New("stringtable: canonical string hash differs from its key")
	ErrTableFull       = errors.New("stringtable: no free slot on probe sequence")
)
