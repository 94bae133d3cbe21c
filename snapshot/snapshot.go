// Package snapshot saves the canonical strings of a table and interns them
// back into another table, the way a runtime warms its string table from a
// startup snapshot.
//
// The stream is snappy framed. Inside it: the magic, the string count,
// then every string as a length-prefixed byte run, all lengths uvarint.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/stringtable"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	magic = "STRTAB\x01\n"

	// longer strings are refused as corrupt
	maxStringLength = 1 << 28

	// table growth reserved up front, the rest grows as strings arrive
	maxPrealloc = 1 << 20
)

var (
	ErrBadMagic = errors.New("snapshot: bad magic")
	ErrCorrupt  = errors.New("snapshot: corrupt")
)

// Write stores every canonical string of t in content order and returns
// how many there were.
func Write(w io.Writer, t *stringtable.StringTable) (int, error) {
	var contents []string
	t.ForEach(func(s *heap.String) {
		contents = append(contents, s.String())
	})
	sort.Strings(contents)

	zw := snappy.NewBufferedWriter(w)
	buf := make([]byte, 0, 64)
	buf = append(buf, magic...)
	buf = binary.AppendUvarint(buf, uint64(len(contents)))
	if _, err := zw.Write(buf); err != nil {
		return 0, errors.WithStack(err)
	}

	for _, c := range contents {
		buf = binary.AppendUvarint(buf[:0], uint64(len(c)))
		buf = append(buf, c...)
		if _, err := zw.Write(buf); err != nil {
			return 0, errors.WithStack(err)
		}
	}

	if err := zw.Close(); err != nil {
		return 0, errors.WithStack(err)
	}

	log.Debugf("snapshot: wrote %d strings", len(contents))
	return len(contents), nil
}

// Load interns every string of the snapshot into t. Strings already in t
// keep their canonical object. It returns the number of strings read.
func Load(r io.Reader, t *stringtable.StringTable, alloc stringtable.Allocator) (int, error) {
	br := bufio.NewReader(snappy.NewReader(r))

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil {
		return 0, errors.Wrap(ErrBadMagic, err.Error())
	}
	if string(head) != magic {
		return 0, errors.WithStack(ErrBadMagic)
	}

	count, err := binary.ReadUvarint(br)
	if err != nil {
		return 0, errors.Wrap(ErrCorrupt, err.Error())
	}

	if count <= maxPrealloc {
		t.EnsureCapacity(int(count))
	} else {
		t.EnsureCapacity(maxPrealloc)
	}

	var content []byte
	for i := uint64(0); i < count; i++ {
		n, err := binary.ReadUvarint(br)
		if err != nil {
			return int(i), errors.Wrapf(ErrCorrupt, "string %d: %v", i, err)
		}
		if n > maxStringLength {
			return int(i), errors.Wrapf(ErrCorrupt, "string %d: length %d", i, n)
		}

		if uint64(cap(content)) < n {
			content = make([]byte, n)
		}
		content = content[:n]
		if _, err = io.ReadFull(br, content); err != nil {
			return int(i), errors.Wrapf(ErrCorrupt, "string %d: %v", i, err)
		}

		if _, err = t.LookupKey(stringtable.NewBytesKey(alloc, content)); err != nil {
			return int(i), err
		}
	}

	log.Debugf("snapshot: loaded %d strings", count)
	return int(count), nil
}
