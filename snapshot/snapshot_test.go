package snapshot

import (
	"bytes"
	"io/ioutil"
	"strconv"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/stringtable"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetOutput(ioutil.Discard)
}

func TestWriteThenLoad(t *testing.T) {
	h := heap.New(heap.DefaultConfig())
	src := stringtable.New(stringtable.DefaultConfig())
	for i := 0; i < 500; i++ {
		src.LookupKey(stringtable.NewBytesKey(h, []byte("name"+strconv.Itoa(i))))
	}
	// an index spelling only gets here through LookupKey
	src.LookupKey(stringtable.NewBytesKey(h, []byte("42")))
	src.LookupKey(stringtable.NewBytesKey(h, nil))

	var buf bytes.Buffer
	n, err := Write(&buf, src)
	assert.Equal(t, nil, err)
	assert.Equal(t, 502, n)

	dst := stringtable.New(stringtable.DefaultConfig())
	h2 := heap.New(heap.DefaultConfig())
	existing, _ := dst.LookupKey(stringtable.NewBytesKey(h2, []byte("name7")))

	n, err = Load(bytes.NewReader(buf.Bytes()), dst, h2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 502, n)
	assert.Equal(t, 502, dst.NumberOfElements())

	s, ok := dst.LookupExisting(stringtable.NewBytesKey(h2, []byte("name7")))
	assert.Equal(t, true, ok)
	assert.T(t, s == existing)

	_, ok = dst.LookupExisting(stringtable.NewBytesKey(h2, []byte("42")))
	assert.Equal(t, true, ok)
	_, ok = dst.LookupExisting(stringtable.NewBytesKey(h2, []byte("")))
	assert.Equal(t, true, ok)
}

func TestLoadRejectsGarbage(t *testing.T) {
	h := heap.New(heap.DefaultConfig())
	tab := stringtable.New(stringtable.DefaultConfig())

	var buf bytes.Buffer
	zw := snappy.NewBufferedWriter(&buf)
	zw.Write([]byte("NOTATABLE"))
	zw.Close()
	_, err := Load(&buf, tab, h)
	assert.Equal(t, ErrBadMagic, errors.Cause(err))

	// claims two strings, carries one
	buf.Reset()
	zw = snappy.NewBufferedWriter(&buf)
	zw.Write([]byte(magic + "\x02\x03abc"))
	zw.Close()
	n, err := Load(&buf, tab, h)
	assert.Equal(t, ErrCorrupt, errors.Cause(err))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, tab.NumberOfElements())
}

func TestLoadPropagatesOutOfMemory(t *testing.T) {
	h := heap.New(heap.DefaultConfig())
	src := stringtable.New(stringtable.DefaultConfig())
	src.LookupKey(stringtable.NewBytesKey(h, []byte("a rather long string that will not fit")))

	var buf bytes.Buffer
	_, err := Write(&buf, src)
	assert.Equal(t, nil, err)

	tiny := heap.New(&heap.Config{Limit: 50})
	_, err = Load(&buf, stringtable.New(stringtable.DefaultConfig()), tiny)
	assert.Equal(t, heap.ErrOutOfMemory, errors.Cause(err))
}
