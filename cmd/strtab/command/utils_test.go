package command

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/funkygao/strtab/stringtable"
	"github.com/pkg/errors"
)

func writeTemp(t *testing.T, content string) string {
	fn := filepath.Join(t.TempDir(), "words.txt")
	assert.Equal(t, nil, ioutil.WriteFile(fn, []byte(content), 0644))
	return fn
}

func TestScanWords(t *testing.T) {
	fn := writeTemp(t, "alpha beta\n\tgamma  42\n")

	var words []string
	err := scanWords([]string{fn}, nil, func(w []byte) error {
		words = append(words, string(w))
		return nil
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma", "42"}, words)

	words = words[:0]
	err = scanWords(nil, strings.NewReader("x y"), func(w []byte) error {
		words = append(words, string(w))
		return nil
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"x", "y"}, words)

	err = scanWords([]string{filepath.Join(t.TempDir(), "missing")}, nil, func([]byte) error { return nil })
	assert.T(t, os.IsNotExist(errors.Cause(err)))
}

func TestStackIntern(t *testing.T) {
	s := newStack("")

	r, err := s.intern([]byte("42"), false)
	assert.Equal(t, nil, err)
	assert.Equal(t, stringtable.Index, r.Kind)

	r, err = s.intern([]byte("42"), true)
	assert.Equal(t, nil, err)
	assert.Equal(t, stringtable.Canonical, r.Kind)
	assert.Equal(t, "42", r.String.String())

	again, _ := s.intern([]byte("42"), true)
	assert.T(t, again.String == r.String)
	assert.Equal(t, 1, s.table.NumberOfElements())
}

func TestStackFromConfigFile(t *testing.T) {
	s := newStack("../../../etc/strtab.cf")
	assert.Equal(t, "debug", s.logLevel)
	assert.Equal(t, 1024, s.table.Capacity())
}

func TestStressKey(t *testing.T) {
	assert.Equal(t, "30", stressKey(30))
	assert.Equal(t, "key-31", stressKey(31))
}
