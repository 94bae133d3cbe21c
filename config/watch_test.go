package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestWatchReloads(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "strtab.cf")
	assert.Equal(t, nil, ioutil.WriteFile(fn, []byte(`{"loglevel": "info"}`), 0644))
	LoadConfig(fn)
	assert.Equal(t, "info", LogLevel())

	changed := make(chan string, 8)
	w, err := Watch(fn, func() {
		changed <- LogLevel()
	})
	assert.Equal(t, nil, err)
	defer w.Close()

	// broken content is ignored
	assert.Equal(t, nil, ioutil.WriteFile(fn, []byte(`{"table": `), 0644))
	assert.Equal(t, nil, ioutil.WriteFile(fn, []byte(`{"loglevel": "trace"}`), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case level := <-changed:
			if level == "trace" {
				return
			}

		case <-deadline:
			t.Fatalf("no reload, level %s", LogLevel())
		}
	}
}

func TestWatchMissingDir(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "nope", "strtab.cf"), nil)
	assert.NotEqual(t, nil, err)
}
