package command

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/funkygao/strtab/collector"
	"github.com/funkygao/strtab/config"
	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/safepoint"
	"github.com/funkygao/strtab/snapshot"
	"github.com/funkygao/strtab/stringtable"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
)

// stack is one heap with its string table, collector and metrics.
type stack struct {
	registry metrics.Registry
	heap     *heap.Heap
	table    *stringtable.StringTable
	coord    *safepoint.Coordinator
	roots    *collector.Roots
	gc       *collector.Collector

	logLevel       string
	reportInterval time.Duration
}

// newStack builds a stack from the config file, or from defaults if
// confFile is empty.
func newStack(confFile string) *stack {
	s := &stack{
		registry:       metrics.NewRegistry(),
		coord:          safepoint.New(),
		roots:          collector.NewRoots(),
		logLevel:       "info",
		reportInterval: 10 * time.Second,
	}

	tableCfg := stringtable.DefaultConfig()
	heapCfg := heap.DefaultConfig()
	gcCfg := collector.DefaultConfig()
	if confFile != "" {
		config.LoadConfig(confFile)
		tableCfg, heapCfg, gcCfg = config.Table(), config.Heap(), config.Collector()
		s.logLevel = config.LogLevel()
		s.reportInterval = config.ReportInterval()
	}

	tableCfg.Registry = s.registry
	s.heap = heap.New(heapCfg)
	s.table = stringtable.New(tableCfg)
	s.gc = collector.New(gcCfg, s.heap, s.table, s.coord, s.roots, s.registry)
	return s
}

// intern resolves one word, through the index fast path unless noIndex.
func (s *stack) intern(word []byte, noIndex bool) (stringtable.Result, error) {
	if !noIndex {
		return s.table.Internalize(s.heap, word)
	}

	str, err := s.table.LookupKey(stringtable.NewBytesKey(s.heap, word))
	if err != nil {
		return stringtable.Result{}, err
	}

	return stringtable.Result{Kind: stringtable.Canonical, String: str}, nil
}

// save writes a snapshot of the table to fn.
func (s *stack) save(fn string) (int, error) {
	f, err := os.Create(fn)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	n, err := snapshot.Write(f, s.table)
	if err != nil {
		f.Close()
		return n, errors.Wrap(err, fn)
	}

	return n, errors.WithStack(f.Close())
}

// load interns every string of the snapshot fn. Nothing gets rooted.
func (s *stack) load(fn string) (int, error) {
	f, err := os.Open(fn)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer f.Close()

	n, err := snapshot.Load(f, s.table, s.heap)
	return n, errors.Wrap(err, fn)
}

// scanWords calls fn with every whitespace separated word of the files,
// or of stdin if there are none. The word is only valid during fn.
func scanWords(paths []string, stdin io.Reader, fn func(word []byte) error) error {
	if len(paths) == 0 {
		return scanReader(stdin, fn)
	}

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return errors.WithStack(err)
		}

		err = scanReader(f, fn)
		f.Close()
		if err != nil {
			return errors.Wrap(err, p)
		}
	}

	return nil
}

func scanReader(r io.Reader, fn func(word []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	return scanner.Err()
}
