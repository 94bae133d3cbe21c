package config

import (
	"io/ioutil"
	"sync"
	"time"

	"github.com/funkygao/strtab/collector"
	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/stringtable"
	"github.com/hjson/hjson-go/v4"
	"github.com/pkg/errors"
)

var (
	ErrInvalidDuration = errors.New("Invalid duration")
)

var (
	confMu sync.RWMutex
	conf   *config
)

func current() *config {
	confMu.RLock()
	defer confMu.RUnlock()
	if conf == nil {
		panic("call LoadConfig before this")
	}
	return conf
}

func swap(c *config) {
	confMu.Lock()
	conf = c
	confMu.Unlock()
}

func LogLevel() string {
	return current().logLevel
}

func ReportInterval() time.Duration {
	return current().reportInterval
}

// Table returns a copy of the string table section, safe to modify.
func Table() *stringtable.Config {
	c := *current().table
	return &c
}

func Heap() *heap.Config {
	c := *current().heap
	return &c
}

func Collector() *collector.Config {
	c := *current().collector
	return &c
}

type config struct {
	logLevel       string
	reportInterval time.Duration
	table          *stringtable.Config
	heap           *heap.Config
	collector      *collector.Config
}

// file mirrors the on-disk layout. Sections absent from the file keep
// their defaults.
type file struct {
	LogLevel       string `json:"loglevel"`
	ReportInterval string `json:"report_interval"`

	Table struct {
		InitialCapacity int     `json:"initial_capacity"`
		MinCapacity     int     `json:"min_capacity"`
		MaxLoadFactor   float64 `json:"max_load_factor"`
		GrowthFactor    int     `json:"growth_factor"`
	} `json:"table"`

	Heap struct {
		Limit int64 `json:"limit"`
	} `json:"heap"`

	Collector struct {
		Compact   bool   `json:"compact"`
		SlowPause string `json:"slow_pause"`
	} `json:"collector"`
}

func defaultFile() *file {
	f := &file{
		LogLevel:       "info",
		ReportInterval: "1m",
	}

	t := stringtable.DefaultConfig()
	f.Table.InitialCapacity = t.InitialCapacity
	f.Table.MinCapacity = t.MinCapacity
	f.Table.MaxLoadFactor = t.MaxLoadFactor
	f.Table.GrowthFactor = t.GrowthFactor

	f.Heap.Limit = heap.DefaultConfig().Limit

	c := collector.DefaultConfig()
	f.Collector.Compact = c.Compact
	f.Collector.SlowPause = c.SlowPause.String()
	return f
}

func parseDuration(what, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidDuration, "%s: %s", what, err)
	}

	return d, nil
}

// parse decodes an Hjson document. Every section is validated.
func parse(data []byte) (*config, error) {
	f := defaultFile()
	if err := hjson.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "hjson")
	}

	c := &config{
		logLevel:  f.LogLevel,
		table:     stringtable.DefaultConfig(),
		heap:      heap.DefaultConfig(),
		collector: collector.DefaultConfig(),
	}

	var err error
	if c.reportInterval, err = parseDuration("report_interval", f.ReportInterval); err != nil {
		return nil, err
	}
	if c.collector.SlowPause, err = parseDuration("collector.slow_pause", f.Collector.SlowPause); err != nil {
		return nil, err
	}

	c.table.InitialCapacity = f.Table.InitialCapacity
	c.table.MinCapacity = f.Table.MinCapacity
	c.table.MaxLoadFactor = f.Table.MaxLoadFactor
	c.table.GrowthFactor = f.Table.GrowthFactor
	c.heap.Limit = f.Heap.Limit
	c.collector.Compact = f.Collector.Compact

	if err = c.table.Validate(); err != nil {
		return nil, errors.Wrap(err, "table")
	}
	if err = c.heap.Validate(); err != nil {
		return nil, errors.Wrap(err, "heap")
	}
	if err = c.collector.Validate(); err != nil {
		return nil, errors.Wrap(err, "collector")
	}

	return c, nil
}

// LoadConfig loads fn into the package config. It panics on any error.
func LoadConfig(fn string) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		panic(err)
	}

	c, err := parse(data)
	if err != nil {
		panic(errors.Wrap(err, fn))
	}

	swap(c)
}

// reload is LoadConfig without the panic. The loaded config is kept on error.
func reload(fn string) error {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return errors.WithStack(err)
	}

	c, err := parse(data)
	if err != nil {
		return errors.Wrap(err, fn)
	}

	swap(c)
	return nil
}
