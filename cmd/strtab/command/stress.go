package command

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/eapache/go-resiliency/retrier"
	"github.com/funkygao/strtab/collector"
	"github.com/funkygao/strtab/config"
	"github.com/funkygao/strtab/diagnostics/agent"
	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/stringtable"
	"github.com/funkygao/strtab/telemetry"
	"github.com/funkygao/strtab/telemetry/console"
	"github.com/funkygao/strtab/telemetry/influxdb"
	"github.com/mitchellh/cli"
	"github.com/olekukonko/tablewriter"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/ryanuber/columnize"
	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

type Stress struct {
	Ui  cli.Ui
	Cmd string

	confFile  string
	logFile   string
	workers   int
	keys      int
	ops       int
	rootRate  int
	gcEvery   time.Duration
	retries   int
	report    bool
	watch     bool
	pprof     string
	influx    string
	influxDb  string
	perWorker bool

	runId string
	retry *retrier.Retrier
}

// workerStats is what one mutator goroutine did.
type workerStats struct {
	handles  []*collector.Handle
	ops      int
	rooted   int
	retried  int
	failures int
}

func (this *Stress) Run(args []string) (exitCode int) {
	cmdFlags := flag.NewFlagSet("stress", flag.ContinueOnError)
	cmdFlags.Usage = func() { this.Ui.Output(this.Help()) }
	cmdFlags.StringVar(&this.confFile, "c", "", "")
	cmdFlags.StringVar(&this.logFile, "log", "stdout", "")
	cmdFlags.IntVar(&this.workers, "workers", 8, "")
	cmdFlags.IntVar(&this.keys, "keys", 100000, "")
	cmdFlags.IntVar(&this.ops, "n", 200000, "")
	cmdFlags.IntVar(&this.rootRate, "root", 50, "")
	cmdFlags.DurationVar(&this.gcEvery, "gc", 100*time.Millisecond, "")
	cmdFlags.IntVar(&this.retries, "retry", 3, "")
	cmdFlags.BoolVar(&this.report, "report", false, "")
	cmdFlags.BoolVar(&this.watch, "watch", false, "")
	cmdFlags.StringVar(&this.pprof, "pprof", "", "")
	cmdFlags.StringVar(&this.influx, "influx", "", "")
	cmdFlags.StringVar(&this.influxDb, "influxdb", "strtab", "")
	cmdFlags.BoolVar(&this.perWorker, "w", false, "")
	if err := cmdFlags.Parse(args); err != nil {
		return 2
	}

	if this.workers <= 0 || this.keys <= 0 || this.ops <= 0 || this.rootRate <= 0 || this.retries < 0 {
		this.Ui.Error("workers, keys, n and root must be positive, retry not negative")
		return 2
	}

	s := newStack(this.confFile)
	setupLogging(this.logFile, s.logLevel)

	this.runId = uuid.New()
	logger := log.WithField("run", this.runId)

	// allocation failures back off so that a collection can free memory
	this.retry = retrier.New(retrier.ExponentialBackoff(this.retries, time.Millisecond),
		retrier.WhitelistClassifier{heap.ErrOutOfMemory})

	if this.watch && this.confFile != "" {
		w, err := config.Watch(this.confFile, func() {
			log.SetLevel(parseLevel(config.LogLevel()))
		})
		if err != nil {
			this.Ui.Error(err.Error())
			return 1
		}
		defer w.Close()
	}

	var reporters []telemetry.Reporter
	if this.report {
		reporters = append(reporters, console.New(s.registry, s.reportInterval))
	}
	if this.influx != "" {
		cf := influxdb.NewConfig(this.influx, this.influxDb, s.reportInterval)
		if err := cf.Validate(); err != nil {
			this.Ui.Error(err.Error())
			return 2
		}
		reporters = append(reporters, influxdb.New(s.registry, cf))
	}
	for _, rep := range reporters {
		if err := rep.Start(); err != nil {
			this.Ui.Error(fmt.Sprintf("%s: %v", rep.Name(), err))
			return 1
		}
		defer rep.Stop()
		logger.Infof("%s reporter every %s", rep.Name(), s.reportInterval)
	}

	if this.pprof != "" {
		a, err := agent.Start(this.pprof, map[string]http.Handler{
			"/debug/strtab": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.table.Print(w)
			}),
		})
		if err != nil {
			this.Ui.Error(err.Error())
			return 1
		}
		defer a.Stop()
		this.Ui.Info(fmt.Sprintf("diagnostics on http://%s/debug/", a.Addr()))
	}

	start := time.Now()
	stats := this.mutate(s)
	elapsed := time.Since(start)

	// last collection so that the table reflects the final roots
	s.gc.Collect()

	var (
		violations int
		failures   int
	)
	for _, ws := range stats {
		violations += verify(s, ws.handles)
		failures += ws.failures
	}
	logger.Infof("stress done in %s, %d collections, %d violations", elapsed, s.coord.Epochs(), violations)

	if this.perWorker {
		this.renderWorkers(stats)
	}

	lines := []string{
		"Run|Workers|Ops|Elapsed|Collections|Capacity|Elements|Deleted|Roots|Objects|RSS|OOM|Violations",
		fmt.Sprintf("%s|%d|%d|%s|%d|%d|%d|%d|%d|%d|%s|%d|%d",
			this.runId[:8], this.workers, this.workers*this.ops, elapsed, s.coord.Epochs(),
			s.table.Capacity(), s.table.NumberOfElements(), s.table.NumberOfDeleted(),
			s.roots.Len(), s.heap.Objects(), rss(), failures, violations),
	}
	this.Ui.Output(columnize.SimpleFormat(lines))

	if violations > 0 {
		this.Ui.Error(fmt.Sprintf("%d roots lost their canonical string", violations))
		return 1
	}

	return
}

// mutate runs the workers until each did its ops while a collector runs
// every gcEvery.
func (this *Stress) mutate(s *stack) []*workerStats {
	var (
		wg      sync.WaitGroup
		stats   = make([]*workerStats, this.workers)
		pending int64
	)

	for w := 0; w < this.workers; w++ {
		wg.Add(1)
		stats[w] = &workerStats{}
		go func(ws *workerStats, seed int64) {
			defer wg.Done()

			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < this.ops; i++ {
				key := []byte(stressKey(rnd.Intn(this.keys)))
				if err := this.internOne(s, ws, key, i%this.rootRate == 0); err != nil {
					if errors.Cause(err) != heap.ErrOutOfMemory {
						panic(err)
					}
					ws.failures++
					atomic.AddInt64(&pending, 1)
				}
				ws.ops++
			}
		}(stats[w], int64(w))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(this.gcEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			if n := atomic.LoadInt64(&pending); n > 0 {
				log.Warnf("stress: %d allocations failed after %d retries", n, this.retries)
			}
			return stats

		case <-ticker.C:
			s.gc.Collect()
		}
	}
}

// internOne interns key, rooting the result if root. Every attempt is one
// mutator bracket, the retrier backs off outside of it.
func (this *Stress) internOne(s *stack, ws *workerStats, key []byte, root bool) error {
	return this.retry.RunFn(context.Background(), func(_ context.Context, retries int) (err error) {
		if retries > 0 {
			ws.retried++
		}

		s.coord.Run(func() {
			var r stringtable.Result
			if r, err = s.intern(key, false); err != nil || !root || r.Kind != stringtable.Canonical {
				return
			}

			ws.handles = append(ws.handles, s.roots.Add(r.String))
			ws.rooted++

			// keep a bounded window of roots, the rest is garbage
			if len(ws.handles) > 64 {
				s.roots.Remove(ws.handles[0])
				ws.handles = ws.handles[1:]
			}
		})
		return
	})
}

func (this *Stress) renderWorkers(stats []*workerStats) {
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Worker", "Ops", "Rooted", "Live roots", "Retried", "OOM"})
	for i, ws := range stats {
		table.Append([]string{strconv.Itoa(i), strconv.Itoa(ws.ops), strconv.Itoa(ws.rooted),
			strconv.Itoa(len(ws.handles)), strconv.Itoa(ws.retried), strconv.Itoa(ws.failures)})
	}
	table.Render()
	this.Ui.Output(strings.TrimRight(buf.String(), "\n"))
}

// rss is the resident set size of this process, "-" if unknown.
func rss() string {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return "-"
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return "-"
	}

	return humanize.Bytes(mem.RSS)
}

// stressKey spells every tenth key as a number to exercise the index path.
func stressKey(k int) string {
	if k%10 == 0 {
		return strconv.Itoa(k)
	}

	return "key-" + strconv.Itoa(k)
}

// verify checks that every rooted string is still the canonical one for
// its content.
func verify(s *stack, handles []*collector.Handle) (violations int) {
	for _, h := range handles {
		str := h.Get()
		if c, ok := s.table.LookupExisting(stringtable.NewStringKey(str)); !ok || c != str {
			log.Errorf("stress: %q is not canonical", str.String())
			violations++
		}
	}

	return
}

func (*Stress) Synopsis() string {
	return "Hammer the table from many goroutines with concurrent collections"
}

func (this *Stress) Help() string {
	help := fmt.Sprintf(`
Usage: %s stress [options]

    %s

Options:

    -c config file

    -watch
      Reload the log level when the config file changes.

    -log file

    -workers n
      Number of mutator goroutines. 8 by default.

    -keys n
      Size of the key space. 100000 by default.

    -n ops
      Lookups per worker. 200000 by default.

    -root n
      Root every n-th lookup result. 50 by default.

    -gc duration
      Collection interval. 100ms by default.

    -retry n
      Retries of an allocation that ran out of memory. 3 by default.

    -w
      Show a per worker table.

    -report
      Log the metrics registry periodically.

    -influx addr
      Push the metrics registry to the InfluxDB at addr, e.g. http://localhost:8086

    -influxdb database
      InfluxDB database. strtab by default.

    -pprof addr
      Serve pprof and /debug/strtab, a dump of the table, on addr.
`, this.Cmd, this.Synopsis())
	return strings.TrimSpace(help)
}
