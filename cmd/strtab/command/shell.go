package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"

	"github.com/funkygao/strtab/collector"
	"github.com/funkygao/strtab/stringtable"
	"github.com/mitchellh/cli"
	"github.com/peterh/liner"
	"github.com/ryanuber/columnize"
)

var shellCommands = []string{":dump", ":find", ":gc", ":help", ":load", ":quit", ":save", ":stats", ":unroot"}

// Shell is an interactive session on one stack. Every word interned from
// the prompt is rooted until :unroot.
type Shell struct {
	Ui  cli.Ui
	Cmd string

	confFile string
	noIndex  bool

	s           *stack
	roots       map[string]*collector.Handle
	historyFile string
}

func (this *Shell) Run(args []string) (exitCode int) {
	cmdFlags := flag.NewFlagSet("shell", flag.ContinueOnError)
	cmdFlags.Usage = func() { this.Ui.Output(this.Help()) }
	cmdFlags.StringVar(&this.confFile, "c", "", "")
	cmdFlags.BoolVar(&this.noIndex, "noindex", false, "")
	if err := cmdFlags.Parse(args); err != nil {
		return 2
	}

	this.s = newStack(this.confFile)
	setupLogging("stdout", this.s.logLevel)
	this.roots = make(map[string]*collector.Handle)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) (c []string) {
		for _, cmd := range shellCommands {
			if strings.HasPrefix(cmd, l) {
				c = append(c, cmd)
			}
		}
		return
	})

	if usr, err := user.Current(); err == nil {
		this.historyFile = filepath.Join(usr.HomeDir, ".strtab_history")
		if f, e := os.Open(this.historyFile); e == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if this.historyFile == "" {
			return
		}
		if f, e := os.Create(this.historyFile); e == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	this.Ui.Output("Type :help for commands, anything else is interned.")
	for {
		input, err := line.Prompt("strtab> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return
		} else if err != nil {
			this.Ui.Error(err.Error())
			return 1
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)
		if this.exec(input) {
			return
		}
	}
}

// exec runs one input line and reports whether the session is over.
func (this *Shell) exec(input string) (quit bool) {
	fields := strings.Fields(input)
	if !strings.HasPrefix(fields[0], ":") {
		for _, w := range fields {
			this.intern(w)
		}
		return
	}

	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case ":quit":
		return true

	case ":help":
		this.Ui.Output(strings.Join(shellCommands, " "))

	case ":find":
		s, ok := this.s.table.LookupExisting(stringtable.NewBytesKey(this.s.heap, []byte(arg)))
		if !ok {
			this.Ui.Warn(fmt.Sprintf("%q not interned", arg))
			return
		}
		this.Ui.Output(describe([]byte(arg), stringtable.Result{Kind: stringtable.Canonical, String: s}))

	case ":unroot":
		h, present := this.roots[arg]
		if !present {
			this.Ui.Warn(fmt.Sprintf("%q not rooted", arg))
			return
		}
		this.s.roots.Remove(h)
		delete(this.roots, arg)

	case ":gc":
		stats := this.s.gc.Collect()
		this.Ui.Info(fmt.Sprintf("gc#%d marked %d moved %d cleared %d dropped %d freed %d in %s",
			stats.Epoch, stats.Marked, stats.Moved, stats.Cleared, stats.Dropped, stats.Freed, stats.Pause))

	case ":stats":
		this.stats()

	case ":dump":
		var buf bytes.Buffer
		this.s.table.Print(&buf)
		this.Ui.Output(strings.TrimRight(buf.String(), "\n"))

	case ":save":
		this.save(arg)

	case ":load":
		this.load(arg)

	default:
		this.Ui.Error(fmt.Sprintf("unknown command %s, try :help", fields[0]))
	}

	return
}

func (this *Shell) intern(w string) {
	r, err := this.s.intern([]byte(w), this.noIndex)
	if err != nil {
		this.Ui.Error(err.Error())
		return
	}

	if r.Kind == stringtable.Canonical {
		if _, present := this.roots[w]; !present {
			this.roots[w] = this.s.roots.Add(r.String)
		}
	}
	this.Ui.Output(describe([]byte(w), r))
}

func (this *Shell) stats() {
	rooted := make([]string, 0, len(this.roots))
	for w := range this.roots {
		rooted = append(rooted, w)
	}
	sort.Strings(rooted)

	lines := []string{
		"Capacity|Elements|Deleted|Memory|Heap bytes|Rooted",
		fmt.Sprintf("%d|%d|%d|%d|%d|%s",
			this.s.table.Capacity(),
			this.s.table.NumberOfElements(),
			this.s.table.NumberOfDeleted(),
			this.s.table.GetCurrentMemoryUsage(),
			this.s.heap.Used(),
			strings.Join(rooted, ",")),
	}
	this.Ui.Output(columnize.SimpleFormat(lines))
}

func (this *Shell) save(fn string) {
	n, err := this.s.save(fn)
	if err != nil {
		this.Ui.Error(err.Error())
		return
	}
	this.Ui.Info(fmt.Sprintf("saved %d strings to %s", n, fn))
}

// load interns a snapshot. Loaded strings are not rooted.
func (this *Shell) load(fn string) {
	n, err := this.s.load(fn)
	if err != nil {
		this.Ui.Error(err.Error())
		return
	}
	this.Ui.Info(fmt.Sprintf("loaded %d strings from %s", n, fn))
}

func (*Shell) Synopsis() string {
	return "Interactive string table session"
}

func (this *Shell) Help() string {
	help := fmt.Sprintf(`
Usage: %s shell [options]

    %s

    Words typed at the prompt are interned and stay rooted.

Commands:

    :find word     look up without inserting
    :unroot word   let the collector clear word
    :gc            run a collection
    :stats         table and heap summary
    :dump          print every table slot
    :save file     write a snapshot
    :load file     intern a snapshot
    :quit

Options:

    -c config file

    -noindex
      Intern array index spellings like any other word.
`, this.Cmd, this.Synopsis())
	return strings.TrimSpace(help)
}
