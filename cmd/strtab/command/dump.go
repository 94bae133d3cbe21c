package command

import (
	"bytes"
	"flag"
	"fmt"
	"strings"

	"github.com/mitchellh/cli"
)

type Dump struct {
	Ui  cli.Ui
	Cmd string

	confFile string
	gc       bool
}

func (this *Dump) Run(args []string) (exitCode int) {
	cmdFlags := flag.NewFlagSet("dump", flag.ContinueOnError)
	cmdFlags.Usage = func() { this.Ui.Output(this.Help()) }
	cmdFlags.StringVar(&this.confFile, "c", "", "")
	cmdFlags.BoolVar(&this.gc, "gc", false, "")
	if err := cmdFlags.Parse(args); err != nil {
		return 2
	}

	if len(cmdFlags.Args()) == 0 {
		this.Ui.Error("at least one file required")
		this.Ui.Output(this.Help())
		return 2
	}

	s := newStack(this.confFile)
	setupLogging("stdout", s.logLevel)

	keep := 0
	err := scanWords(cmdFlags.Args(), nil, func(word []byte) error {
		r, err := s.intern(word, false)
		if err != nil {
			return err
		}

		// root every other canonical word so that -gc leaves tombstones
		if r.String != nil {
			if keep%2 == 0 {
				s.roots.Add(r.String)
			}
			keep++
		}
		return nil
	})
	if err != nil {
		this.Ui.Error(err.Error())
		return 1
	}

	if this.gc {
		stats := s.gc.Collect()
		this.Ui.Info(fmt.Sprintf("gc#%d cleared %d moved %d dropped %d freed %d",
			stats.Epoch, stats.Cleared, stats.Moved, stats.Dropped, stats.Freed))
	}

	var buf bytes.Buffer
	s.table.Print(&buf)
	this.Ui.Output(strings.TrimRight(buf.String(), "\n"))

	return
}

func (*Dump) Synopsis() string {
	return "Intern the words of files and print every table slot"
}

func (this *Dump) Help() string {
	help := fmt.Sprintf(`
Usage: %s dump [options] file ...

    %s

Options:

    -c config file

    -gc
      Run one collection before printing. Only every other distinct
      word is kept alive.
`, this.Cmd, this.Synopsis())
	return strings.TrimSpace(help)
}
