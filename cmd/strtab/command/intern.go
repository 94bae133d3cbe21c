package command

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/funkygao/strtab/stringtable"
	"github.com/mitchellh/cli"
	"github.com/ryanuber/columnize"
)

type Intern struct {
	Ui    cli.Ui
	Cmd   string
	Stdin io.Reader

	confFile string
	logFile  string
	noIndex  bool
	verbose  bool
	preload  string
	saveTo   string
}

func (this *Intern) Run(args []string) (exitCode int) {
	cmdFlags := flag.NewFlagSet("intern", flag.ContinueOnError)
	cmdFlags.Usage = func() { this.Ui.Output(this.Help()) }
	cmdFlags.StringVar(&this.confFile, "c", "", "")
	cmdFlags.StringVar(&this.logFile, "log", "stdout", "")
	cmdFlags.BoolVar(&this.noIndex, "noindex", false, "")
	cmdFlags.BoolVar(&this.verbose, "v", false, "")
	cmdFlags.StringVar(&this.preload, "preload", "", "")
	cmdFlags.StringVar(&this.saveTo, "save", "", "")
	if err := cmdFlags.Parse(args); err != nil {
		return 2
	}

	s := newStack(this.confFile)
	setupLogging(this.logFile, s.logLevel)

	if this.preload != "" {
		n, err := s.load(this.preload)
		if err != nil {
			this.Ui.Error(err.Error())
			return 1
		}
		this.Ui.Info(fmt.Sprintf("preloaded %d strings", n))
	}

	var words, indices int
	err := scanWords(cmdFlags.Args(), this.stdin(), func(word []byte) error {
		r, err := s.intern(word, this.noIndex)
		if err != nil {
			return err
		}

		words++
		if r.Kind == stringtable.Index {
			indices++
		}

		if this.verbose {
			this.Ui.Output(describe(word, r))
		}
		return nil
	})
	if err != nil {
		this.Ui.Error(err.Error())
		return 1
	}

	lines := []string{
		"Words|Indices|Distinct|Capacity|Deleted|Memory",
		fmt.Sprintf("%d|%d|%d|%d|%d|%d",
			words, indices,
			s.table.NumberOfElements(),
			s.table.Capacity(),
			s.table.NumberOfDeleted(),
			s.table.GetCurrentMemoryUsage()),
	}
	this.Ui.Output(columnize.SimpleFormat(lines))

	if this.saveTo != "" {
		n, err := s.save(this.saveTo)
		if err != nil {
			this.Ui.Error(err.Error())
			return 1
		}
		this.Ui.Info(fmt.Sprintf("saved %d strings to %s", n, this.saveTo))
	}

	return
}

func (this *Intern) stdin() io.Reader {
	if this.Stdin != nil {
		return this.Stdin
	}

	return os.Stdin
}

func describe(word []byte, r stringtable.Result) string {
	switch r.Kind {
	case stringtable.Index:
		return fmt.Sprintf("%-20s index %d", word, r.Index.Index())

	default:
		return fmt.Sprintf("%-20s #%d %08x", word, r.String.Serial(), r.String.HashField())
	}
}

func (*Intern) Synopsis() string {
	return "Intern every word of the input files and summarize the table"
}

func (this *Intern) Help() string {
	help := fmt.Sprintf(`
Usage: %s intern [options] [file ...]

    %s

    Reads stdin when no file is given.

Options:

    -c config file
      Hjson config, see etc/strtab.cf.

    -log file
      Log to file instead of stdout.

    -noindex
      Intern array index spellings like any other word.

    -v
      Print how every word was resolved.

    -preload file
      Intern a snapshot before reading the input.

    -save file
      Write a snapshot of the table afterwards.
`, this.Cmd, this.Synopsis())
	return strings.TrimSpace(help)
}
