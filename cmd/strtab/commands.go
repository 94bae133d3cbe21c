package main

import (
	"os"

	"github.com/funkygao/strtab/cmd/strtab/command"
	"github.com/mitchellh/cli"
)

var commands map[string]cli.CommandFactory

func init() {
	ui := &cli.ColoredUi{
		Ui: &cli.BasicUi{
			Writer:      os.Stdout,
			Reader:      os.Stdin,
			ErrorWriter: os.Stderr,
		},
		OutputColor: cli.UiColorNone,
		InfoColor:   cli.UiColorGreen,
		ErrorColor:  cli.UiColorRed,
		WarnColor:   cli.UiColorYellow,
	}
	cmd := os.Args[0]

	commands = map[string]cli.CommandFactory{
		"intern": func() (cli.Command, error) {
			return &command.Intern{
				Ui:  ui,
				Cmd: cmd,
			}, nil
		},

		"dump": func() (cli.Command, error) {
			return &command.Dump{
				Ui:  ui,
				Cmd: cmd,
			}, nil
		},

		"stress": func() (cli.Command, error) {
			return &command.Stress{
				Ui:  ui,
				Cmd: cmd,
			}, nil
		},

		"shell": func() (cli.Command, error) {
			return &command.Shell{
				Ui:  ui,
				Cmd: cmd,
			}, nil
		},

		"version": func() (cli.Command, error) {
			return &command.Version{
				Ui:  ui,
				Cmd: cmd,
			}, nil
		},
	}

}
