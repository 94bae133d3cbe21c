package command

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/funkygao/strtab"
	"github.com/klauspost/cpuid"
	"github.com/mitchellh/cli"
)

type Version struct {
	Ui  cli.Ui
	Cmd string
}

func (this *Version) Run(args []string) (exitCode int) {
	this.Ui.Output(fmt.Sprintf("%s %s (%s@%s) %s", this.Cmd,
		strtab.Version, strtab.BuildId, strtab.BuiltAt, runtime.Version()))

	for _, arg := range args {
		if arg == "-cpu" {
			this.Ui.Output(cpuSummary())
		}
	}

	return
}

// cpuSummary describes the CPU the hash function runs on.
func cpuSummary() string {
	c := cpuid.CPU
	accel := "none"
	switch {
	case c.AVX512F():
		accel = "avx512"
	case c.AVX2():
		accel = "avx2"
	case c.SSE2():
		accel = "sse2"
	}

	return fmt.Sprintf("%s cores:%d/%d cacheline:%d L1d:%d L2:%d xxh3:%s",
		strings.TrimSpace(c.BrandName), c.PhysicalCores, c.LogicalCores,
		c.CacheLine, c.Cache.L1D, c.Cache.L2, accel)
}

func (*Version) Synopsis() string {
	return "Print build version"
}

func (this *Version) Help() string {
	help := fmt.Sprintf(`
Usage: %s version [options]

    %s

Options:

    -cpu
      Also describe the CPU and the xxh3 acceleration it allows.
`, this.Cmd, this.Synopsis())
	return strings.TrimSpace(help)
}
