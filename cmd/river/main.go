// Command river spawns a target program inside the sandboxed execution
// engine and reports its resource usage and termination status as JSON.
//
// Usage mirrors the flag table in SPEC_FULL.md §6:
//
//	river -t 1000 -m 65536 -- /usr/bin/python3 solution.py
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/algoux/river/internal/logger"
	"github.com/algoux/river/internal/sandbox"
)

// cmdGlobal carries the flags cobra binds onto the single root command,
// named the way the teacher's lxc/main.go names its cmdGlobal struct even
// though river, unlike lxc, has no subcommands.
type cmdGlobal struct {
	input   string
	output  string
	errPath string
	result  string

	timeLimitMs        uint32
	cpuTimeLimitMs     uint32
	memoryLimitKiB     uint32
	fileSizeLimitBytes int32
	pidsLimit          int32
	workdir            string
	network            bool
	cgroupVersion      int

	verbosity int
}

func main() {
	// Re-exec dispatch must happen before any flag parsing: a re-exec'd
	// stage is invoked with its own hidden argv[1] sentinel, not with the
	// user's real flags.
	sandbox.MaybeReexec()

	g := &cmdGlobal{}

	root := &cobra.Command{
		Use:           "river [flags] -- command [args...]",
		Short:         "Run a command inside a resource-limited sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(args)
		},
	}

	root.Flags().StringVarP(&g.input, "input", "i", "", "Redirect stdin from PATH")
	root.Flags().StringVarP(&g.output, "output", "o", "", "Redirect stdout to PATH")
	root.Flags().StringVarP(&g.errPath, "error", "e", "", "Redirect stderr to PATH")
	root.Flags().StringVarP(&g.result, "result", "r", "", "Write the result JSON to PATH (default: stdout)")
	root.Flags().Uint32VarP(&g.timeLimitMs, "time-limit", "t", 0, "Wall-clock deadline, in ms")
	root.Flags().Uint32VarP(&g.cpuTimeLimitMs, "cpu-time-limit", "c", 0, "CPU-time deadline, in ms")
	root.Flags().Uint32VarP(&g.memoryLimitKiB, "memory-limit", "m", 0, "Address-space cap, in KiB")
	root.Flags().Int32VarP(&g.fileSizeLimitBytes, "file-size-limit", "f", 0, "Per-file write cap, in bytes (POSIX)")
	root.Flags().Int32VarP(&g.pidsLimit, "pids", "p", 0, "Process-count cap (POSIX)")
	root.Flags().StringVarP(&g.workdir, "workdir", "w", "", "Guest working directory (POSIX)")
	root.Flags().BoolVar(&g.network, "network", false, "Share the host network namespace (POSIX)")
	root.Flags().IntVar(&g.cgroupVersion, "cgroup-version", 0, "Cgroup layout for the pids limiter: 1 or 2 (POSIX)")
	root.Flags().CountVarP(&g.verbosity, "verbose", "v", "Increase log verbosity (repeatable)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(0)
}

// run implements the CLI's single operation: parse, validate, execute,
// serialize. Exit codes follow §6: 0 on success, 1 on any engine or
// serialization error.
func (g *cmdGlobal) run(command []string) error {
	logger.SetVerbosity(g.verbosity)

	if len(command) == 0 {
		return errors.New("a command is required after --")
	}

	opts := sandbox.Options{
		Command:            command,
		TimeLimitMs:        g.timeLimitMs,
		CPUTimeLimitMs:     g.cpuTimeLimitMs,
		MemoryLimitKiB:     g.memoryLimitKiB,
		FileSizeLimitBytes: g.fileSizeLimitBytes,
		PidsLimit:          g.pidsLimit,
		Input:              g.input,
		Output:             g.output,
		Error:              g.errPath,
		Workdir:            g.workdir,
		NetworkEnabled:     g.network,
		CgroupVersion:      g.cgroupVersion,
		Result:             g.result,
	}

	box, err := sandbox.New(opts)
	if err != nil {
		return errors.Wrap(err, "invalid options")
	}

	status, err := box.Run(context.Background())
	if err != nil {
		return errors.Wrap(err, "run failed")
	}

	if err := sandbox.WriteResult(status, opts.Result); err != nil {
		return errors.Wrap(err, "write result")
	}

	return nil
}
