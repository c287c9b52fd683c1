// Command qtest drives a string queue through a line-oriented command language,
// verifying results and reporting leaked storage.
//
// Commands are read from the file given with -f, or from stdin otherwise.
//
// Environment variables:
//
//	ENV  - "development" selects a human readable log format
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/YoLinTsai/lab0-c/internal/console"
	"github.com/YoLinTsai/lab0-c/internal/memory"
	"github.com/YoLinTsai/lab0-c/logger"
)

type options struct {
	File       string `short:"f" long:"file" description:"Read commands from file instead of stdin"`
	Verbose    int    `short:"v" long:"verbose" default:"1" description:"Verbosity level, 0 to 4"`
	LogFile    string `short:"l" long:"log" description:"Copy output to file"`
	Malloc     int    `long:"malloc" default:"0" description:"Allocation failure probability percent"`
	Seed       uint64 `long:"seed" default:"1" description:"Seed of the random sources"`
	Echo       bool   `short:"e" long:"echo" description:"Echo commands before executing them"`
	ErrorLimit int    `long:"errorlimit" default:"5" description:"Number of errors until exit"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes qtest with the command line arguments args and returns the exit status:
// 0 on success, 1 when errors were detected or storage leaked and 2 on usage errors.
func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintf(stderr, "qtest: %v\n", err)
		return 2
	}
	if len(rest) > 0 {
		fmt.Fprintf(stderr, "qtest: unexpected arguments %v\n", rest)
		return 2
	}

	log := logger.NewSlogWriter(stderr, logger.FromVerbosity(opts.Verbose), false)
	logger.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, err := memory.NewTracker(
		memory.WithFailRate(opts.Malloc),
		memory.WithSeed(opts.Seed),
		memory.WithLogger(log),
	)
	if err != nil {
		fmt.Fprintf(stderr, "qtest: %v\n", err)
		return 2
	}

	con, err := console.New(
		console.WithOutput(stdout),
		console.WithLogger(log),
		console.WithTracker(tracker),
		console.WithVerbosity(opts.Verbose),
		console.WithEcho(opts.Echo || opts.File != ""),
		console.WithErrorLimit(opts.ErrorLimit),
		console.WithSeed(opts.Seed),
	)
	if err != nil {
		fmt.Fprintf(stderr, "qtest: %v\n", err)
		return 2
	}

	if opts.LogFile != "" {
		con.Exec(fmt.Sprintf("log %q", opts.LogFile))
	}

	input := stdin
	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			fmt.Fprintf(stderr, "qtest: %v\n", err)
			return 2
		}
		defer f.Close()
		input = f
	}

	log.Debug("qtest started", "session", con.Session(), "file", opts.File, "malloc", opts.Malloc)

	runErr := con.Run(ctx, input)
	closeErr := con.Close()

	switch {
	case runErr != nil && !errors.Is(runErr, console.ErrErrorLimit):
		fmt.Fprintf(stderr, "qtest: %v\n", runErr)
		return 1
	case closeErr != nil, con.ErrorCount() > 0:
		return 1
	}

	stats := tracker.Stats()
	log.Info("qtest finished", "allocs", stats.Allocs, "failures", stats.Failures)

	return 0
}
