// Package console implements the qtest command interpreter that drives a string
// queue through line-oriented commands, verifying every result against a shadow
// element count and checking the allocation tracker for leaks.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/YoLinTsai/lab0-c/internal/memory"
	"github.com/YoLinTsai/lab0-c/logger"
	"github.com/YoLinTsai/lab0-c/queue"
)

// CmdFunc executes a command with its arguments, args[0] being the command name.
// It returns false when the command failed.
type CmdFunc func(c *Console, args []string) bool

type command struct {
	name string
	help string
	fn   CmdFunc
}

type param struct {
	name string
	help string
	get  func() int
	set  func(int) error
}

// Console is a command interpreter operating on a single queue.
// It is not safe for concurrent use.
type Console struct {
	out     io.Writer
	stdout  io.Writer
	logFile *os.File
	logger  logger.Logger
	session string

	cmds   *xsync.MapOf[string, *command]
	params *xsync.MapOf[string, *param]

	tracker *memory.Tracker
	pcg     *rand.PCG
	rnd     *rand.Rand

	q    *queue.Queue
	qcnt int

	// ctx is the context of the innermost Run, used by commands that read scripts.
	ctx context.Context

	verbose    int
	echo       bool
	bufLen     int
	errLimit   int
	failLimit  int
	errCount   int
	failCount  int
	quit       bool
	sourceDeep int
	verboseSet bool
}

// New creates a console configured by the given options, with the queue
// commands and the built-in commands registered.
func New(opts ...Option) (*Console, error) {
	pcg := rand.NewPCG(1, 2)
	c := &Console{
		out:       os.Stdout,
		logger:    logger.GetLogger(),
		session:   uuid.NewString(),
		cmds:      xsync.NewMapOf[string, *command](),
		params:    xsync.NewMapOf[string, *param](),
		pcg:       pcg,
		rnd:       rand.New(pcg),
		ctx:       context.Background(),
		verbose:   1,
		bufLen:    DefaultStringLength,
		errLimit:  DefaultErrorLimit,
		failLimit: DefaultFailLimit,
	}

	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}

	if c.tracker == nil {
		tracker, err := memory.NewTracker(memory.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.tracker = tracker
	}

	c.stdout = c.out
	c.logger = c.logger.With("session", c.session)
	if c.verboseSet {
		c.logger.SetLevel(logger.FromVerbosity(c.verbose))
	}

	c.registerBuiltins()
	c.registerQueueCommands()

	return c, nil
}

// Register adds a command to the console, replacing any command with the same name.
func (c *Console) Register(name string, help string, fn CmdFunc) {
	c.cmds.Store(name, &command{name: name, help: help, fn: fn})
}

// addParam adds a parameter that can be listed and set with the option command.
func (c *Console) addParam(name string, help string, get func() int, set func(int) error) {
	c.params.Store(name, &param{name: name, help: help, get: get, set: set})
}

// Session returns the identifier tagging the log records of this console.
func (c *Console) Session() string {
	return c.session
}

// ErrorCount returns the number of errors detected so far.
func (c *Console) ErrorCount() int {
	return c.errCount
}

// Tracker returns the allocation tracker charged by the queues of this console.
func (c *Console) Tracker() *memory.Tracker {
	return c.tracker
}

// Exec interprets a single command line. It returns false when the interpreter
// should stop, either because quit was requested or the error limit was reached.
func (c *Console) Exec(line string) bool {
	if !c.running() {
		return false
	}

	args, err := splitLine(line)
	if err != nil {
		c.reportError("%s", err)
		return c.running()
	}
	if len(args) == 0 {
		return c.running()
	}

	if c.echo {
		c.printf("cmd> %s\n", strings.Join(args, " "))
	}

	cmd, ok := c.cmds.Load(args[0])
	if !ok {
		c.reportError("Unknown command '%s'", args[0])
		return c.running()
	}

	c.logger.Debug("execute command", "cmd", cmd.name, "args", args[1:])
	if !cmd.fn(c, args) {
		c.recordError()
	}

	return c.running()
}

// Run interprets the lines read from r until the input ends, quit is requested,
// the error limit is reached or ctx is canceled. Scripts read by the source
// command stop on the cancellation of ctx as well.
//
// It returns ErrErrorLimit when interpretation stopped because of too many errors,
// and the context error when ctx was canceled.
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	prev := c.ctx
	c.ctx = ctx
	defer func() { c.ctx = prev }()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !scanner.Scan() {
			break
		}
		if !c.Exec(scanner.Text()) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read commands")
	}

	if c.errCount >= c.errLimit {
		return ErrErrorLimit
	}

	return nil
}

// Source interprets the commands of the file at path.
func (c *Console) Source(ctx context.Context, path string) error {
	if c.sourceDeep >= maxSourceDepth {
		return errors.Wrapf(ErrSourceDepth, "source %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open script %s", path)
	}
	defer f.Close()

	c.sourceDeep++
	defer func() { c.sourceDeep-- }()

	c.logger.Info("source script", "path", path)

	return c.Run(ctx, f)
}

// Close frees the current queue, verifies that no storage is left allocated and
// closes the log file opened by the log command, if any.
func (c *Console) Close() error {
	c.freeQueue()

	var err error
	if leakErr := c.tracker.CheckLeaks(); leakErr != nil {
		c.errorf("%s", leakErr)
		err = leakErr
	}

	if c.logFile != nil {
		if closeErr := c.logFile.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close log file")
		}
		c.logFile = nil
		c.out = c.stdout
	}

	return err
}

func (c *Console) running() bool {
	return !c.quit && c.errCount < c.errLimit
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// report prints a message when the verbosity is at least level.
func (c *Console) report(level int, format string, args ...any) {
	if c.verbose >= level {
		c.printf(format+"\n", args...)
	}
}

// errorf prints an error message and returns false, so that commands can
// report a failure with a single return statement.
func (c *Console) errorf(format string, args ...any) bool {
	msg := fmt.Sprintf(format, args...)
	c.printf("ERROR: %s\n", msg)
	c.logger.Error(msg)
	return false
}

// reportError prints an error message and counts it.
func (c *Console) reportError(format string, args ...any) {
	c.errorf(format, args...)
	c.recordError()
}

func (c *Console) recordError() {
	c.errCount++
	if c.errCount == c.errLimit {
		c.printf("Error limit exceeded.  Stopping command execution\n")
	}
}

// warn prints a warning without counting it as an error.
func (c *Console) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.report(1, "Warning: %s", msg)
	c.logger.Warn(msg)
}

func (c *Console) registerBuiltins() {
	c.Register("help", "                | Show documentation", (*Console).doHelp)
	c.Register("quit", "                | Exit program", (*Console).doQuit)
	c.Register("option", " [name val]     | Display or set options", (*Console).doOption)
	c.Register("source", " file           | Read commands from source file", (*Console).doSource)
	c.Register("log", " file           | Copy output to file", (*Console).doLog)
	c.Register("time", " cmd arg ...    | Time command execution", (*Console).doTime)

	c.addParam("verbose", "Verbosity level",
		func() int { return c.verbose },
		func(v int) error {
			if v < 0 || v > 4 {
				return errors.Wrapf(ErrInvalidParam, "verbose %d out of range [0, 4]", v)
			}
			c.verbose = v
			c.logger.SetLevel(logger.FromVerbosity(v))
			return nil
		})
	c.addParam("echo", "Do/don't echo commands",
		func() int { return boolToInt(c.echo) },
		func(v int) error {
			c.echo = v != 0
			return nil
		})
	c.addParam("errorlimit", "Number of errors until exit",
		func() int { return c.errLimit },
		func(v int) error {
			if v < 1 {
				return errors.Wrapf(ErrInvalidParam, "errorlimit %d must be positive", v)
			}
			c.errLimit = v
			return nil
		})
}

func (c *Console) doHelp(args []string) bool {
	var names []string
	c.cmds.Range(func(name string, _ *command) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)

	c.printf("Commands:\n")
	for _, name := range names {
		cmd, _ := c.cmds.Load(name)
		c.printf("\t%s%s\n", cmd.name, cmd.help)
	}
	c.listParams()

	return true
}

func (c *Console) listParams() {
	var names []string
	c.params.Range(func(name string, _ *param) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)

	c.printf("Options:\n")
	for _, name := range names {
		p, _ := c.params.Load(name)
		c.printf("\t%s\t%d\t%s\n", p.name, p.get(), p.help)
	}
}

// doQuit stops interpretation. The queue is released and checked for leaks by Close.
func (c *Console) doQuit(args []string) bool {
	c.quit = true
	return true
}

func (c *Console) doOption(args []string) bool {
	switch len(args) {
	case 1:
		c.listParams()
		return true
	case 3:
	default:
		return c.errorf("%s takes no arguments or a name and a value", args[0])
	}

	p, ok := c.params.Load(args[1])
	if !ok {
		return c.errorf("Unknown option '%s'", args[1])
	}

	v, err := strconv.Atoi(args[2])
	if err != nil {
		return c.errorf("Option '%s' requires an integer value, got '%s'", args[1], args[2])
	}

	if err := p.set(v); err != nil {
		return c.errorf("%s", err)
	}
	c.logger.Info("option changed", "name", p.name, "value", v)

	return true
}

func (c *Console) doSource(args []string) bool {
	if len(args) != 2 {
		return c.errorf("%s requires exactly one file name", args[0])
	}

	err := c.Source(c.ctx, args[1])
	switch {
	case err == nil, errors.Is(err, ErrErrorLimit):
	case c.ctx.Err() != nil:
		// the enclosing Run stops before its next line
		c.logger.Info("source canceled", "path", args[1])
	default:
		return c.errorf("%s", err)
	}

	return true
}

func (c *Console) doLog(args []string) bool {
	if len(args) != 2 {
		return c.errorf("%s requires exactly one file name", args[0])
	}

	f, err := os.Create(args[1])
	if err != nil {
		return c.errorf("%s", errors.Wrapf(err, "create log file %s", args[1]))
	}
	if c.logFile != nil {
		_ = c.logFile.Close()
	}
	c.logFile = f
	c.out = io.MultiWriter(c.stdout, f)

	return true
}

func (c *Console) doTime(args []string) bool {
	if len(args) < 2 {
		return c.errorf("%s requires a command to time", args[0])
	}

	cmd, ok := c.cmds.Load(args[1])
	if !ok {
		return c.errorf("Unknown command '%s'", args[1])
	}

	start := time.Now()
	ok = cmd.fn(c, args[1:])
	elapsed := time.Since(start)

	c.printf("Delta time = %.3f\n", elapsed.Seconds())
	c.logger.Info("timed command", "cmd", cmd.name, "elapsed", elapsed)

	return ok
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
