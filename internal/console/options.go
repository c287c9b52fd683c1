package console

import (
	"io"

	"github.com/pkg/errors"

	"github.com/YoLinTsai/lab0-c/internal/memory"
	"github.com/YoLinTsai/lab0-c/logger"
)

const (
	// DefaultStringLength is the default capacity, excluding the terminator, of the buffer
	// receiving removed values.
	DefaultStringLength = 1024
	// DefaultErrorLimit is the default number of errors after which interpretation stops.
	DefaultErrorLimit = 5
	// DefaultFailLimit is the default number of allocation failures tolerated before
	// further failures count as errors.
	DefaultFailLimit = 30

	maxStringLength = 1 << 20
	maxSourceDepth  = 16
)

// Option represents a functional option for configuring a Console.
type Option interface {
	apply(*Console) error
}

type optFunc struct {
	applyFunc func(*Console) error
}

func (o *optFunc) apply(c *Console) error { return o.applyFunc(c) }

func newOptFunc(f func(*Console) error) *optFunc {
	return &optFunc{applyFunc: f}
}

// WithOutput sets the writer receiving command output.
// Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return newOptFunc(func(c *Console) error {
		if w == nil {
			return errors.New("output writer is nil")
		}
		c.out = w
		return nil
	})
}

// WithLogger sets the logger of the console.
// Defaults to logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return newOptFunc(func(c *Console) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		c.logger = l
		return nil
	})
}

// WithTracker sets the allocation tracker charged by the queues created by the console.
// Defaults to a new tracker without failure injection.
func WithTracker(t *memory.Tracker) Option {
	return newOptFunc(func(c *Console) error {
		if t == nil {
			return errors.New("tracker is nil")
		}
		c.tracker = t
		return nil
	})
}

// WithErrorLimit sets the number of errors after which interpretation stops.
// Defaults to DefaultErrorLimit.
func WithErrorLimit(limit int) Option {
	return newOptFunc(func(c *Console) error {
		if limit < 1 {
			return errors.Wrapf(ErrInvalidParam, "error limit %d must be positive", limit)
		}
		c.errLimit = limit
		return nil
	})
}

// WithVerbosity sets the verbosity level, in the range of [0, 4], and the level of
// the console logger to match it. Defaults to 1, leaving the logger level unchanged.
func WithVerbosity(level int) Option {
	return newOptFunc(func(c *Console) error {
		if level < 0 || level > 4 {
			return errors.Wrapf(ErrInvalidParam, "verbose %d out of range [0, 4]", level)
		}
		c.verbose = level
		c.verboseSet = true
		return nil
	})
}

// WithEcho enables echoing every command before it is executed.
func WithEcho(echo bool) Option {
	return newOptFunc(func(c *Console) error {
		c.echo = echo
		return nil
	})
}

// WithStringLength sets the capacity, excluding the terminator, of the buffer receiving removed values.
// Defaults to DefaultStringLength.
func WithStringLength(n int) Option {
	return newOptFunc(func(c *Console) error {
		if n < 1 || n > maxStringLength {
			return errors.Wrapf(ErrInvalidParam, "length %d out of range [1, %d]", n, maxStringLength)
		}
		c.bufLen = n
		return nil
	})
}

// WithSeed seeds the random source generating RAND values.
func WithSeed(seed uint64) Option {
	return newOptFunc(func(c *Console) error {
		c.pcg.Seed(seed, seed^0x5851f42d4c957f2d)
		return nil
	})
}
