package memory

import (
	"github.com/YoLinTsai/lab0-c/logger"
)

// Option represents a functional option for configuring a Tracker.
type Option interface {
	apply(*Tracker) error
}

type optFunc struct {
	applyFunc func(*Tracker) error
}

func (o *optFunc) apply(t *Tracker) error { return o.applyFunc(t) }

func newOptFunc(f func(*Tracker) error) *optFunc {
	return &optFunc{applyFunc: f}
}

// WithFailRate sets the percentage, in the range of [0, 100], of allocations that are refused.
// Defaults to 0.
func WithFailRate(percent int) Option {
	return newOptFunc(func(t *Tracker) error {
		return t.SetFailRate(percent)
	})
}

// WithSeed seeds the random source deciding which allocations fail.
// Defaults to 1, so that failure sequences are reproducible.
func WithSeed(seed uint64) Option {
	return newOptFunc(func(t *Tracker) error {
		t.reseed(seed)
		return nil
	})
}

// WithLogger sets the logger used to report injected failures and invalid frees.
// Defaults to logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return newOptFunc(func(t *Tracker) error {
		if l != nil {
			t.logger = l
		}
		return nil
	})
}
