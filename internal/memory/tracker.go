package memory

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/YoLinTsai/lab0-c/logger"
	"github.com/YoLinTsai/lab0-c/queue"
)

// blockCount holds the live blocks and bytes of one block kind.
type blockCount struct {
	blocks int64
	bytes  int64
}

// Stats is a snapshot of the accounting of a Tracker.
type Stats struct {
	// LiveBlocks and LiveBytes hold the blocks currently allocated, per kind.
	LiveBlocks map[queue.Kind]int64
	LiveBytes  map[queue.Kind]int64
	// Allocs is the number of accepted allocations.
	Allocs int64
	// Failures is the number of refused allocations.
	Failures int64
	// BadFrees is the number of frees without a matching live block.
	BadFrees int64
}

// Tracker is a queue.Allocator that tracks live blocks and injects failures.
// It is safe for concurrent use.
type Tracker struct {
	live     *xsync.MapOf[queue.Kind, blockCount]
	allocs   *xsync.Counter
	failures *xsync.Counter
	badFrees *xsync.Counter

	failRate atomic.Int32

	mu  sync.Mutex
	rnd *rand.Rand

	logger logger.Logger
}

var _ queue.Allocator = (*Tracker)(nil)

// NewTracker creates a Tracker configured by the given options.
func NewTracker(opts ...Option) (*Tracker, error) {
	t := &Tracker{
		live:     xsync.NewMapOf[queue.Kind, blockCount](),
		allocs:   xsync.NewCounter(),
		failures: xsync.NewCounter(),
		badFrees: xsync.NewCounter(),
		logger:   logger.GetLogger(),
	}
	t.reseed(1)

	for _, opt := range opts {
		if err := opt.apply(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Alloc reserves a block of the given kind and size. When a fail rate is set it
// refuses the block with that probability, returning queue.ErrAllocation.
func (t *Tracker) Alloc(kind queue.Kind, size int) error {
	if t.fail() {
		t.failures.Inc()
		t.logger.Debug("injected allocation failure", "kind", kind, "size", size)
		return queue.ErrAllocation
	}

	t.live.Compute(kind, func(c blockCount, _ bool) (blockCount, bool) {
		c.blocks++
		c.bytes += int64(size)
		return c, false
	})
	t.allocs.Inc()

	return nil
}

// Free releases a block of the given kind and size. Freeing a kind with no live
// blocks is recorded as a bad free and logged.
func (t *Tracker) Free(kind queue.Kind, size int) {
	bad := false
	t.live.Compute(kind, func(c blockCount, loaded bool) (blockCount, bool) {
		if !loaded || c.blocks <= 0 {
			bad = true
			return c, !loaded
		}
		c.blocks--
		c.bytes -= int64(size)
		return c, false
	})

	if bad {
		t.badFrees.Inc()
		t.logger.Error("free of block that was not allocated", "kind", kind, "size", size)
	}
}

// SetFailRate sets the percentage, in the range of [0, 100], of allocations that are refused.
func (t *Tracker) SetFailRate(percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidFailRate
	}
	t.failRate.Store(int32(percent))

	return nil
}

// FailRate returns the percentage of allocations that are refused.
func (t *Tracker) FailRate() int {
	return int(t.failRate.Load())
}

// Live returns the total number of live blocks of every kind.
func (t *Tracker) Live() int64 {
	var total int64
	t.live.Range(func(_ queue.Kind, c blockCount) bool {
		total += c.blocks
		return true
	})

	return total
}

// Stats returns a snapshot of the tracker accounting.
func (t *Tracker) Stats() Stats {
	s := Stats{
		LiveBlocks: make(map[queue.Kind]int64),
		LiveBytes:  make(map[queue.Kind]int64),
		Allocs:     t.allocs.Value(),
		Failures:   t.failures.Value(),
		BadFrees:   t.badFrees.Value(),
	}
	t.live.Range(func(kind queue.Kind, c blockCount) bool {
		s.LiveBlocks[kind] = c.blocks
		s.LiveBytes[kind] = c.bytes
		return true
	})

	return s
}

// CheckLeaks returns an error wrapping ErrLeak that names every kind with live
// blocks, or nil if nothing is allocated.
func (t *Tracker) CheckLeaks() error {
	var leaks []string
	t.live.Range(func(kind queue.Kind, c blockCount) bool {
		if c.blocks > 0 {
			leaks = append(leaks, fmt.Sprintf("%d %s blocks (%d bytes)", c.blocks, kind, c.bytes))
		}
		return true
	})
	if len(leaks) == 0 {
		return nil
	}
	slices.Sort(leaks)

	return errors.Wrap(ErrLeak, strings.Join(leaks, ", "))
}

func (t *Tracker) fail() bool {
	rate := t.failRate.Load()
	if rate == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rnd.Int32N(100) < rate
}

func (t *Tracker) reseed(seed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
