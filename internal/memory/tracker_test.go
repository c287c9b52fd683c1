package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YoLinTsai/lab0-c/logger"
	"github.com/YoLinTsai/lab0-c/queue"
)

func newTracker(t *testing.T, opts ...Option) *Tracker {
	t.Helper()

	opts = append([]Option{WithLogger(logger.NewNopMockLogger())}, opts...)
	tr, err := NewTracker(opts...)
	require.NoError(t, err)

	return tr
}

func TestTrackerAccounting(t *testing.T) {
	tr := newTracker(t)

	require.NoError(t, tr.Alloc(queue.KindElement, 24))
	require.NoError(t, tr.Alloc(queue.KindString, 6))
	require.NoError(t, tr.Alloc(queue.KindString, 2))
	assert.Equal(t, int64(3), tr.Live())

	stats := tr.Stats()
	assert.Equal(t, int64(1), stats.LiveBlocks[queue.KindElement])
	assert.Equal(t, int64(2), stats.LiveBlocks[queue.KindString])
	assert.Equal(t, int64(8), stats.LiveBytes[queue.KindString])
	assert.Equal(t, int64(3), stats.Allocs)

	err := tr.CheckLeaks()
	require.ErrorIs(t, err, ErrLeak)
	assert.Contains(t, err.Error(), "1 element blocks (24 bytes)")
	assert.Contains(t, err.Error(), "2 string blocks (8 bytes)")
	assert.Equal(t, "1 element blocks (24 bytes), 2 string blocks (8 bytes): "+ErrLeak.Error(), err.Error())

	tr.Free(queue.KindString, 6)
	tr.Free(queue.KindString, 2)
	tr.Free(queue.KindElement, 24)
	assert.Equal(t, int64(0), tr.Live())
	assert.NoError(t, tr.CheckLeaks())
	assert.Equal(t, int64(0), tr.Stats().BadFrees)
}

func TestTrackerBadFree(t *testing.T) {
	mockLogger := logger.NewMockLogger()
	mockLogger.On("Error", mock.Anything, mock.Anything).Return()

	tr, err := NewTracker(WithLogger(mockLogger))
	require.NoError(t, err)

	tr.Free(queue.KindElement, 24)
	require.NoError(t, tr.Alloc(queue.KindString, 1))
	tr.Free(queue.KindString, 1)
	tr.Free(queue.KindString, 1)

	assert.Equal(t, int64(2), tr.Stats().BadFrees)
	assert.Equal(t, int64(0), tr.Live())
	mockLogger.AssertNumberOfCalls(t, "Error", 2)
}

func TestTrackerFailRate(t *testing.T) {
	t.Run("Validation", func(t *testing.T) {
		_, err := NewTracker(WithFailRate(101))
		assert.ErrorIs(t, err, ErrInvalidFailRate)

		tr := newTracker(t)
		assert.ErrorIs(t, tr.SetFailRate(-1), ErrInvalidFailRate)
		assert.Equal(t, 0, tr.FailRate())
		require.NoError(t, tr.SetFailRate(30))
		assert.Equal(t, 30, tr.FailRate())
	})

	t.Run("Always", func(t *testing.T) {
		tr := newTracker(t, WithFailRate(100))
		for range 10 {
			assert.ErrorIs(t, tr.Alloc(queue.KindElement, 24), queue.ErrAllocation)
		}
		assert.Equal(t, int64(10), tr.Stats().Failures)
		assert.Equal(t, int64(0), tr.Live())
	})

	t.Run("Reproducible", func(t *testing.T) {
		outcomes := func() []bool {
			tr := newTracker(t, WithFailRate(50), WithSeed(42))
			res := make([]bool, 64)
			for i := range res {
				res[i] = tr.Alloc(queue.KindString, 1) == nil
			}
			return res
		}

		first := outcomes()
		assert.Equal(t, first, outcomes())
		assert.Contains(t, first, true)
		assert.Contains(t, first, false)
	})
}

func TestTrackerWithQueue(t *testing.T) {
	tr := newTracker(t, WithFailRate(40), WithSeed(7))

	var q *queue.Queue
	for q == nil {
		q, _ = queue.New(queue.WithAllocator(tr))
	}

	inserted := 0
	for i := range 200 {
		var err error
		if i%2 == 0 {
			err = q.InsertHead("head")
		} else {
			err = q.InsertTail("tail")
		}
		if err == nil {
			inserted++
		} else {
			require.ErrorIs(t, err, queue.ErrAllocation)
		}
		require.Equal(t, inserted, q.Size())
	}
	assert.Positive(t, tr.Stats().Failures)
	assert.Equal(t, int64(1+2*inserted), tr.Live())

	q.Sort()
	q.Reverse()
	assert.Equal(t, int64(1+2*inserted), tr.Live())

	for range inserted / 2 {
		_, err := q.RemoveHead(nil)
		require.ErrorIs(t, err, queue.ErrNoBuffer)
	}

	q.Free()
	assert.NoError(t, tr.CheckLeaks())
	assert.Equal(t, int64(0), tr.Stats().BadFrees)
}

func TestTrackerConcurrent(t *testing.T) {
	tr := newTracker(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				_ = tr.Alloc(queue.KindElement, 24)
				tr.Free(queue.KindElement, 24)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), tr.Live())
	assert.Equal(t, int64(8000), tr.Stats().Allocs)
	assert.Equal(t, int64(0), tr.Stats().BadFrees)
}
