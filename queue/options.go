package queue

// Option represents a functional option for configuring a Queue.
type Option interface {
	apply(*Queue) error
}

type optFunc struct {
	applyFunc func(*Queue) error
}

func (o *optFunc) apply(q *Queue) error { return o.applyFunc(q) }

func newOptFunc(f func(*Queue) error) *optFunc {
	return &optFunc{applyFunc: f}
}

// WithAllocator sets the allocator the queue charges its storage to.
// A nil allocator selects Heap.
func WithAllocator(a Allocator) Option {
	return newOptFunc(func(q *Queue) error {
		if a == nil {
			a = Heap
		}
		q.alloc = a

		return nil
	})
}
