package queue

// Kind identifies the kind of storage block charged to an Allocator.
type Kind int

const (
	// KindQueue is the block holding a Queue itself.
	KindQueue Kind = iota
	// KindElement is the block holding a single Element.
	KindElement
	// KindString is the block holding the copy of an element value, including its terminator.
	KindString
)

// String returns the name of the block kind.
func (k Kind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindElement:
		return "element"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Allocator accounts for the storage used by a Queue.
//
// Alloc is called before a block is put to use and may refuse it by returning an
// error, in which case the queue reports ErrAllocation and leaves its state
// unchanged. Free is called exactly once for every block that Alloc accepted.
type Allocator interface {
	// Alloc reserves a block of the given kind and size.
	Alloc(kind Kind, size int) error
	// Free releases a block previously reserved by Alloc.
	Free(kind Kind, size int)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(Kind, int) error { return nil }

func (heapAllocator) Free(Kind, int) {}

// Heap is the default Allocator. It never fails and keeps no accounting.
var Heap Allocator = heapAllocator{}

// elementSize is the size charged for an Element block: a string header and a pointer.
const elementSize = 24
