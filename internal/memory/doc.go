// Package memory implements the allocation tracker used by the qtest harness.
//
// A Tracker is a queue.Allocator that records every live block per block kind,
// can refuse allocations with a configurable probability to exercise the failure
// paths of the queue, and reports blocks that are still live when the harness
// expects none (leaks) as well as frees of blocks that were never allocated.
package memory
