package console

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/YoLinTsai/lab0-c/queue"
)

const (
	// randomValue inserts a random lowercase string instead of the literal argument.
	randomValue = "RAND"

	minRandomLength = 5
	maxRandomLength = 10

	// maxShown caps the number of elements printed by show.
	maxShown = 50
)

func (c *Console) registerQueueCommands() {
	c.Register("new", "                | Create new queue", (*Console).doNew)
	c.Register("free", "                | Delete queue", (*Console).doFree)
	c.Register("ih", " str [n]        | Insert string str at head of queue n times. Generate random string(s) if str equals RAND. (default: n == 1)", (*Console).doInsertHead)
	c.Register("it", " str [n]        | Insert string str at tail of queue n times. Generate random string(s) if str equals RAND. (default: n == 1)", (*Console).doInsertTail)
	c.Register("rh", " [str]          | Remove from head of queue.  Optionally compare to expected value str", (*Console).doRemoveHead)
	c.Register("rhq", "                | Remove from head of queue without reporting value.", (*Console).doRemoveHeadQuiet)
	c.Register("size", " [n]            | Compute queue size n times (default: n == 1)", (*Console).doSize)
	c.Register("reverse", "                | Reverse queue", (*Console).doReverse)
	c.Register("sort", "                | Sort queue in ascending order", (*Console).doSort)
	c.Register("show", "                | Show queue contents", (*Console).doShow)

	c.addParam("length", "Maximum length of displayed string",
		func() int { return c.bufLen },
		func(v int) error {
			if v < 1 || v > maxStringLength {
				return errors.Wrapf(ErrInvalidParam, "length %d out of range [1, %d]", v, maxStringLength)
			}
			c.bufLen = v
			return nil
		})
	c.addParam("malloc", "Malloc failure probability percent",
		c.tracker.FailRate,
		func(v int) error {
			return errors.Wrapf(c.tracker.SetFailRate(v), "malloc %d", v)
		})
	c.addParam("fail", "Number of times allow queue operations to return false",
		func() int { return c.failLimit },
		func(v int) error {
			if v < 0 {
				return errors.Wrapf(ErrInvalidParam, "fail %d must not be negative", v)
			}
			c.failLimit = v
			return nil
		})
}

// freeQueue releases the current queue, if any, and resets the shadow count.
func (c *Console) freeQueue() {
	c.q.Free()
	c.q = nil
	c.qcnt = 0
}

// allocationFailed accounts for an expected allocation failure. Failures beyond
// the fail limit are reported as errors.
func (c *Console) allocationFailed(what string) bool {
	c.failCount++
	if c.failCount < c.failLimit {
		c.report(2, "%s failed", what)
		c.logger.Debug("allocation failure", "op", what, "count", c.failCount)
		return true
	}

	return c.errorf("%s failed (%d failures total)", what, c.failCount)
}

func (c *Console) doNew(args []string) bool {
	if len(args) != 1 {
		return c.errorf("%s takes no arguments", args[0])
	}

	if c.q != nil {
		c.report(3, "Freeing old queue")
		c.freeQueue()
	}

	q, err := queue.New(queue.WithAllocator(c.tracker))
	if err != nil {
		if errors.Is(err, queue.ErrAllocation) {
			return c.allocationFailed("Queue allocation")
		}
		return c.errorf("%s", errors.Wrap(err, "create queue"))
	}
	c.q = q
	c.qcnt = 0
	c.showQueue(3)

	return true
}

func (c *Console) doFree(args []string) bool {
	if len(args) != 1 {
		return c.errorf("%s takes no arguments", args[0])
	}

	if c.q == nil {
		c.warn("Calling free on null queue")
	}
	c.freeQueue()
	c.showQueue(3)

	if live := c.tracker.Live(); live > 0 {
		return c.errorf("Freed queue, but %d blocks are still allocated", live)
	}

	return true
}

func (c *Console) doInsertHead(args []string) bool {
	return c.doInsert(args, "head", (*queue.Queue).InsertHead)
}

func (c *Console) doInsertTail(args []string) bool {
	return c.doInsert(args, "tail", (*queue.Queue).InsertTail)
}

func (c *Console) doInsert(args []string, end string, insert func(*queue.Queue, string) error) bool {
	if len(args) != 2 && len(args) != 3 {
		return c.errorf("%s needs 1-2 arguments", args[0])
	}

	reps := 1
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 1 {
			return c.errorf("Invalid number of insertions '%s'", args[2])
		}
		reps = n
	}

	if c.q == nil {
		c.warn("Calling insert %s on null queue", end)
	}

	ok := true
	for range reps {
		value := args[1]
		if value == randomValue {
			value = c.randomString()
		}

		err := insert(c.q, value)
		switch {
		case err == nil:
			if c.q == nil {
				ok = c.errorf("Insertion into null queue succeeded")
				break
			}
			c.qcnt++
		case errors.Is(err, queue.ErrNilQueue):
			if c.q != nil {
				ok = c.errorf("Insertion of %s reported a null queue", value)
			}
		case errors.Is(err, queue.ErrAllocation):
			if !c.allocationFailed("Insertion of " + value) {
				ok = false
			}
		default:
			ok = c.errorf("%s", errors.Wrapf(err, "insert %s", end))
		}
		if !ok || c.q == nil {
			break
		}
	}

	if ok && c.q != nil && c.q.Size() != c.qcnt {
		ok = c.errorf("Queue size is %d after insertions, expected %d", c.q.Size(), c.qcnt)
	}
	c.showQueue(3)

	return ok
}

func (c *Console) doRemoveHead(args []string) bool {
	if len(args) != 1 && len(args) != 2 {
		return c.errorf("%s needs 0-1 arguments", args[0])
	}

	check := len(args) == 2
	if check && len(args[1]) > c.bufLen {
		return c.errorf("Expected value '%s' is longer than length %d", args[1], c.bufLen)
	}

	if c.q == nil {
		c.warn("Calling remove head on null queue")
	} else if c.qcnt == 0 {
		c.warn("Calling remove head on empty queue")
	}

	buf := make([]byte, c.bufLen+1)
	n, err := c.q.RemoveHead(buf)

	ok := true
	switch {
	case err == nil:
		if c.q == nil || c.qcnt == 0 {
			ok = c.errorf("Removal from empty queue succeeded")
			break
		}
		c.qcnt--

		removed := string(buf[:n])
		if buf[n] != 0 {
			ok = c.errorf("Removed value is not terminated")
		} else if check && removed != args[1] {
			ok = c.errorf("Removed value %s != expected value %s", removed, args[1])
		} else {
			c.report(1, "Removed %s from queue", removed)
		}
	case errors.Is(err, queue.ErrNilQueue), errors.Is(err, queue.ErrEmptyQueue):
		if c.q != nil && c.qcnt > 0 {
			ok = c.errorf("Failed to remove head from queue holding %d elements", c.qcnt)
		}
	default:
		ok = c.errorf("%s", errors.Wrap(err, "remove head"))
	}

	if ok && c.q.Size() != c.qcnt {
		ok = c.errorf("Queue size is %d after removal, expected %d", c.q.Size(), c.qcnt)
	}
	c.showQueue(3)

	return ok
}

func (c *Console) doRemoveHeadQuiet(args []string) bool {
	if len(args) != 1 {
		return c.errorf("%s takes no arguments", args[0])
	}

	if c.q == nil {
		c.warn("Calling remove head on null queue")
	} else if c.qcnt == 0 {
		c.warn("Calling remove head on empty queue")
	}

	_, err := c.q.RemoveHead(nil)

	ok := true
	switch {
	case errors.Is(err, queue.ErrNoBuffer):
		if c.q == nil || c.qcnt == 0 {
			ok = c.errorf("Removal from empty queue succeeded")
			break
		}
		c.qcnt--
		c.report(1, "Removed element from queue")
	case err == nil:
		ok = c.errorf("Removal without buffer reported a delivered value")
		if c.q != nil && c.qcnt > 0 {
			c.qcnt--
		}
	case errors.Is(err, queue.ErrNilQueue), errors.Is(err, queue.ErrEmptyQueue):
		if c.q != nil && c.qcnt > 0 {
			ok = c.errorf("Failed to remove head from queue holding %d elements", c.qcnt)
		}
	default:
		ok = c.errorf("%s", errors.Wrap(err, "remove head"))
	}
	c.showQueue(3)

	return ok
}

func (c *Console) doSize(args []string) bool {
	if len(args) != 1 && len(args) != 2 {
		return c.errorf("%s takes 0-1 arguments", args[0])
	}

	reps := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return c.errorf("Invalid number of calls to size '%s'", args[1])
		}
		reps = n
	}

	if c.q == nil {
		c.warn("Calling size on null queue")
	}

	cnt := 0
	for range reps {
		cnt = c.q.Size()
	}

	if cnt != c.qcnt {
		return c.errorf("Computed queue size as %d, but correct value is %d", cnt, c.qcnt)
	}
	c.report(1, "Queue size = %d", cnt)
	c.showQueue(3)

	return true
}

func (c *Console) doReverse(args []string) bool {
	if len(args) != 1 {
		return c.errorf("%s takes no arguments", args[0])
	}

	if c.q == nil {
		c.warn("Calling reverse on null queue")
	}

	var before []string
	if c.q != nil {
		before = c.q.Values()
	}
	c.q.Reverse()

	ok := c.checkQueue()
	if ok {
		after := c.q.Values()
		for i, v := range before {
			if after[len(after)-1-i] != v {
				ok = c.errorf("Element %d is %s after reverse, expected %s", len(after)-1-i, after[len(after)-1-i], v)
				break
			}
		}
	}
	c.showQueue(3)

	return ok
}

func (c *Console) doSort(args []string) bool {
	if len(args) != 1 {
		return c.errorf("%s takes no arguments", args[0])
	}

	if c.q == nil {
		c.warn("Calling sort on null queue")
	}

	c.q.Sort()

	ok := c.checkQueue()
	if ok {
		var prev *queue.Element
		for e := c.q.Head(); e != nil; e = e.Next() {
			if prev != nil && strings.Compare(prev.Value(), e.Value()) > 0 {
				ok = c.errorf("Not sorted in ascending order")
				break
			}
			prev = e
		}
	}
	c.showQueue(3)

	return ok
}

func (c *Console) doShow(args []string) bool {
	if len(args) != 1 {
		return c.errorf("%s takes no arguments", args[0])
	}

	return c.showQueue(0)
}

// checkQueue walks the queue from its head and verifies that it holds exactly
// the shadow count of elements and ends at its tail.
func (c *Console) checkQueue() bool {
	if c.q == nil {
		return true
	}

	cnt := 0
	var last *queue.Element
	for e := c.q.Head(); e != nil; e = e.Next() {
		cnt++
		if cnt > c.qcnt {
			return c.errorf("Queue has more than %d elements", c.qcnt)
		}
		last = e
	}

	if cnt != c.qcnt {
		return c.errorf("Queue has %d elements, expected %d", cnt, c.qcnt)
	}
	if last != c.q.Tail() {
		return c.errorf("Queue tail is not the last element")
	}
	if c.q.Size() != c.qcnt {
		return c.errorf("Queue size is %d, expected %d", c.q.Size(), c.qcnt)
	}

	return true
}

// showQueue prints the queue contents when the verbosity is at least level.
func (c *Console) showQueue(level int) bool {
	if c.verbose < level {
		return true
	}

	if c.q == nil {
		c.printf("q = NULL\n")
		return true
	}

	var sb strings.Builder
	sb.WriteString("q = [")
	cnt := 0
	for e := c.q.Head(); e != nil; e = e.Next() {
		if cnt > c.qcnt {
			c.printf("%s\n", sb.String())
			return c.errorf("Queue has more than %d elements", c.qcnt)
		}
		if cnt < maxShown {
			if cnt > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(e.Value())
		}
		cnt++
	}
	if cnt > maxShown {
		sb.WriteString(" ...")
	}
	sb.WriteByte(']')
	c.printf("%s\n", sb.String())

	if cnt != c.qcnt {
		return c.errorf("Queue has %d elements, expected %d", cnt, c.qcnt)
	}

	return true
}

func (c *Console) randomString() string {
	n := minRandomLength + c.rnd.IntN(maxRandomLength-minRandomLength+1)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + c.rnd.IntN(26))
	}

	return string(b)
}
