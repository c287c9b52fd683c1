package queue

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomWord(r *rand.Rand, maxLen int) string {
	b := make([]byte, 1+r.IntN(maxLen))
	for i := range b {
		b[i] = byte('a' + r.IntN(4))
	}
	return string(b)
}

func TestQueueSort(t *testing.T) {
	t.Run("Scenario", func(t *testing.T) {
		q := newQueue(t, "b", "a", "c")

		q.Sort()
		assert.Equal(t, []string{"a", "b", "c"}, q.Values())
		assert.Equal(t, 3, q.Size())
		assert.Equal(t, "c", q.Tail().Value())
		checkInvariants(t, q)
	})

	t.Run("Trivial", func(t *testing.T) {
		q := newQueue(t)
		q.Sort()
		checkInvariants(t, q)

		require.NoError(t, q.InsertTail("z"))
		q.Sort()
		assert.Equal(t, []string{"z"}, q.Values())
		checkInvariants(t, q)
	})

	t.Run("Byte Order", func(t *testing.T) {
		q := newQueue(t, "b", "B", "ab", "a", "", "a\x00", "Z", "é", "e")

		q.Sort()
		assert.Equal(t, []string{"", "B", "Z", "a", "a\x00", "ab", "b", "e", "é"}, q.Values())
		checkInvariants(t, q)
	})

	t.Run("Reverse Sorted Input", func(t *testing.T) {
		q := newQueue(t)
		for i := range 100 {
			require.NoError(t, q.InsertHead(strconv.Itoa(1000+i)))
		}

		q.Sort()
		values := q.Values()
		assert.True(t, slices.IsSorted(values))
		assert.Equal(t, "1000", values[0])
		assert.Equal(t, "1099", q.Tail().Value())
		checkInvariants(t, q)
	})

	t.Run("Stable", func(t *testing.T) {
		q := newQueue(t, "b", "a", "b", "a", "b")
		var bs []*Element
		for e := q.Head(); e != nil; e = e.Next() {
			if e.Value() == "b" {
				bs = append(bs, e)
			}
		}

		q.Sort()
		require.Equal(t, []string{"a", "a", "b", "b", "b"}, q.Values())

		var sorted []*Element
		for e := q.Head(); e != nil; e = e.Next() {
			if e.Value() == "b" {
				sorted = append(sorted, e)
			}
		}
		for i := range bs {
			assert.Same(t, bs[i], sorted[i], "equal values must keep their input order")
		}
	})

	t.Run("Random Permutation", func(t *testing.T) {
		r := rand.New(rand.NewPCG(1, 2))
		for round := range 50 {
			n := r.IntN(200)
			q := newQueue(t)
			input := make([]string, 0, n)
			for range n {
				v := randomWord(r, 6)
				input = append(input, v)
				if r.IntN(2) == 0 {
					require.NoError(t, q.InsertHead(v))
				} else {
					require.NoError(t, q.InsertTail(v))
				}
			}

			q.Sort()
			got := q.Values()

			slices.Sort(input)
			require.Equal(t, input, got, "round %d", round)
			require.Equal(t, n, q.Size())
			checkInvariants(t, q)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		q := newQueue(t, "delta", "alpha", "charlie", "bravo", "alpha")

		q.Sort()
		first := q.Values()
		q.Sort()
		assert.Equal(t, first, q.Values())
		checkInvariants(t, q)
	})

	t.Run("Then Reverse", func(t *testing.T) {
		q := newQueue(t, "2", "3", "1")

		q.Sort()
		q.Reverse()
		assert.Equal(t, []string{"3", "2", "1"}, q.Values())
		checkInvariants(t, q)
	})
}

func TestMerge(t *testing.T) {
	build := func(values ...string) *Element {
		var head *Element
		for i := len(values) - 1; i >= 0; i-- {
			head = &Element{value: values[i], next: head}
		}
		return head
	}
	collect := func(e *Element) []string {
		var values []string
		for ; e != nil; e = e.next {
			values = append(values, e.value)
		}
		return values
	}

	assert.Nil(t, merge(nil, nil))
	assert.Equal(t, []string{"a"}, collect(merge(build("a"), nil)))
	assert.Equal(t, []string{"a"}, collect(merge(nil, build("a"))))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, collect(merge(build("a", "d"), build("b", "c", "e"))))
}

func BenchmarkQueueSort(b *testing.B) {
	r := rand.New(rand.NewPCG(7, 11))
	words := make([]string, 10000)
	for i := range words {
		words[i] = randomWord(r, 12)
	}

	b.ResetTimer()
	for range b.N {
		b.StopTimer()
		q, _ := New()
		for _, w := range words {
			_ = q.InsertTail(w)
		}
		b.StartTimer()

		q.Sort()

		b.StopTimer()
		q.Free()
		b.StartTimer()
	}
}

func BenchmarkQueueInsertRemove(b *testing.B) {
	q, _ := New()
	defer q.Free()

	buf := make([]byte, 32)
	b.ResetTimer()
	for i := range b.N {
		_ = q.InsertTail("benchmark value")
		if i%2 == 1 {
			_, _ = q.RemoveHead(buf)
		}
	}
}
