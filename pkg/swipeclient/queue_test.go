package swipeclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(id int64) Candidate {
	return Candidate{Profile: Profile{ID: id}, Score: Score{Total: 1 / float64(id)}}
}

func batchOf(ids ...int64) *Batch {
	b := &Batch{Candidates: []Candidate{}}
	for _, id := range ids {
		b.Candidates = append(b.Candidates, cand(id))
	}
	return b
}

// scriptedSource answers each call with the next scripted batch; once the
// script runs out it reports exhaustion.
type scriptedSource struct {
	mu       sync.Mutex
	batches  []*Batch
	errs     []error
	excludes [][]int64
	gate     chan struct{}
}

func (s *scriptedSource) FetchBatch(ctx context.Context, count int, exclude []int64) (*Batch, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excludes = append(s.excludes, append([]int64(nil), exclude...))

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(s.batches) == 0 {
		return &Batch{Exhausted: true}, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func (s *scriptedSource) calls() [][]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.excludes
}

func waitQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(ctx))
}

func ids(cs []Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID()
	}
	return out
}

func TestQueueBack(t *testing.T) {
	t.Run("fresh queue has no history", func(t *testing.T) {
		q := NewQueue(&scriptedSource{})
		defer q.Close()

		_, err := q.Back()
		assert.ErrorIs(t, err, ErrNoHistory)
	})

	t.Run("undo is bounded by history depth", func(t *testing.T) {
		src := &scriptedSource{batches: []*Batch{batchOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)}}
		q := NewQueue(src)
		defer q.Close()
		q.Refill()
		waitQueue(t, q)

		for i := 0; i < 6; i++ {
			_, err := q.Next()
			require.NoError(t, err)
			waitQueue(t, q)
		}
		assert.Equal(t, 3, q.HistoryLen())

		for want := int64(5); want >= 3; want-- {
			c, err := q.Back()
			require.NoError(t, err)
			assert.Equal(t, want, c.ID())
		}
		_, err := q.Back()
		assert.ErrorIs(t, err, ErrNoHistory)
	})

	t.Run("back puts current at the front", func(t *testing.T) {
		src := &scriptedSource{batches: []*Batch{batchOf(1, 2, 3, 4, 5, 6)}}
		q := NewQueue(src)
		defer q.Close()
		q.Refill()
		waitQueue(t, q)

		_, err := q.Next()
		require.NoError(t, err)
		_, err = q.Next()
		require.NoError(t, err)

		prev, err := q.Back()
		require.NoError(t, err)
		assert.Equal(t, int64(1), prev.ID())

		cur, ok := q.Current()
		require.True(t, ok)
		assert.Equal(t, int64(1), cur.ID())

		next, err := q.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(2), next.ID())
	})
}

func TestQueueRefill(t *testing.T) {
	t.Run("refill appends after low water", func(t *testing.T) {
		src := &scriptedSource{batches: []*Batch{batchOf(1, 2, 3, 4), batchOf(5, 6)}}
		q := NewQueue(src, WithLowWater(3))
		defer q.Close()
		q.Refill()
		waitQueue(t, q)

		c, err := q.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(1), c.ID())
		waitQueue(t, q)

		var got []Candidate
		for {
			c, err := q.Next()
			if err != nil {
				assert.ErrorIs(t, err, ErrExhausted)
				break
			}
			got = append(got, c)
			waitQueue(t, q)
		}
		assert.Equal(t, []int64{2, 3, 4, 5, 6}, ids(got))

		calls := src.calls()
		require.GreaterOrEqual(t, len(calls), 2)
		assert.ElementsMatch(t, []int64{1, 2, 3, 4}, calls[1])
	})

	t.Run("duplicates are dropped", func(t *testing.T) {
		src := &scriptedSource{batches: []*Batch{batchOf(1, 2), batchOf(2, 3)}}
		q := NewQueue(src, WithLowWater(1))
		defer q.Close()
		q.Refill()
		waitQueue(t, q)

		_, err := q.Next()
		require.NoError(t, err)
		waitQueue(t, q)
		assert.Equal(t, 2, q.Len())
	})

	t.Run("next does not wait for refill", func(t *testing.T) {
		src := &scriptedSource{gate: make(chan struct{}), batches: []*Batch{batchOf(1)}}
		q := NewQueue(src)
		defer q.Close()

		done := make(chan error, 1)
		go func() {
			_, err := q.Next()
			done <- err
		}()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrRefillPending)
		case <-time.After(time.Second):
			t.Fatal("Next blocked on refill")
		}

		close(src.gate)
		waitQueue(t, q)
		c, err := q.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(1), c.ID())
	})

	t.Run("exhaustion is terminal until refill", func(t *testing.T) {
		src := &scriptedSource{}
		q := NewQueue(src)
		defer q.Close()
		q.Refill()
		waitQueue(t, q)

		_, err := q.Next()
		assert.ErrorIs(t, err, ErrExhausted)
		assert.True(t, q.Exhausted())

		src.mu.Lock()
		src.batches = []*Batch{batchOf(9)}
		src.mu.Unlock()
		q.Refill()
		waitQueue(t, q)

		c, err := q.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(9), c.ID())
	})

	t.Run("refill error surfaces once", func(t *testing.T) {
		boom := errors.New("offline")
		src := &scriptedSource{errs: []error{boom}, batches: []*Batch{batchOf(1)}}
		q := NewQueue(src)
		defer q.Close()
		q.Refill()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.ErrorIs(t, q.Wait(ctx), boom)

		_, err := q.Next()
		assert.ErrorIs(t, err, boom)
		waitQueue(t, q)

		c, err := q.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(1), c.ID())
	})

	t.Run("close cancels in-flight refill", func(t *testing.T) {
		src := &scriptedSource{gate: make(chan struct{})}
		q := NewQueue(src)
		q.Refill()

		closed := make(chan struct{})
		go func() {
			q.Close()
			close(closed)
		}()
		select {
		case <-closed:
		case <-time.After(time.Second):
			t.Fatal("Close did not return")
		}
	})
}
