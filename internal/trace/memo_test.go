package trace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"farmTracker/internal/models/cow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLookuper struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (l *countingLookuper) Lookup(ctx context.Context, earTag, option string) ([]cow.Record, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.err != nil {
		return nil, l.err
	}
	return []cow.Record{{"cattleNo": earTag, "optionNo": option}}, nil
}

func TestMemo_CachesWithinTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	next := &countingLookuper{}

	memo := NewMemo(next, 10*time.Minute)
	memo.now = func() time.Time { return now }

	first, err := memo.Lookup(ctx, "002012345678", "1")
	require.NoError(t, err)
	first[0]["cattleNo"] = "changed"

	second, err := memo.Lookup(ctx, "002012345678", "1")
	require.NoError(t, err)
	assert.Equal(t, "002012345678", second[0]["cattleNo"])
	assert.Equal(t, int32(1), next.calls.Load())

	// другой option - другой ключ
	_, err = memo.Lookup(ctx, "002012345678", "2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())

	now = now.Add(10 * time.Minute)
	_, err = memo.Lookup(ctx, "002012345678", "1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestMemo_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingLookuper{err: ErrTimeout}
	memo := NewMemo(next, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := memo.Lookup(ctx, "002012345678", "1")
		assert.True(t, errors.Is(err, ErrTimeout))
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestMemo_ConcurrentLookupsShareOneCall(t *testing.T) {
	ctx := context.Background()
	next := &countingLookuper{release: make(chan struct{})}
	memo := NewMemo(next, time.Minute)

	var wg sync.WaitGroup
	results := make(chan []cow.Record, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := memo.Lookup(ctx, "002012345678", "1")
			if err == nil {
				results <- records
			}
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(next.release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Len(t, results, 5)
}

// TestMemo_CancelledCallerDoesNotFailOthers - отмена первого вызывающего не ломает присоединившихся
func TestMemo_CancelledCallerDoesNotFailOthers(t *testing.T) {
	next := &countingLookuper{release: make(chan struct{})}
	memo := NewMemo(next, time.Minute)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := memo.Lookup(leaderCtx, "002012345678", "1")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		records []cow.Record
		err     error
	}
	joined := make(chan result, 1)
	go func() {
		records, err := memo.Lookup(context.Background(), "002012345678", "1")
		joined <- result{records: records, err: err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("отменённый вызов не вернулся")
	}

	close(next.release)
	select {
	case res := <-joined:
		require.NoError(t, res.err)
		require.Len(t, res.records, 1)
		assert.Equal(t, "002012345678", res.records[0]["cattleNo"])
	case <-time.After(time.Second):
		t.Fatal("присоединившийся вызов не вернулся")
	}

	assert.Equal(t, int32(1), next.calls.Load())
}

func TestMemo_ZeroTTLDisablesCache(t *testing.T) {
	ctx := context.Background()
	next := &countingLookuper{}
	memo := NewMemo(next, 0)

	for i := 0; i < 3; i++ {
		_, err := memo.Lookup(ctx, "002012345678", "1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), next.calls.Load())
}
