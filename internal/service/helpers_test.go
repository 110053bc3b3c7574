package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"farmTracker/internal/auth"
	"farmTracker/internal/models/cow"
	"farmTracker/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

var (
	farmer   = auth.Actor{UserID: "user-1", FarmID: "farm-1"}
	neighbor = auth.Actor{UserID: "user-2", FarmID: "farm-2"}
)

type fakeClock struct {
	mtx sync.Mutex
	now time.Time
}

func newClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}

// MockTraceLookuper - мок системы прослеживаемости
type MockTraceLookuper struct {
	mock.Mock
}

func (m *MockTraceLookuper) Lookup(ctx context.Context, earTag, option string) ([]cow.Record, error) {
	args := m.Called(ctx, earTag, option)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cow.Record), args.Error(1)
}

var _ service.TraceLookuper = (*MockTraceLookuper)(nil)

func ptr[T any](v T) *T {
	return &v
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	busErr, ok := service.AsBusiness(err)
	require.True(t, ok, "ожидалась BusinessError, получено %v", err)
	require.Equal(t, code, busErr.Code, busErr.Error())
}
