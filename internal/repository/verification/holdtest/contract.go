// Package holdtest - общий набор проверок для реализаций хранилища заявок.
package holdtest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"farmTracker/internal/models/cow"
	"farmTracker/internal/models/verification"
	"farmTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Store interface {
	Put(ctx context.Context, hold *verification.Pending) error
	Get(ctx context.Context, id string) (*verification.Pending, error)
	Take(ctx context.Context, id string) (*verification.Pending, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string) ([]*verification.Pending, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

func NewHold(userID string, createdAt time.Time, ttl time.Duration) *verification.Pending {
	return &verification.Pending{
		ID:           uuid.NewString(),
		UserID:       userID,
		FarmID:       "farm-" + userID,
		EarTagNumber: "002012345678",
		Option:       verification.DefaultOption,
		Records:      []cow.Record{{"birthYmd": "20210304"}, {"farmNm": "행복농장"}},
		CreatedAt:    createdAt,
		ExpiresAt:    createdAt.Add(ttl),
	}
}

// Run прогоняет проверки; newStore должен возвращать пустое хранилище
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("put get delete", func(t *testing.T) {
		store := newStore(t)
		hold := NewHold("user-1", now, 30*time.Minute)
		require.NoError(t, store.Put(ctx, hold))

		got, err := store.Get(ctx, hold.ID)
		require.NoError(t, err)
		assert.Equal(t, hold.UserID, got.UserID)
		assert.Equal(t, hold.EarTagNumber, got.EarTagNumber)
		assert.Equal(t, "행복농장", got.Records[1]["farmNm"])
		assert.True(t, hold.ExpiresAt.Equal(got.ExpiresAt))

		require.NoError(t, store.Delete(ctx, hold.ID))
		_, err = store.Get(ctx, hold.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		// повторное удаление не ошибка
		assert.NoError(t, store.Delete(ctx, hold.ID))
	})

	t.Run("take is single use", func(t *testing.T) {
		store := newStore(t)
		hold := NewHold("user-1", now, 30*time.Minute)
		require.NoError(t, store.Put(ctx, hold))

		taken, err := store.Take(ctx, hold.ID)
		require.NoError(t, err)
		assert.Equal(t, hold.ID, taken.ID)

		_, err = store.Take(ctx, hold.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = store.Get(ctx, hold.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("concurrent take has one winner", func(t *testing.T) {
		store := newStore(t)
		hold := NewHold("user-1", now, 30*time.Minute)
		require.NoError(t, store.Put(ctx, hold))

		var (
			wg      sync.WaitGroup
			winners atomic.Int32
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Take(ctx, hold.ID); err == nil {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), winners.Load())
	})

	t.Run("list by owner", func(t *testing.T) {
		store := newStore(t)
		first := NewHold("user-1", now, 30*time.Minute)
		second := NewHold("user-1", now.Add(time.Second), 30*time.Minute)
		foreign := NewHold("user-2", now, 30*time.Minute)
		for _, h := range []*verification.Pending{second, foreign, first} {
			require.NoError(t, store.Put(ctx, h))
		}

		holds, err := store.ListByOwner(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, holds, 2)
		assert.Equal(t, first.ID, holds[0].ID)
		assert.Equal(t, second.ID, holds[1].ID)

		_, err = store.Take(ctx, first.ID)
		require.NoError(t, err)
		holds, err = store.ListByOwner(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, holds, 1)

		none, err := store.ListByOwner(ctx, "user-3")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("sweep expired across owners", func(t *testing.T) {
		store := newStore(t)
		stale := NewHold("user-1", now.Add(-time.Hour), 30*time.Minute)
		staleForeign := NewHold("user-2", now.Add(-time.Hour), 30*time.Minute)
		fresh := NewHold("user-1", now, 30*time.Minute)
		for _, h := range []*verification.Pending{stale, staleForeign, fresh} {
			require.NoError(t, store.Put(ctx, h))
		}

		// истёкшая запись остаётся видимой до очистки
		got, err := store.Get(ctx, stale.ID)
		require.NoError(t, err)
		assert.True(t, got.Expired(now))

		removed, err := store.SweepExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		_, err = store.Get(ctx, staleForeign.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = store.Get(ctx, fresh.ID)
		assert.NoError(t, err)
	})
}
