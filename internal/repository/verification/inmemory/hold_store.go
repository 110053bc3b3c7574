package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/verification"
	repo "farmTracker/internal/repository"

	"go.uber.org/zap"
)

// HoldStore держит заявки на регистрацию в памяти процесса.
// Истечение не удаляет запись само: её убирает SweepExpired или сервис при обращении.
type HoldStore struct {
	holds map[string]*verification.Pending
	mtx   *sync.Mutex
}

func NewHoldStore() *HoldStore {
	return &HoldStore{
		holds: make(map[string]*verification.Pending),
		mtx:   &sync.Mutex{},
	}
}

func (s *HoldStore) Put(ctx context.Context, hold *verification.Pending) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.holds[hold.ID]; ok {
		return repo.ErrDuplicate
	}
	s.holds[hold.ID] = hold.Clone()
	return nil
}

func (s *HoldStore) Get(ctx context.Context, id string) (*verification.Pending, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	hold, ok := s.holds[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return hold.Clone(), nil
}

// Take удаляет и возвращает заявку; из нескольких одновременных вызовов запись получает только один
func (s *HoldStore) Take(ctx context.Context, id string) (*verification.Pending, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	hold, ok := s.holds[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	delete(s.holds, id)
	return hold, nil
}

func (s *HoldStore) Delete(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.holds, id)
	return nil
}

func (s *HoldStore) ListByOwner(ctx context.Context, userID string) ([]*verification.Pending, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	res := []*verification.Pending{}
	for _, hold := range s.holds {
		if hold.UserID == userID {
			res = append(res, hold.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *HoldStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	removed := 0
	for id, hold := range s.holds {
		if hold.Expired(now) {
			delete(s.holds, id)
			removed++
		}
	}

	if removed > 0 {
		logger.Info("Repository: Удалены просроченные заявки", zap.Int("count", removed))
	}
	return removed, nil
}
