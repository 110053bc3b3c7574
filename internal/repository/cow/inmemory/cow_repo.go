package inmemory

import (
	"context"
	"sync"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/cow"
	repo "farmTracker/internal/repository"

	"go.uber.org/zap"
)

type CowStorage struct {
	storage map[string]*cow.Cow
	// активная бирка -> id коровы, держит глобальную уникальность
	byEarTag map[string]string
	mtx      *sync.RWMutex
}

func NewCowStorage() *CowStorage {
	return &CowStorage{
		storage:  make(map[string]*cow.Cow),
		byEarTag: make(map[string]string),
		mtx:      &sync.RWMutex{},
	}
}

// Create проверяет уникальность бирки и вставляет запись под одной блокировкой
func (s *CowStorage) Create(ctx context.Context, cowToCreate *cow.Cow) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[cowToCreate.ID]; ok {
		return repo.ErrDuplicate
	}
	if _, taken := s.byEarTag[cowToCreate.EarTagNumber]; taken {
		logger.Warn("Repository: Бирка уже зарегистрирована",
			zap.String("ear_tag_number", cowToCreate.EarTagNumber))
		return repo.ErrDuplicate
	}

	if cowToCreate.CreatedAt.IsZero() {
		cowToCreate.CreatedAt = time.Now()
	}
	cowToCreate.IsActive = true

	s.storage[cowToCreate.ID] = cowToCreate.Clone()
	s.byEarTag[cowToCreate.EarTagNumber] = cowToCreate.ID
	return nil
}

func (s *CowStorage) GetActiveByID(ctx context.Context, farmID, id string) (*cow.Cow, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.storage[id]
	if !ok || !c.IsActive || c.FarmID != farmID {
		return nil, repo.ErrNotFound
	}
	return c.Clone(), nil
}

// FindActiveByEarTag ищет по всей системе, без учёта фермы
func (s *CowStorage) FindActiveByEarTag(ctx context.Context, earTag string) (*cow.Cow, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byEarTag[earTag]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.storage[id].Clone(), nil
}
