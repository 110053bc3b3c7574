package trace

import (
	"context"
	"sync"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/cow"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type memoEntry struct {
	records  []cow.Record
	storedAt time.Time
}

// Memo запоминает успешные ответы на ttl и склеивает одновременные запросы одной бирки.
// Ошибки не запоминаются.
type Memo struct {
	next  Lookuper
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mtx     sync.Mutex
	entries map[string]memoEntry
}

func NewMemo(next Lookuper, ttl time.Duration) *Memo {
	return &Memo{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoEntry),
	}
}

func (m *Memo) Lookup(ctx context.Context, earTag, option string) ([]cow.Record, error) {
	key := earTag + "|" + option

	if records, ok := m.cached(key); ok {
		logger.Debug("Trace: Ответ из кэша", zap.String("ear_tag_number", earTag))
		return cloneRecords(records), nil
	}

	// общий запрос не зависит от отмены первого вызывающего; каждый ждёт по своему ctx,
	// а длительность ограничивает таймаут клиента
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		records, err := m.next.Lookup(shared, earTag, option)
		if err != nil {
			return nil, err
		}
		m.store(key, records)
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("Trace: Запрос объединён с параллельным", zap.String("ear_tag_number", earTag))
		}
		return cloneRecords(res.Val.([]cow.Record)), nil
	}
}

func (m *Memo) cached(key string) ([]cow.Record, bool) {
	if m.ttl <= 0 {
		return nil, false
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.storedAt) >= m.ttl {
		delete(m.entries, key)
		return nil, false
	}
	return entry.records, true
}

func (m *Memo) store(key string, records []cow.Record) {
	if m.ttl <= 0 {
		return
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	now := m.now()
	for k, entry := range m.entries {
		if now.Sub(entry.storedAt) >= m.ttl {
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoEntry{records: cloneRecords(records), storedAt: now}
}

func cloneRecords(records []cow.Record) []cow.Record {
	if records == nil {
		return nil
	}
	res := make([]cow.Record, len(records))
	for i, r := range records {
		res[i] = r.Clone()
	}
	return res
}
