package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/verification"
	repo "farmTracker/internal/repository"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// запись живёт в redis дольше своего expires_at, чтобы истёкшая заявка
// отвечала "expired", а не пропадала как несуществующая
const retentionGrace = 24 * time.Hour

// HoldStore хранит заявки в redis:
//
//	<prefix>hold:<id>        JSON заявки
//	<prefix>holds:expiry     ZSET id -> expires_at (unix ms)
//	<prefix>holds:user:<id>  SET id заявок пользователя
type HoldStore struct {
	client *goredis.Client
	prefix string
}

func NewHoldStore(client *goredis.Client, prefix string) *HoldStore {
	return &HoldStore{client: client, prefix: prefix}
}

func (s *HoldStore) holdKey(id string) string {
	return s.prefix + "hold:" + id
}

func (s *HoldStore) expiryKey() string {
	return s.prefix + "holds:expiry"
}

func (s *HoldStore) userKey(userID string) string {
	return s.prefix + "holds:user:" + userID
}

func (s *HoldStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		logger.Error("Repository: Redis недоступен", err)
		return fmt.Errorf("проверка redis: %w", err)
	}
	return nil
}

func (s *HoldStore) Put(ctx context.Context, hold *verification.Pending) error {
	data, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("сериализация заявки: %w", err)
	}

	ttl := time.Until(hold.ExpiresAt) + retentionGrace
	if ttl < retentionGrace {
		ttl = retentionGrace
	}

	created, err := s.client.SetNX(ctx, s.holdKey(hold.ID), data, ttl).Result()
	if err != nil {
		logger.Error("Repository: Не удалось сохранить заявку", err)
		return fmt.Errorf("сохранение заявки: %w", err)
	}
	if !created {
		return repo.ErrDuplicate
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZAdd(ctx, s.expiryKey(), goredis.Z{Score: float64(hold.ExpiresAt.UnixMilli()), Member: hold.ID})
		pipe.SAdd(ctx, s.userKey(hold.UserID), hold.ID)
		return nil
	})
	if err != nil {
		logger.Error("Repository: Не удалось обновить индексы заявок", err)
		return fmt.Errorf("индексы заявки: %w", err)
	}
	return nil
}

func (s *HoldStore) Get(ctx context.Context, id string) (*verification.Pending, error) {
	data, err := s.client.Get(ctx, s.holdKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить заявку", err)
		return nil, fmt.Errorf("получение заявки: %w", err)
	}
	return decode(data)
}

// Take опирается на GETDEL: значение получает только один из конкурирующих вызовов
func (s *HoldStore) Take(ctx context.Context, id string) (*verification.Pending, error) {
	data, err := s.client.GetDel(ctx, s.holdKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось забрать заявку", err)
		return nil, fmt.Errorf("получение заявки: %w", err)
	}

	hold, err := decode(data)
	if err != nil {
		return nil, err
	}
	s.dropIndexes(ctx, hold.ID, hold.UserID)
	return hold, nil
}

func (s *HoldStore) Delete(ctx context.Context, id string) error {
	_, err := s.Take(ctx, id)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if errors.Is(err, repo.ErrNotFound) {
		s.client.ZRem(ctx, s.expiryKey(), id)
	}
	return nil
}

func (s *HoldStore) ListByOwner(ctx context.Context, userID string) ([]*verification.Pending, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		logger.Error("Repository: Не удалось получить заявки пользователя", err)
		return nil, fmt.Errorf("список заявок: %w", err)
	}

	res := []*verification.Pending{}
	if len(ids) == 0 {
		return res, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.holdKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Error("Repository: Не удалось получить заявки", err)
		return nil, fmt.Errorf("список заявок: %w", err)
	}

	var missing []any
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		hold, err := decode([]byte(raw))
		if err != nil {
			logger.Warn("Repository: Битая заявка", zap.String("verification_id", ids[i]), zap.Error(err))
			continue
		}
		res = append(res, hold)
	}

	// ключ мог истечь по TTL redis, индекс пользователя подчищаем
	if len(missing) > 0 {
		s.client.SRem(ctx, s.userKey(userID), missing...)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *HoldStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	// expires_at == now ещё не истекла, поэтому граница исключающая
	ids, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		logger.Error("Repository: Не удалось выбрать просроченные заявки", err)
		return 0, fmt.Errorf("выборка просроченных заявок: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if _, err := s.Take(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				s.client.ZRem(ctx, s.expiryKey(), id)
				continue
			}
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Repository: Удалены просроченные заявки", zap.Int("count", removed))
	}
	return removed, nil
}

func (s *HoldStore) dropIndexes(ctx context.Context, id, userID string) {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRem(ctx, s.expiryKey(), id)
		pipe.SRem(ctx, s.userKey(userID), id)
		return nil
	})
	if err != nil {
		logger.Warn("Repository: Не удалось очистить индексы заявки",
			zap.String("verification_id", id), zap.Error(err))
	}
}

func decode(data []byte) (*verification.Pending, error) {
	hold := &verification.Pending{}
	if err := json.Unmarshal(data, hold); err != nil {
		return nil, fmt.Errorf("разбор заявки: %w", err)
	}
	return hold, nil
}
