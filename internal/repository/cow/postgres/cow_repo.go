package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/cow"
	repo "farmTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const cowColumns = `
	id,
	farm_id,
	owner_id,
	ear_tag_number,
	name,
	breed,
	sex,
	birth_date,
	notes,
	source,
	trace_data,
	verified_at,
	is_active,
	created_at,
	updated_at`

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Create опирается на частичный уникальный индекс uq_cows_active_ear_tag:
// вторая активная корова с той же биркой получает ErrDuplicate
func (s *Storage) Create(ctx context.Context, cowToCreate *cow.Cow) error {
	start := time.Now()

	if cowToCreate.CreatedAt.IsZero() {
		cowToCreate.CreatedAt = time.Now()
	}
	traceData := cowToCreate.TraceData
	if traceData == nil {
		traceData = []cow.Record{}
	}

	query := `INSERT INTO cows (` + cowColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, $13, NULL)
				RETURNING is_active`

	err := s.pool.QueryRow(ctx, query,
		cowToCreate.ID,
		cowToCreate.FarmID,
		cowToCreate.OwnerID,
		cowToCreate.EarTagNumber,
		cowToCreate.Name,
		cowToCreate.Breed,
		cowToCreate.Sex,
		cowToCreate.BirthDate,
		cowToCreate.Notes,
		cowToCreate.Source,
		traceData,
		cowToCreate.VerifiedAt,
		cowToCreate.CreatedAt,
	).Scan(&cowToCreate.IsActive)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			logger.Warn("Repository: Бирка уже зарегистрирована",
				zap.String("ear_tag_number", cowToCreate.EarTagNumber))
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить корову", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление коровы: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetActiveByID(ctx context.Context, farmID, id string) (*cow.Cow, error) {
	query := `SELECT ` + cowColumns + `
				FROM cows
				WHERE id = $1 AND farm_id = $2 AND is_active`
	return s.getOne(ctx, query, id, farmID)
}

func (s *Storage) FindActiveByEarTag(ctx context.Context, earTag string) (*cow.Cow, error) {
	query := `SELECT ` + cowColumns + `
				FROM cows
				WHERE ear_tag_number = $1 AND is_active`
	return s.getOne(ctx, query, earTag)
}

func (s *Storage) getOne(ctx context.Context, query string, args ...any) (*cow.Cow, error) {
	start := time.Now()

	c, err := scanCow(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить корову", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение коровы: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return c, nil
}

func scanCow(row pgx.Row) (*cow.Cow, error) {
	c := &cow.Cow{}
	err := row.Scan(
		&c.ID,
		&c.FarmID,
		&c.OwnerID,
		&c.EarTagNumber,
		&c.Name,
		&c.Breed,
		&c.Sex,
		&c.BirthDate,
		&c.Notes,
		&c.Source,
		&c.TraceData,
		&c.VerifiedAt,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
