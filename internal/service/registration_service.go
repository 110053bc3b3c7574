package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"farmTracker/internal/auth"
	"farmTracker/internal/logger"
	"farmTracker/internal/models/cow"
	"farmTracker/internal/models/verification"
	repo "farmTracker/internal/repository"
	"farmTracker/internal/trace"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	resourceVerification = "Заявка на регистрацию"

	maxCowNameLength = 100
)

// RegistrationService ведёт регистрацию коровы по данным системы прослеживаемости:
// verify создаёт временную заявку, confirm превращает её в запись реестра, cancel удаляет.
type RegistrationService struct {
	holds HoldStore
	cows  CowRegistry
	trace TraceLookuper
	settings
}

func NewRegistrationService(holds HoldStore, cows CowRegistry, lookuper TraceLookuper, opts ...Option) *RegistrationService {
	return &RegistrationService{
		holds:    holds,
		cows:     cows,
		trace:    lookuper,
		settings: newSettings(opts),
	}
}

type VerifyResult struct {
	VerificationID   string               `json:"verification_id"`
	Summary          verification.Summary `json:"summary"`
	ExpiresAt        time.Time            `json:"expires_at"`
	ExpiresInMinutes int                  `json:"expires_in_minutes"`
}

type ConfirmInput struct {
	VerificationID string
	CustomName     *string
	Notes          *string
}

type ConfirmResult struct {
	CowID   string               `json:"cow_id"`
	Summary verification.Summary `json:"summary"`
	Cow     *cow.Cow             `json:"cow"`
}

type PendingView struct {
	VerificationID   string               `json:"verification_id"`
	EarTagNumber     string               `json:"ear_tag_number"`
	Summary          verification.Summary `json:"summary"`
	CreatedAt        time.Time            `json:"created_at"`
	ExpiresAt        time.Time            `json:"expires_at"`
	MinutesRemaining int                  `json:"minutes_remaining"`
}

func (s *RegistrationService) Verify(ctx context.Context, actor auth.Actor, earTag, option string) (*VerifyResult, error) {
	normalized, ok := cow.NormalizeEarTag(earTag)
	if !ok {
		return nil, NewValidationError("ear_tag_number", fmt.Sprintf("ожидается %d цифр", cow.EarTagLength))
	}

	option = strings.TrimSpace(option)
	if option == "" {
		option = verification.DefaultOption
	}
	if !isDigits(option) {
		return nil, NewValidationError("option_number", "ожидается число")
	}

	// проверка дубликата до обращения во внешнюю систему
	if err := s.ensureNotRegistered(ctx, normalized); err != nil {
		return nil, err
	}

	records, err := s.trace.Lookup(ctx, normalized, option)
	if err != nil {
		return nil, mapTraceError(err, normalized)
	}
	if len(records) == 0 {
		return nil, traceNotFound(normalized)
	}

	now := s.now()
	hold := &verification.Pending{
		ID:           uuid.NewString(),
		UserID:       actor.UserID,
		FarmID:       actor.FarmID,
		EarTagNumber: normalized,
		Option:       option,
		Records:      records,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.holdTTL),
	}

	if err := s.holds.Put(ctx, hold); err != nil {
		logger.Error("Service: Не удалось сохранить заявку", err, zap.String("ear_tag_number", normalized))
		return nil, NewInternal("не удалось сохранить заявку", err)
	}

	logger.Info("Service: Создана заявка на регистрацию",
		zap.String("verification_id", hold.ID),
		zap.String("ear_tag_number", normalized),
		zap.String("user_id", actor.UserID))

	return &VerifyResult{
		VerificationID:   hold.ID,
		Summary:          verification.Summarize(normalized, records),
		ExpiresAt:        hold.ExpiresAt,
		ExpiresInMinutes: int(s.holdTTL / time.Minute),
	}, nil
}

// Confirm регистрирует корову по заявке. Заявка забирается из хранилища атомарно,
// поэтому из параллельных подтверждений одной заявки успешно только одно.
func (s *RegistrationService) Confirm(ctx context.Context, actor auth.Actor, in ConfirmInput) (*ConfirmResult, error) {
	name, err := cowName(in.CustomName)
	if err != nil {
		return nil, err
	}

	hold, err := s.ownedHold(ctx, actor, in.VerificationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if hold.Expired(now) {
		s.dropHold(ctx, hold.ID)
		return nil, expired(hold.ID)
	}

	taken, err := s.holds.Take(ctx, hold.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Заявка уже использована", zap.String("verification_id", hold.ID))
			return nil, NewNotFound(resourceVerification, hold.ID)
		}
		return nil, NewInternal("не удалось получить заявку", err)
	}
	// с этого момента заявка удалена при любом исходе

	if taken.Expired(s.now()) {
		return nil, expired(taken.ID)
	}

	if err := s.ensureNotRegistered(ctx, taken.EarTagNumber); err != nil {
		return nil, err
	}

	summary := verification.Summarize(taken.EarTagNumber, taken.Records)
	if name == "" {
		name = cow.DefaultName(taken.EarTagNumber)
	}

	newCow := &cow.Cow{
		ID:           uuid.NewString(),
		FarmID:       actor.FarmID,
		OwnerID:      actor.UserID,
		EarTagNumber: taken.EarTagNumber,
		Name:         name,
		Breed:        summary.Breed,
		Sex:          summary.Sex,
		BirthDate:    summary.BirthDate,
		Source:       cow.SourceVerifiedTrace,
		TraceData:    taken.Records,
		VerifiedAt:   &now,
		CreatedAt:    now,
	}
	if in.Notes != nil {
		newCow.Notes = strings.TrimSpace(*in.Notes)
	}

	if err := s.cows.Create(ctx, newCow); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, alreadyRegistered(taken.EarTagNumber)
		}
		logger.Error("Service: Не удалось зарегистрировать корову", err, zap.String("verification_id", taken.ID))
		return nil, NewInternal("не удалось зарегистрировать корову", err)
	}

	logger.Info("Service: Корова зарегистрирована",
		zap.String("verification_id", taken.ID),
		zap.String("cow_id", newCow.ID),
		zap.String("ear_tag_number", newCow.EarTagNumber),
		zap.String("farm_id", newCow.FarmID))

	return &ConfirmResult{CowID: newCow.ID, Summary: summary, Cow: newCow}, nil
}

// Cancel удаляет заявку владельца; истёкшую тоже
func (s *RegistrationService) Cancel(ctx context.Context, actor auth.Actor, verificationID string) error {
	hold, err := s.ownedHold(ctx, actor, verificationID)
	if err != nil {
		return err
	}

	if err := s.holds.Delete(ctx, hold.ID); err != nil {
		return NewInternal("не удалось удалить заявку", err)
	}

	logger.Info("Service: Заявка отменена", zap.String("verification_id", hold.ID))
	return nil
}

// ListPending сначала удаляет все истёкшие заявки системы, затем отдаёт заявки пользователя
func (s *RegistrationService) ListPending(ctx context.Context, actor auth.Actor) ([]PendingView, error) {
	now := s.sweep(ctx)

	holds, err := s.holds.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, NewInternal("не удалось получить заявки", err)
	}

	views := make([]PendingView, 0, len(holds))
	for _, hold := range holds {
		if hold.Expired(now) {
			continue
		}
		views = append(views, pendingView(hold, now))
	}
	return views, nil
}

func (s *RegistrationService) Status(ctx context.Context, actor auth.Actor, verificationID string) (*PendingView, error) {
	now := s.sweep(ctx)

	hold, err := s.ownedHold(ctx, actor, verificationID)
	if err != nil {
		return nil, err
	}
	if hold.Expired(now) {
		s.dropHold(ctx, hold.ID)
		return nil, expired(hold.ID)
	}

	view := pendingView(hold, now)
	return &view, nil
}

// SweepExpired - очистка истёкших заявок для фонового обхода
func (s *RegistrationService) SweepExpired(ctx context.Context) (int, error) {
	removed, err := s.holds.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("очистка заявок: %w", err)
	}
	return removed, nil
}

func (s *RegistrationService) sweep(ctx context.Context) time.Time {
	now := s.now()
	if _, err := s.holds.SweepExpired(ctx, now); err != nil {
		logger.Warn("Service: Не удалось очистить истёкшие заявки", zap.Error(err))
	}
	return now
}

func (s *RegistrationService) ownedHold(ctx context.Context, actor auth.Actor, verificationID string) (*verification.Pending, error) {
	verificationID = strings.TrimSpace(verificationID)
	if verificationID == "" {
		return nil, NewValidationError("verification_id", "не может быть пустым")
	}

	hold, err := s.holds.Get(ctx, verificationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(resourceVerification, verificationID)
		}
		return nil, NewInternal("не удалось получить заявку", err)
	}

	if hold.UserID != actor.UserID {
		logger.Warn("Service: Попытка доступа к чужой заявке",
			zap.String("verification_id", verificationID),
			zap.String("user_id", actor.UserID))
		return nil, NewForbidden("Заявка принадлежит другому пользователю",
			ToDetail("verification_id", verificationID))
	}
	return hold, nil
}

func (s *RegistrationService) ensureNotRegistered(ctx context.Context, earTag string) error {
	existing, err := s.cows.FindActiveByEarTag(ctx, earTag)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return NewInternal("не удалось проверить реестр", err)
	}

	logger.Info("Service: Бирка уже зарегистрирована",
		zap.String("ear_tag_number", earTag),
		zap.String("cow_id", existing.ID))
	return alreadyRegistered(earTag)
}

// ошибка очистки не влияет на результат основной операции
func (s *RegistrationService) dropHold(ctx context.Context, id string) {
	if err := s.holds.Delete(ctx, id); err != nil {
		logger.Warn("Service: Не удалось удалить заявку", zap.String("verification_id", id), zap.Error(err))
	}
}

func pendingView(hold *verification.Pending, now time.Time) PendingView {
	return PendingView{
		VerificationID:   hold.ID,
		EarTagNumber:     hold.EarTagNumber,
		Summary:          verification.Summarize(hold.EarTagNumber, hold.Records),
		CreatedAt:        hold.CreatedAt,
		ExpiresAt:        hold.ExpiresAt,
		MinutesRemaining: hold.MinutesRemaining(now),
	}
}

func mapTraceError(err error, earTag string) error {
	switch {
	case errors.Is(err, trace.ErrNotFound):
		return traceNotFound(earTag)
	case errors.Is(err, trace.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return NewUpstream(CodeUpstreamTimeout, "Система прослеживаемости не ответила вовремя", err)
	case errors.Is(err, trace.ErrMalformed):
		return NewUpstream(CodeUpstreamMalformed, "Система прослеживаемости вернула некорректный ответ", err)
	default:
		return NewUpstream(CodeUpstreamUnavailable, "Система прослеживаемости недоступна", err)
	}
}

func traceNotFound(earTag string) *BusinessError {
	return NewBusinessError(CodeTraceNotFound, "По бирке нет информации в системе прослеживаемости",
		ToDetail("ear_tag_number", earTag))
}

func alreadyRegistered(earTag string) *BusinessError {
	return NewConflict(CodeAlreadyRegistered, "Корова с этой биркой уже зарегистрирована",
		ToDetail("ear_tag_number", earTag))
}

func expired(id string) *BusinessError {
	return NewExpired("Срок заявки истёк, выполните проверку заново", ToDetail("verification_id", id))
}

func cowName(custom *string) (string, error) {
	if custom == nil {
		return "", nil
	}
	name := strings.TrimSpace(*custom)
	if utf8.RuneCountInString(name) > maxCowNameLength {
		return "", NewValidationError("custom_name", fmt.Sprintf("не длиннее %d символов", maxCowNameLength))
	}
	return name, nil
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
