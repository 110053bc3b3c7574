package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"farmTracker/internal/models/cow"
	"farmTracker/internal/models/verification"
	"farmTracker/internal/repository"
	cowmem "farmTracker/internal/repository/cow/inmemory"
	holdmem "farmTracker/internal/repository/verification/inmemory"
	"farmTracker/internal/service"
	"farmTracker/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const earTag = "002012345678"

var traceRecords = []cow.Record{
	{verification.KeyBirthDate: "20200315", verification.KeySex: "암", verification.KeyBreed: "한우"},
	{verification.KeyFarmName: "행복농장", verification.KeyBirthDate: "19990101"},
}

type registrationFixture struct {
	svc   *service.RegistrationService
	holds *holdmem.HoldStore
	cows  service.CowRegistry
	trace *MockTraceLookuper
	clock *fakeClock
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	return newRegistrationFixtureWith(t, cowmem.NewCowStorage())
}

func newRegistrationFixtureWith(t *testing.T, cows service.CowRegistry) *registrationFixture {
	t.Helper()

	f := &registrationFixture{
		holds: holdmem.NewHoldStore(),
		cows:  cows,
		trace: new(MockTraceLookuper),
		clock: newClock(time.Date(2025, 1, 6, 10, 0, 0, 0, kst)),
	}
	f.svc = service.NewRegistrationService(f.holds, f.cows, f.trace,
		service.WithClock(f.clock.Now),
		service.WithLocation(kst))
	return f
}

func (f *registrationFixture) verify(t *testing.T) *service.VerifyResult {
	t.Helper()
	f.trace.On("Lookup", mock.Anything, earTag, "1").Return(traceRecords, nil).Maybe()

	res, err := f.svc.Verify(context.Background(), farmer, earTag, "")
	require.NoError(t, err)
	return res
}

// failingRegistry отказывает при записи, чтение идёт в настоящее хранилище
type failingRegistry struct {
	*cowmem.CowStorage
	err error
}

func (r *failingRegistry) Create(ctx context.Context, c *cow.Cow) error {
	return r.err
}

// TestRegistrationService_Verify тестирует проверку бирки
func TestRegistrationService_Verify(t *testing.T) {
	f := newRegistrationFixture(t)
	f.trace.On("Lookup", mock.Anything, earTag, "1").Return(traceRecords, nil).Once()

	res, err := f.svc.Verify(context.Background(), farmer, " 002-0123-4567-8 ", "")
	require.NoError(t, err)

	assert.NotEmpty(t, res.VerificationID)
	assert.Equal(t, 30, res.ExpiresInMinutes)
	assert.True(t, f.clock.Now().Add(30*time.Minute).Equal(res.ExpiresAt))
	assert.Equal(t, earTag, res.Summary.EarTagNumber)
	assert.Equal(t, "20200315", res.Summary.BirthDate)
	assert.Equal(t, "한우", res.Summary.Breed)
	assert.Equal(t, "행복농장", res.Summary.FarmName)
	assert.Equal(t, 2, res.Summary.RecordCount)

	hold, err := f.holds.Get(context.Background(), res.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, farmer.UserID, hold.UserID)
	assert.Equal(t, farmer.FarmID, hold.FarmID)
	assert.Equal(t, earTag, hold.EarTagNumber)
	assert.Len(t, hold.Records, 2)

	f.trace.AssertExpectations(t)
}

// TestRegistrationService_Verify_Validation тестирует формат бирки и опции
func TestRegistrationService_Verify_Validation(t *testing.T) {
	tests := []struct {
		name   string
		earTag string
		option string
	}{
		{name: "too short", earTag: "12345"},
		{name: "letters", earTag: "00201234567A"},
		{name: "too long", earTag: "0020123456789"},
		{name: "empty", earTag: ""},
		{name: "option not a number", earTag: earTag, option: "x1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t)
			_, err := f.svc.Verify(context.Background(), farmer, tt.earTag, tt.option)
			requireCode(t, err, service.CodeValidation)
			f.trace.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// TestRegistrationService_Verify_AlreadyRegistered - внешняя система не вызывается
func TestRegistrationService_Verify_AlreadyRegistered(t *testing.T) {
	cows := cowmem.NewCowStorage()
	require.NoError(t, cows.Create(context.Background(), &cow.Cow{
		ID: "cow-x", FarmID: "farm-9", OwnerID: "user-9", EarTagNumber: earTag, Name: "x",
	}))
	f := newRegistrationFixtureWith(t, cows)

	_, err := f.svc.Verify(context.Background(), farmer, earTag, "")
	requireCode(t, err, service.CodeAlreadyRegistered)
	f.trace.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)

	holds, err := f.holds.ListByOwner(context.Background(), farmer.UserID)
	require.NoError(t, err)
	assert.Empty(t, holds)
}

// TestRegistrationService_Verify_TraceErrors тестирует перевод ошибок внешней системы
func TestRegistrationService_Verify_TraceErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []cow.Record
		err     error
		code    string
	}{
		{name: "not found", err: trace.ErrNotFound, code: service.CodeTraceNotFound},
		{name: "empty result", records: []cow.Record{}, code: service.CodeTraceNotFound},
		{name: "timeout", err: fmt.Errorf("lookup: %w", trace.ErrTimeout), code: service.CodeUpstreamTimeout},
		{name: "deadline", err: context.DeadlineExceeded, code: service.CodeUpstreamTimeout},
		{name: "malformed", err: trace.ErrMalformed, code: service.CodeUpstreamMalformed},
		{name: "unavailable", err: trace.ErrUnavailable, code: service.CodeUpstreamUnavailable},
		{name: "anything else", err: errors.New("boom"), code: service.CodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t)
			f.trace.On("Lookup", mock.Anything, earTag, "7").Return(tt.records, tt.err)

			_, err := f.svc.Verify(context.Background(), farmer, earTag, "7")
			requireCode(t, err, tt.code)

			holds, listErr := f.holds.ListByOwner(context.Background(), farmer.UserID)
			require.NoError(t, listErr)
			assert.Empty(t, holds, "заявка не создаётся")
		})
	}
}

// TestRegistrationService_Confirm тестирует подтверждение
func TestRegistrationService_Confirm(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(t)
	res := f.verify(t)

	f.clock.Advance(5 * time.Minute)

	confirmed, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{
		VerificationID: res.VerificationID,
		CustomName:     ptr("  누렁이 "),
		Notes:          ptr("첫 송아지"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, confirmed.CowID)
	assert.Equal(t, confirmed.CowID, confirmed.Cow.ID)
	assert.Equal(t, "누렁이", confirmed.Cow.Name)
	assert.Equal(t, "첫 송아지", confirmed.Cow.Notes)
	assert.Equal(t, earTag, confirmed.Cow.EarTagNumber)
	assert.Equal(t, "한우", confirmed.Cow.Breed)
	assert.Equal(t, "암", confirmed.Cow.Sex)
	assert.Equal(t, "20200315", confirmed.Cow.BirthDate)
	assert.Equal(t, cow.SourceVerifiedTrace, confirmed.Cow.Source)
	assert.Len(t, confirmed.Cow.TraceData, 2)
	require.NotNil(t, confirmed.Cow.VerifiedAt)
	assert.True(t, f.clock.Now().Equal(*confirmed.Cow.VerifiedAt))
	assert.Equal(t, 2, confirmed.Summary.RecordCount)

	stored, err := f.cows.FindActiveByEarTag(ctx, earTag)
	require.NoError(t, err)
	assert.Equal(t, confirmed.CowID, stored.ID)
	assert.Equal(t, farmer.FarmID, stored.FarmID)

	_, err = f.holds.Get(ctx, res.VerificationID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "заявка удалена")

	// повторное подтверждение
	_, err = f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: res.VerificationID})
	requireCode(t, err, service.CodeNotFound)
}

// TestRegistrationService_Confirm_DefaultName тестирует имя по бирке
func TestRegistrationService_Confirm_DefaultName(t *testing.T) {
	f := newRegistrationFixture(t)
	res := f.verify(t)

	confirmed, err := f.svc.Confirm(context.Background(), farmer, service.ConfirmInput{
		VerificationID: res.VerificationID,
		CustomName:     ptr("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "45678", confirmed.Cow.Name)
}

// TestRegistrationService_Confirm_Rejected тестирует отказы без регистрации
func TestRegistrationService_Confirm_Rejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		run   func(t *testing.T, f *registrationFixture, id string) error
		code  string
		holds int
	}{
		{
			name: "foreign user",
			run: func(t *testing.T, f *registrationFixture, id string) error {
				_, err := f.svc.Confirm(ctx, neighbor, service.ConfirmInput{VerificationID: id})
				return err
			},
			code:  service.CodeForbidden,
			holds: 1,
		},
		{
			name: "unknown id",
			run: func(t *testing.T, f *registrationFixture, id string) error {
				_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: "nope"})
				return err
			},
			code:  service.CodeNotFound,
			holds: 1,
		},
		{
			name: "blank id",
			run: func(t *testing.T, f *registrationFixture, id string) error {
				_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: " "})
				return err
			},
			code:  service.CodeValidation,
			holds: 1,
		},
		{
			name: "name too long",
			run: func(t *testing.T, f *registrationFixture, id string) error {
				_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{
					VerificationID: id,
					CustomName:     ptr(strings.Repeat("소", 101)),
				})
				return err
			},
			code:  service.CodeValidation,
			holds: 1,
		},
		{
			name: "expired",
			run: func(t *testing.T, f *registrationFixture, id string) error {
				f.clock.Advance(31 * time.Minute)
				_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: id})
				return err
			},
			code: service.CodeVerificationExpired,
		},
		{
			name: "registered meanwhile",
			run: func(t *testing.T, f *registrationFixture, id string) error {
				require.NoError(t, f.cows.Create(ctx, &cow.Cow{
					ID: "cow-x", FarmID: "farm-9", OwnerID: "user-9", EarTagNumber: earTag, Name: "x",
				}))
				_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: id})
				return err
			},
			code: service.CodeAlreadyRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t)
			res := f.verify(t)

			err := tt.run(t, f, res.VerificationID)
			requireCode(t, err, tt.code)

			stored, err := f.cows.FindActiveByEarTag(ctx, earTag)
			if tt.code == service.CodeAlreadyRegistered {
				// чужая корова, созданная в сценарии
				require.NoError(t, err)
				assert.NotEqual(t, farmer.FarmID, stored.FarmID)
			} else {
				assert.ErrorIs(t, err, repository.ErrNotFound, "корова не зарегистрирована")
			}

			holds, err := f.holds.ListByOwner(ctx, farmer.UserID)
			require.NoError(t, err)
			assert.Len(t, holds, tt.holds)
		})
	}
}

// TestRegistrationService_Confirm_ExpiredThenNotFound - истёкшая заявка удаляется при первом обращении
func TestRegistrationService_Confirm_ExpiredThenNotFound(t *testing.T) {
	ctx := context.Background()

	boundary := newRegistrationFixture(t)
	res := boundary.verify(t)
	boundary.clock.Advance(30 * time.Minute)
	_, err := boundary.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: res.VerificationID})
	require.NoError(t, err, "ровно на границе срока заявка ещё действует")

	f := newRegistrationFixture(t)
	res = f.verify(t)
	f.clock.Advance(30*time.Minute + time.Second)
	_, err = f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: res.VerificationID})
	requireCode(t, err, service.CodeVerificationExpired)

	_, err = f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: res.VerificationID})
	requireCode(t, err, service.CodeNotFound)
}

// TestRegistrationService_Confirm_Concurrent - из параллельных подтверждений регистрирует одно
func TestRegistrationService_Confirm_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(t)
	res := f.verify(t)

	var (
		wg     sync.WaitGroup
		mtx    sync.Mutex
		wins   int
		others []string
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: res.VerificationID})

			mtx.Lock()
			defer mtx.Unlock()
			if err == nil {
				wins++
				return
			}
			busErr, ok := service.AsBusiness(err)
			if assert.True(t, ok) {
				others = append(others, busErr.Code)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	for _, code := range others {
		assert.Equal(t, service.CodeNotFound, code)
	}

	_, err := f.cows.FindActiveByEarTag(ctx, earTag)
	require.NoError(t, err)
}

// TestRegistrationService_Confirm_TwoHoldsSameTag - вторая заявка на ту же бирку не регистрирует дубль
func TestRegistrationService_Confirm_TwoHoldsSameTag(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(t)
	f.trace.On("Lookup", mock.Anything, earTag, "1").Return(traceRecords, nil)

	first, err := f.svc.Verify(ctx, farmer, earTag, "")
	require.NoError(t, err)
	second, err := f.svc.Verify(ctx, neighbor, earTag, "")
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, neighbor, service.ConfirmInput{VerificationID: second.VerificationID})
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: first.VerificationID})
	requireCode(t, err, service.CodeAlreadyRegistered)

	_, err = f.holds.Get(ctx, first.VerificationID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestRegistrationService_Confirm_RegistryFailure - заявка удаляется даже при ошибке записи
func TestRegistrationService_Confirm_RegistryFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "duplicate from storage", err: repository.ErrDuplicate, code: service.CodeAlreadyRegistered},
		{name: "storage down", err: errors.New("connection refused"), code: service.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newRegistrationFixtureWith(t, &failingRegistry{CowStorage: cowmem.NewCowStorage(), err: tt.err})
			res := f.verify(t)

			_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: res.VerificationID})
			requireCode(t, err, tt.code)

			_, err = f.holds.Get(ctx, res.VerificationID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

// TestRegistrationService_Cancel тестирует отмену заявки
func TestRegistrationService_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(t)
	res := f.verify(t)

	requireCode(t, f.svc.Cancel(ctx, neighbor, res.VerificationID), service.CodeForbidden)
	require.NoError(t, f.svc.Cancel(ctx, farmer, res.VerificationID))
	requireCode(t, f.svc.Cancel(ctx, farmer, res.VerificationID), service.CodeNotFound)

	_, err := f.svc.Confirm(ctx, farmer, service.ConfirmInput{VerificationID: res.VerificationID})
	requireCode(t, err, service.CodeNotFound)

	// истёкшую заявку тоже можно отменить
	expiredRes := f.verify(t)
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.Cancel(ctx, farmer, expiredRes.VerificationID))
}

// TestRegistrationService_ListPending тестирует список и очистку истёкших
func TestRegistrationService_ListPending(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(t)
	f.trace.On("Lookup", mock.Anything, mock.Anything, "1").Return(traceRecords, nil)

	old, err := f.svc.Verify(ctx, farmer, "002000000001", "")
	require.NoError(t, err)
	foreign, err := f.svc.Verify(ctx, neighbor, "002000000002", "")
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	fresh, err := f.svc.Verify(ctx, farmer, "002000000003", "")
	require.NoError(t, err)

	f.clock.Advance(10*time.Minute + 30*time.Second)

	views, err := f.svc.ListPending(ctx, farmer)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, fresh.VerificationID, views[0].VerificationID)
	assert.Equal(t, "002000000003", views[0].EarTagNumber)
	assert.Equal(t, 19, views[0].MinutesRemaining)
	assert.Equal(t, 2, views[0].Summary.RecordCount)

	// очистка глобальная, чужие истёкшие заявки тоже удалены
	for _, id := range []string{old.VerificationID, foreign.VerificationID} {
		_, err := f.holds.Get(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}

	empty, err := f.svc.ListPending(ctx, neighbor)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

// TestRegistrationService_Status тестирует просмотр одной заявки
func TestRegistrationService_Status(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(t)
	res := f.verify(t)

	f.clock.Advance(10 * time.Minute)
	view, err := f.svc.Status(ctx, farmer, res.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, 20, view.MinutesRemaining)

	_, err = f.svc.Status(ctx, neighbor, res.VerificationID)
	requireCode(t, err, service.CodeForbidden)

	f.clock.Advance(time.Hour)
	_, err = f.svc.Status(ctx, farmer, res.VerificationID)
	requireCode(t, err, service.CodeNotFound)
}

// TestRegistrationService_SweepExpired тестирует фоновую очистку
func TestRegistrationService_SweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture(t)
	f.verify(t)

	removed, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	f.clock.Advance(31 * time.Minute)
	removed, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

// TestRegistrationService_HoldTTL тестирует настройку срока заявки
func TestRegistrationService_HoldTTL(t *testing.T) {
	lookuper := new(MockTraceLookuper)
	lookuper.On("Lookup", mock.Anything, earTag, "1").Return(traceRecords, nil)
	clock := newClock(time.Date(2025, 1, 6, 10, 0, 0, 0, kst))

	svc := service.NewRegistrationService(holdmem.NewHoldStore(), cowmem.NewCowStorage(), lookuper,
		service.WithClock(clock.Now),
		service.WithHoldTTL(10*time.Minute))

	res, err := svc.Verify(context.Background(), farmer, earTag, "")
	require.NoError(t, err)
	assert.Equal(t, 10, res.ExpiresInMinutes)
	assert.True(t, clock.Now().Add(10*time.Minute).Equal(res.ExpiresAt))
}
