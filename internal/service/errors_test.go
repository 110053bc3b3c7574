package service_test

import (
	"fmt"
	"testing"

	"farmTracker/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Kind(t *testing.T) {
	tests := []struct {
		code string
		want service.Kind
	}{
		{service.CodeValidation, service.KindValidation},
		{service.CodeInvalidTransition, service.KindValidation},
		{service.CodeCowNotFound, service.KindNotFound},
		{service.CodeTraceNotFound, service.KindNotFound},
		{service.CodeForbidden, service.KindForbidden},
		{service.CodeAlreadyRegistered, service.KindConflict},
		{service.CodeVersionConflict, service.KindConflict},
		{service.CodeVerificationExpired, service.KindExpired},
		{service.CodeUpstreamTimeout, service.KindUpstream},
		{service.CodeUpstreamMalformed, service.KindUpstream},
		{"SOMETHING_NEW", service.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := service.NewBusinessError(tt.code, "сообщение")
			assert.Equal(t, tt.want, err.Kind())
		})
	}
}

func TestAsBusiness_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("контекст: %w", service.NewExpired("заявка истекла"))

	busErr, ok := service.AsBusiness(wrapped)
	assert.True(t, ok)
	assert.Equal(t, service.CodeVerificationExpired, busErr.Code)

	_, ok = service.AsBusiness(fmt.Errorf("просто ошибка"))
	assert.False(t, ok)
}
