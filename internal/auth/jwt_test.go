package auth_test

import (
	"context"
	"testing"
	"time"

	"farmTracker/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndValidate(t *testing.T) {
	manager := auth.NewManager("secret", "farm-tracker")
	actor := auth.Actor{UserID: "user-1", FarmID: "farm-1"}

	token, err := manager.Issue(actor, time.Hour)
	require.NoError(t, err)

	got, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestManager_ValidateRejects(t *testing.T) {
	manager := auth.NewManager("secret", "farm-tracker")
	actor := auth.Actor{UserID: "user-1", FarmID: "farm-1"}

	expired, err := manager.Issue(actor, -time.Minute)
	require.NoError(t, err)

	otherSecret, err := auth.NewManager("other", "farm-tracker").Issue(actor, time.Hour)
	require.NoError(t, err)

	otherIssuer, err := auth.NewManager("secret", "someone-else").Issue(actor, time.Hour)
	require.NoError(t, err)

	noFarm, err := manager.Issue(auth.Actor{UserID: "user-1"}, time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: "user-1", FarmID: "farm-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{name: "expired", token: expired, expected: auth.ErrExpiredToken},
		{name: "wrong secret", token: otherSecret, expected: auth.ErrInvalidToken},
		{name: "wrong issuer", token: otherIssuer, expected: auth.ErrInvalidToken},
		{name: "missing farm", token: noFarm, expected: auth.ErrInvalidToken},
		{name: "alg none", token: unsigned, expected: auth.ErrInvalidToken},
		{name: "garbage", token: "not-a-token", expected: auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Validate(tt.token)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestActorContext(t *testing.T) {
	_, ok := auth.ActorFrom(context.Background())
	assert.False(t, ok)

	ctx := auth.WithActor(context.Background(), auth.Actor{UserID: "u", FarmID: "f"})
	actor, ok := auth.ActorFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "f", actor.FarmID)
}
