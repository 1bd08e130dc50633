package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Expiry(t *testing.T) {
	expires := time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: expires}

	tests := []struct {
		name          string
		now           time.Time
		wantExpired   bool
		wantRemaining time.Duration
	}{
		{"well before", expires.Add(-time.Hour), false, time.Hour},
		{"just before", expires.Add(-time.Nanosecond), false, time.Nanosecond},
		{"at expiry", expires, true, 0},
		{"after", expires.Add(time.Minute), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExpired, s.IsExpired(tt.now))
			assert.Equal(t, tt.wantRemaining, s.TimeRemaining(tt.now))
		})
	}
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
}

func TestUserRole_IsValid(t *testing.T) {
	assert.True(t, RoleBuyer.IsValid())
	assert.True(t, RoleDealer.IsValid())
	assert.False(t, UserRole("admin").IsValid())
	assert.False(t, UserRole("").IsValid())
}
