package partner

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp *time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "integration"}
	if exp != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*exp)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("partner-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenExpiry(t *testing.T) {
	acquiredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	soon := acquiredAt.Add(10 * time.Minute)
	late := acquiredAt.Add(3 * time.Hour)
	past := acquiredAt.Add(-time.Minute)

	tests := []struct {
		name  string
		token string
		want  time.Time
	}{
		{"opaque token uses fixed window", "abc", acquiredAt.Add(TokenValidity)},
		{"jwt without exp uses fixed window", signedToken(t, nil), acquiredAt.Add(TokenValidity)},
		{"jwt expiring earlier is honored", signedToken(t, &soon), soon},
		{"jwt expiring later is capped", signedToken(t, &late), acquiredAt.Add(TokenValidity)},
		{"jwt already expired is not reused", signedToken(t, &past), acquiredAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenExpiry(tt.token, acquiredAt)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestAuthToken_ValidAt(t *testing.T) {
	now := time.Now()

	assert.False(t, authToken{}.validAt(now))
	assert.True(t, authToken{value: "abc", expiresAt: now.Add(time.Second)}.validAt(now))
	assert.False(t, authToken{value: "abc", expiresAt: now}.validAt(now))
}

func TestClient_HonorsShortLivedJWT(t *testing.T) {
	clock := newFakeClock()
	exp := clock.Now().Add(5 * time.Minute)
	token := signedToken(t, &exp)

	partner := newMockPartner(t, func(m *mockPartner) {
		m.token = token
	})
	client := createTestClient(t, partner.server.URL, WithClock(clock.Now))

	_, err := client.GetContracts(context.Background(), "12345678901")
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	_, err = client.GetContracts(context.Background(), "12345678901")
	require.NoError(t, err)
	assert.Equal(t, int32(1), partner.authCalls.Load())

	clock.Advance(time.Minute)
	_, err = client.GetContracts(context.Background(), "12345678901")
	require.NoError(t, err)
	assert.Equal(t, int32(2), partner.authCalls.Load())
	assert.Equal(t, "Bearer "+token, partner.lastAuthorization())
}

func TestClient_DoesNotReuseExpiredJWT(t *testing.T) {
	clock := newFakeClock()
	exp := clock.Now().Add(-time.Minute)
	token := signedToken(t, &exp)

	partner := newMockPartner(t, func(m *mockPartner) {
		m.token = token
	})
	client := createTestClient(t, partner.server.URL, WithClock(clock.Now))

	_, err := client.GetContracts(context.Background(), "12345678901")
	require.NoError(t, err)
	_, err = client.GetContracts(context.Background(), "12345678901")
	require.NoError(t, err)

	assert.Equal(t, int32(2), partner.authCalls.Load())
}
