package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "ledovalley-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	customerID := uuid.New()
	now := time.Now()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		CustomerID: customerID,
		Phone:      "+919876543210",
		Role:       enums.ActorRoleCustomer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, customerID, claims.CustomerID)
	assert.Equal(t, "+919876543210", claims.Phone)
	assert.Equal(t, enums.ActorRoleCustomer, claims.Role)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestMintRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.ActorRole("superuser"),
	})
	require.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.ActorRoleAdmin,
	})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different-secret"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.ActorRoleCustomer,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}
