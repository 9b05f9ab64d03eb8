package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dErrors "spendtrail/pkg/domain-errors"
)

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "spendtrail-test")
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "asha@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.UserID)
	require.Equal(t, "asha@example.com", claims.Email)
	require.Equal(t, "spendtrail-test", claims.Issuer)
	require.NotEmpty(t, claims.ID, "every token needs a jti for revocation")
}

func TestEveryTokenGetsAUniqueID(t *testing.T) {
	svc := NewService("test-signing-key", "spendtrail-test")
	userID := uuid.New()

	first, err := svc.GenerateAccessToken(userID, "asha@example.com", time.Hour)
	require.NoError(t, err)
	second, err := svc.GenerateAccessToken(userID, "asha@example.com", time.Hour)
	require.NoError(t, err)

	firstClaims, err := svc.ValidateToken(first)
	require.NoError(t, err)
	secondClaims, err := svc.ValidateToken(second)
	require.NoError(t, err)
	require.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	svc := NewService("test-signing-key", "spendtrail-test")

	token, err := svc.GenerateAccessToken(uuid.New(), "asha@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestWrongKeyIsRejected(t *testing.T) {
	issuer := NewService("key-one", "spendtrail-test")
	verifier := NewService("key-two", "spendtrail-test")

	token, err := issuer.GenerateAccessToken(uuid.New(), "asha@example.com", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestGarbageTokenIsRejected(t *testing.T) {
	svc := NewService("test-signing-key", "spendtrail-test")

	_, err := svc.ValidateToken("not-a-jwt")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
