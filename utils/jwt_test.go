package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseStaffToken(t *testing.T) {
	token, err := IssueStaffToken("secret", 7, "tech@example.com", RoleTechnician, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseStaffToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "tech@example.com", claims.Email)
	assert.Equal(t, RoleTechnician, claims.Role)

	id, err := claims.StaffID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestIssueStaffToken_UnknownRole(t *testing.T) {
	_, err := IssueStaffToken("secret", 7, "someone@example.com", "customer", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidStaffToken)
}

func signed(t *testing.T, claims StaffClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestParseStaffToken_Rejects(t *testing.T) {
	valid, err := IssueStaffToken("secret", 7, "tech@example.com", RoleTechnician, time.Now().Add(time.Hour))
	require.NoError(t, err)
	expired, err := IssueStaffToken("secret", 7, "tech@example.com", RoleTechnician, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other-secret", valid},
		{"expired", "secret", expired},
		{"foreign issuer", "secret", signed(t, StaffClaims{
			Role:             RoleTechnician,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "other-service", Subject: "7", ExpiresAt: exp},
		})},
		{"no subject", "secret", signed(t, StaffClaims{
			Role:             RoleTechnician,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer, ExpiresAt: exp},
		})},
		{"unknown role", "secret", signed(t, StaffClaims{
			Role:             "customer",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer, Subject: "7", ExpiresAt: exp},
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStaffToken(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
