package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-signing-key"

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("user-1", "teacher@example.edu", RoleTeacher, "rollcall", testKey, time.Minute, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := Parse(pair.AccessToken, testKey, "rollcall")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "teacher@example.edu", claims.Email)
	assert.Equal(t, "TEACHER", claims.Role)
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("user-1", "", RoleStudent, "rollcall", testKey, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "other-key", "rollcall")
	assert.Error(t, err)
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	pair, err := Issue("user-1", "", RoleStudent, "other-system", testKey, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, testKey, "rollcall")
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	pair, err := Issue("user-1", "", RoleStudent, "rollcall", testKey, -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, testKey, "rollcall")
	assert.Error(t, err)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	claims := Claims{
		Subject: "user-1",
		Role:    "SUPERUSER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "rollcall",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = Parse(token, testKey, "rollcall")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	for input, want := range map[string]Role{
		"ADMIN":   RoleAdmin,
		"HOD":     RoleHOD,
		"TEACHER": RoleTeacher,
		"STUDENT": RoleStudent,
	} {
		got, ok := ParseRole(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got)
	}

	_, ok := ParseRole("superuser")
	assert.False(t, ok)
}
