package services_test

import (
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"solarshop/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

const testJWTSecret = "test_jwt_secret"

func TestAuthService_Login(t *testing.T) {
	authService, err := services.NewAuthService("admin", "password123", testJWTSecret, time.Hour)
	require.NoError(t, err)
	assert.True(t, authService.Enabled())

	// Test successful login
	token, expiresAt, err := authService.Login("admin", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	// Validate the token structure
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "admin", claims["username"])
	assert.Equal(t, "admin", claims["role"])

	// Test invalid credentials (wrong password)
	_, _, err = authService.Login("admin", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Test invalid credentials (unknown user)
	_, _, err = authService.Login("someone", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_HashedPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	authService, err := services.NewAuthService("admin", string(hashed), testJWTSecret, 0)
	require.NoError(t, err)

	_, _, err = authService.Login("admin", "s3cret")
	assert.NoError(t, err)

	_, err = services.NewAuthService("admin", "$2a$not-a-hash", testJWTSecret, 0)
	assert.Error(t, err)
}

func TestAuthService_Disabled(t *testing.T) {
	authService, err := services.NewAuthService("", "", "", 0)
	require.NoError(t, err)
	assert.False(t, authService.Enabled())

	_, _, err = authService.Login("admin", "anything")
	assert.Error(t, err)

	_, err = services.NewAuthService("admin", "password123", "", 0)
	assert.Error(t, err, "credentials without a signing secret are rejected")
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService, err := services.NewAuthService("admin", "password123", testJWTSecret, 0)
	require.NoError(t, err)

	// Generate a valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "admin",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(), // Expires in 1 hour
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	// Test valid token
	claims, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, "admin", claims["username"])

	// Test malformed token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// Test wrong secret
	forged, _ := token.SignedString([]byte("another_secret"))
	_, err = authService.ValidateToken(forged)
	assert.Error(t, err)

	// Test expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "admin",
		"exp":      jwt.TimeFunc().Add(-time.Hour).Unix(), // Expired 1 hour ago
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}
