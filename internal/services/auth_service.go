package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates the catalog administrator and issues JWTs.
type AuthService struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	tokenDurat   time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService for a single admin account.
// password may be plain text or a bcrypt hash; plain text is hashed once here.
// An empty username or password disables authentication.
func NewAuthService(username, password, jwtSecret string, tokenDuration time.Duration) (*AuthService, error) {
	if tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}
	s := &AuthService{
		username:   username,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDuration,
	}
	if username == "" || password == "" {
		return s, nil
	}
	if len(s.jwtSecret) == 0 {
		return nil, fmt.Errorf("a JWT secret is required when admin credentials are set")
	}

	if strings.HasPrefix(password, "$2") {
		if _, err := bcrypt.Cost([]byte(password)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		s.passwordHash = []byte(password)
		return s, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	s.passwordHash = hashed
	return s, nil
}

// Enabled reports whether admin credentials are configured.
func (s *AuthService) Enabled() bool {
	return s != nil && len(s.passwordHash) > 0
}

// Login checks the admin credentials and returns a signed token together
// with its expiry.
func (s *AuthService) Login(username, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, fmt.Errorf("authentication is not configured")
	}
	if username != s.username {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenDurat)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": s.username,
		"role":     "admin",
		"exp":      expiresAt.Unix(), // Token expiration time
		"iat":      now.Unix(),       // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("Admin %s logged in", s.username)
	return tokenString, expiresAt, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
