// Package auth guards the admin surface. Credentials come from the
// environment as a username plus bcrypt hash; a successful login yields a
// signed token that the admin operations require.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL bounds how long an admin session token stays valid.
const tokenTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials signals wrong username or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken signals an expired, malformed, or foreign token.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Service handles admin authentication.
type Service struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	now          func() time.Time
}

// NewService creates an auth service from the configured admin credentials.
// passwordHash is a bcrypt hash, not the plaintext password.
func NewService(username, passwordHash, jwtSecret string) *Service {
	return &Service{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		now:          time.Now,
	}
}

// WithClock overrides time for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login verifies the credentials and returns a signed session token. Wrong
// username and wrong password are indistinguishable to the caller.
func (s *Service) Login(username, password string) (string, error) {
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !nameOK || passErr != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": s.username,
		"exp": s.now().Add(tokenTTL).Unix(),
		"iat": s.now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

// VerifyToken validates a session token and returns the admin username.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub != s.username {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// HashPassword produces a bcrypt hash suitable for the ADMIN_PASSWORD_HASH
// setting.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
