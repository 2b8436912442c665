package adminauth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// The dashboard has a single operator login: a shared password checked against
// ADMIN_PASSWORD_HASH (bcrypt). The session is an HS256 JWT in a cookie.

const CookieName = "admin_session"

const sessionTTL = 12 * time.Hour

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecret() ([]byte, error) {
	s := strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET"))
	if s == "" {
		return nil, errors.New("ADMIN_JWT_SECRET not set")
	}
	return []byte(s), nil
}

// CheckPassword verifies the login password. ADMIN_PASSWORD_HASH (bcrypt) is
// preferred; ADMIN_PASSWORD is a plaintext fallback for local development.
func CheckPassword(password string) error {
	if hash := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	}
	if plain := os.Getenv("ADMIN_PASSWORD"); plain != "" {
		if subtle.ConstantTimeCompare([]byte(plain), []byte(password)) == 1 {
			return nil
		}
		return errors.New("password mismatch")
	}
	return errors.New("no admin password configured")
}

// GenerateSessionToken issues the signed session JWT.
func GenerateSessionToken() (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "supplement-chat-admin",
			Subject:   "admin",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateSessionToken parses and checks the session JWT.
func ValidateSessionToken(tokenString string) (*Claims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Role != "admin" {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// SessionCookie renders the Set-Cookie value for a fresh session.
func SessionCookie(token string) string {
	return fmt.Sprintf("%s=%s; Path=/; HttpOnly; Secure; SameSite=Lax; Max-Age=%d",
		CookieName, token, int(sessionTTL.Seconds()))
}

// ExpiredSessionCookie clears the session on logout.
func ExpiredSessionCookie() string {
	return fmt.Sprintf("%s=; Path=/; HttpOnly; Secure; SameSite=Lax; Max-Age=0", CookieName)
}
