// Package auth provides JWT token issuance and validation plus the admin-key
// check that guards operator-only endpoints.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. The mini-app opens and calls POST /api/register with a username
// 2. Server provisions-or-fetches the user and issues a JWT access token
// 3. The client stores the token and sends it as "Authorization: Bearer <token>"
// 4. On protected API calls, middleware validates the JWT and sets the
//    user id in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. Everything needed (user id, expiry) is inside the signed token, and
// the signature ensures nobody can tamper with it without the secret key.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer identifies tokens minted by this service. Validation rejects
// tokens carrying any other issuer, so a leaked secret shared with another
// app still doesn't make its tokens valid here.
const tokenIssuer = "piprotocol-backend"

// tokenLifetime is long on purpose: the client is a Telegram mini-app with
// no login screen, so an expired token means a silent re-register on next
// open rather than a prompt.
const tokenLifetime = 30 * 24 * time.Hour

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used to sign and verify tokens — the same secret must be used for
// both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The "sub" (Subject) registered claim carries
// the internal user id, formatted as a base-10 string.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new access token for the given user id.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and fine for a
// single-server deployment.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, tokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the user id from the
// "sub" claim.
//
// The checks performed by the jwt library:
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches ours
//   - Algorithm is HS256 — jwt.WithValidMethods prevents the classic
//     "alg:none" confusion attack
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("auth: token expired")
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("auth: token subject is not a user id")
	}

	return userID, nil
}
