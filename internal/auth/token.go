// Package auth mints and verifies admin bearer tokens and hashes passwords.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/enrollhq/leadpulse/internal/domain"
)

const (
	tokenIssuer = "leadpulse"
	// jwtHeader is the pre-encoded {"alg":"HS256","typ":"JWT"} header.
	jwtHeader = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("invalid token signature")
	ErrTokenExpired   = errors.New("token expired")
)

// Claims is the signed payload of an admin bearer token.
type Claims struct {
	AdminID     int64       `json:"id"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Permissions []string    `json:"permissions,omitempty"`
	IssuedAt    int64       `json:"iat"`
	Expiry      int64       `json:"exp"`
	Issuer      string      `json:"iss"`
}

// Identity converts verified claims into the opaque identity the rest of the
// system consumes.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{
		ID:          c.AdminID,
		Email:       c.Email,
		Role:        c.Role,
		Permissions: c.Permissions,
	}
}

// TokenService signs and verifies HMAC-SHA256 bearer tokens. Stateless:
// rotating the secret invalidates every outstanding token.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewTokenService(secret string, ttl time.Duration, clock clockwork.Clock) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
	}
}

// Mint signs a token for the given admin.
func (s *TokenService) Mint(admin *domain.Admin) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		AdminID:     admin.ID,
		Email:       admin.Email,
		Role:        admin.Role,
		Permissions: admin.Permissions,
		IssuedAt:    now.Unix(),
		Expiry:      now.Add(s.ttl).Unix(),
		Issuer:      tokenIssuer,
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := jwtHeader + "." + base64URLEncode(payload)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	sig := base64URLEncode(mac.Sum(nil))

	return signingInput + "." + sig, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	signingInput := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	expectedSig := base64URLEncode(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return nil, ErrBadSignature
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	if s.clock.Now().Unix() > claims.Expiry {
		return nil, ErrTokenExpired
	}
	if claims.Issuer != tokenIssuer {
		return nil, errors.New("invalid token issuer")
	}

	return &claims, nil
}

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}
