package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	HeaderType      = "JWT"
	HeaderAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

// HasRole reports whether the identity holds one of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Claims is the token payload.
type Claims struct {
	Subject   string `json:"sub"`
	Role      string `json:"role,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// Valid checks the subject and expiry. A zero ExpiresAt never expires.
func (c Claims) Valid(now time.Time) error {
	if c.Subject == "" {
		return ErrMissingSubject
	}
	if c.ExpiresAt > 0 && now.Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	return nil
}

// Service signs and verifies tokens with a shared HMAC key.
type Service struct {
	signingKey []byte
	now        func() time.Time
}

// New creates a service. The key should be at least 32 bytes.
func New(signingKey []byte) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &Service{signingKey: signingKey, now: time.Now}, nil
}

// NewFromString is New for string keys read from configuration.
func NewFromString(signingKey string) (*Service, error) {
	return New([]byte(signingKey))
}

// Issue returns a signed token for id. A non-positive ttl issues a token
// without expiry.
func (s *Service) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.UserID == "" {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims := Claims{
		Subject:  id.UserID,
		Role:     id.Role,
		IssuedAt: now.Unix(),
	}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}

	headerJSON, err := json.Marshal(header{Type: HeaderType, Algorithm: HeaderAlgorithm})
	if err != nil {
		return "", fmt.Errorf("jwt: marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("jwt: marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Verify checks token and returns the identity it carries.
func (s *Service) Verify(token string) (Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Identity{}, ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(s.sign(payload))) != 1 {
		return Identity{}, ErrInvalidSignature
	}

	var h header
	if err := decodeSegment(parts[0], &h); err != nil {
		return Identity{}, err
	}
	// Reject alg confusion even though the signature already matched HS256.
	if h.Algorithm != HeaderAlgorithm {
		return Identity{}, ErrUnexpectedSigningMethod
	}

	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return Identity{}, err
	}
	if err := claims.Valid(s.now()); err != nil {
		return Identity{}, err
	}

	return Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

func (s *Service) sign(payload string) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

func decodeSegment(seg string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}

func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}
