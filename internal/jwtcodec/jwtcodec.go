// Package jwtcodec signs and verifies the HS256 bearer tokens issued by
// the token endpoint, narrowed to the single HS256 signing mode this
// service needs (no JWKS / upstream IdP — every token here is minted by
// this process).
package jwtcodec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Reason is a stable classification of why a token failed to decode.
type Reason string

const (
	ReasonBadJWT           Reason = "BAD_JWT"
	ReasonExpired          Reason = "EXPIRED"
	ReasonInvalidSignature Reason = "INVALID_SIGNATURE"
)

// Error wraps a classified decode failure.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string { return string(e.Reason) + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Payload is the claim set carried by every token this service mints.
type Payload struct {
	Sub             string `json:"sub"`
	IssuedAt        int64  `json:"iat"`
	ExpiresAt       int64  `json:"exp"`
	Version         int    `json:"version"`
	SecretExpiresAt *int64 `json:"secret_expires_at,omitempty"`
}

type claims struct {
	Version         int    `json:"version"`
	SecretExpiresAt *int64 `json:"secret_expires_at,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single process-wide HS256
// secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// New returns a Codec. ttl is exp-iat for minted tokens (defaults to
// 24h if zero is passed).
func New(secret string, ttl time.Duration) *Codec {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured exp-iat duration for minted tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Mint signs a new token for sub at version, optionally carrying
// secretExpiresAt when the signing secret is the outgoing one of a
// rotation window.
func (c *Codec) Mint(sub string, version int, secretExpiresAt *time.Time) (string, *Payload, error) {
	now := time.Now().UTC()
	exp := now.Add(c.ttl)

	cl := claims{
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	payload := &Payload{
		Sub:       sub,
		IssuedAt:  now.Unix(),
		ExpiresAt: exp.Unix(),
		Version:   version,
	}
	if secretExpiresAt != nil {
		sec := secretExpiresAt.Unix()
		cl.SecretExpiresAt = &sec
		payload.SecretExpiresAt = &sec
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, payload, nil
}

// Decode verifies a token's signature and expiry and returns its
// payload. A structurally invalid token or any library error other
// than expiry/signature maps to ReasonBadJWT, an expired-but-otherwise
// -valid token maps to ReasonExpired, and a signature mismatch maps to
// ReasonInvalidSignature.
func (c *Codec) Decode(tokenString string) (*Payload, error) {
	var cl claims
	token, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("jwtcodec: unexpected signing method")
		}
		return c.secret, nil
	})

	switch {
	case err == nil && token.Valid:
		// fallthrough to success path below
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, &Error{Reason: ReasonExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, &Error{Reason: ReasonInvalidSignature, Err: err}
	default:
		return nil, &Error{Reason: ReasonBadJWT, Err: errOrInvalid(err, token)}
	}

	payload := &Payload{
		Sub:     cl.Subject,
		Version: cl.Version,
	}
	if cl.IssuedAt != nil {
		payload.IssuedAt = cl.IssuedAt.Unix()
	}
	if cl.ExpiresAt != nil {
		payload.ExpiresAt = cl.ExpiresAt.Unix()
	}
	payload.SecretExpiresAt = cl.SecretExpiresAt

	return payload, nil
}

func errOrInvalid(err error, token *jwt.Token) error {
	if err != nil {
		return err
	}
	if token == nil || !token.Valid {
		return errors.New("jwtcodec: token invalid")
	}
	return nil
}
