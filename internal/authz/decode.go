package authz

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/authcore-dev/authd/internal/jwtcodec"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or returns an HTTPError 401 "Not authenticated" if absent.
func bearerToken(r *http.Request) (string, *HTTPError) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) || len(h) <= len(prefix) {
		return "", unauthenticated()
	}
	return strings.TrimPrefix(h, prefix), nil
}

// decodeOrHTTPError decodes a token, mapping jwtcodec classification
// errors onto the stable HTTP taxonomy (401 + detail enum).
func decodeOrHTTPError(codec *jwtcodec.Codec, token string) (*jwtcodec.Payload, *HTTPError) {
	payload, err := codec.Decode(token)
	if err == nil {
		return payload, nil
	}
	var jerr *jwtcodec.Error
	if errors.As(err, &jerr) {
		return nil, tokenError(http.StatusUnauthorized, string(jerr.Reason))
	}
	return nil, tokenError(http.StatusUnauthorized, string(jwtcodec.ReasonBadJWT))
}

// secretExpired reports whether payload.SecretExpiresAt is set and in
// the past relative to now.
func secretExpired(payload *jwtcodec.Payload, now time.Time) bool {
	return payload.SecretExpiresAt != nil && *payload.SecretExpiresAt <= now.Unix()
}
