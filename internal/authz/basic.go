package authz

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/authcore-dev/authd/internal/clientcache"
	"github.com/authcore-dev/authd/internal/jwtcodec"
	"github.com/authcore-dev/authd/internal/ratelimit"
	"github.com/authcore-dev/authd/internal/store"
)

// Reason strings reported by Basic.Authorize. The jwtcodec classifiers
// (BAD_JWT, EXPIRED, INVALID_SIGNATURE) are reused verbatim.
const (
	ReasonNotFound          = "NOT_FOUND"
	ReasonRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Result is the non-throwing outcome of Basic.Authorize: HTTP status
// stays 200 regardless, so resource servers make their own rejection
// choices.
type Result struct {
	Valid  bool
	Reason string
}

// Basic authorizes tokens.verifyToken calls: cache-first client
// lookup, version and secret-expiry checks, then a per-client
// token-bucket rate limit when the client has one configured.
type Basic struct {
	Codec    *jwtcodec.Codec
	Store    store.Store
	Cache    *clientcache.Cache
	Limiters *ratelimit.Registry
}

// Authorize never returns an error for caller-triggerable conditions —
// every failure becomes a Result with Valid=false and a Reason.
func (a *Basic) Authorize(ctx context.Context, r *http.Request) (Result, error) {
	token, herr := bearerToken(r)
	if herr != nil {
		return Result{Valid: false, Reason: string(jwtcodec.ReasonBadJWT)}, nil
	}

	payload, err := a.Codec.Decode(token)
	if err != nil {
		var jerr *jwtcodec.Error
		if errors.As(err, &jerr) {
			return Result{Valid: false, Reason: string(jerr.Reason)}, nil
		}
		return Result{Valid: false, Reason: string(jwtcodec.ReasonBadJWT)}, nil
	}

	client, ok := a.Cache.Get(payload.Sub)
	if !ok {
		fetched, err := a.Store.GetClient(ctx, payload.Sub)
		if errors.Is(err, store.ErrNotFound) {
			return Result{Valid: false, Reason: ReasonNotFound}, nil
		}
		if err != nil {
			return Result{}, err
		}
		client = *fetched
		a.Cache.Set(client)
	}

	if payload.Version != client.Version {
		return Result{Valid: false, Reason: DetailVersionMismatch}, nil
	}
	if secretExpired(payload, time.Now()) {
		return Result{Valid: false, Reason: DetailSecretExpired}, nil
	}

	if !client.HasRateLimit() {
		return Result{Valid: true}, nil
	}

	bucket := a.Limiters.GetOrCreate(client.ID,
		*client.RateLimitBucketSize, *client.RateLimitRefillAmount, *client.RateLimitRefillIntervalMs)
	if !bucket.TryConsume(1) {
		return Result{Valid: false, Reason: ReasonRateLimitExceeded}, nil
	}

	return Result{Valid: true}, nil
}
