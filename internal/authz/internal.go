package authz

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/authcore-dev/authd/internal/jwtcodec"
	"github.com/authcore-dev/authd/internal/store"
)

// Internal authorizes requests from the singleton internal client — the
// process-configured principal allowed to call cross-tenant
// administrative endpoints (internal.createWorkspace,
// internal.createRootClient).
type Internal struct {
	Codec            *jwtcodec.Codec
	Store            store.Store
	InternalClientID string
}

// Authorize implements the internal authorizer's pipeline: decode,
// identity gate on sub == InternalClientID, a fresh (never cached)
// client fetch, then version and secret-expiry checks.
func (a *Internal) Authorize(ctx context.Context, r *http.Request) (*jwtcodec.Payload, error) {
	token, herr := bearerToken(r)
	if herr != nil {
		return nil, herr
	}
	payload, herr := decodeOrHTTPError(a.Codec, token)
	if herr != nil {
		return nil, herr
	}

	if payload.Sub != a.InternalClientID {
		return nil, forbidden()
	}

	client, err := a.Store.GetClient(ctx, payload.Sub)
	if errors.Is(err, store.ErrNotFound) {
		return nil, internalInvariant("internal client has no row")
	}
	if err != nil {
		return nil, err
	}

	if payload.Version != client.Version {
		return nil, tokenError(http.StatusUnauthorized, DetailVersionMismatch)
	}
	if secretExpired(payload, time.Now()) {
		return nil, tokenError(http.StatusUnauthorized, DetailSecretExpired)
	}

	return payload, nil
}
