package authz

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/authcore-dev/authd/internal/jwtcodec"
	"github.com/authcore-dev/authd/internal/store"
)

// Root authorizes requests from a root client acting on behalf of
// ForWorkspaceID (apis.createApi, clients.createClient,
// clients.getClient, clients.rotateSecret). Unlike Internal, the gate
// is structural rather than identity-based: any client whose row has
// ForWorkspaceID set passes.
type Root struct {
	Codec *jwtcodec.Codec
	Store store.Store
}

// AuthorizedRoot is the result of a successful root authorization: the
// token payload plus the resolved client row, since every root-gated
// handler needs ForWorkspaceID to scope its operation.
type AuthorizedRoot struct {
	Payload *jwtcodec.Payload
	Client  store.Client
}

// Authorize implements the root authorizer's pipeline: decode, fetch
// the client fresh, gate on ForWorkspaceID being set, then version and
// secret-expiry checks identical to Internal.
func (a *Root) Authorize(ctx context.Context, r *http.Request) (*AuthorizedRoot, error) {
	token, herr := bearerToken(r)
	if herr != nil {
		return nil, herr
	}
	payload, herr := decodeOrHTTPError(a.Codec, token)
	if herr != nil {
		return nil, herr
	}

	client, err := a.Store.GetClient(ctx, payload.Sub)
	if errors.Is(err, store.ErrNotFound) {
		return nil, forbidden()
	}
	if err != nil {
		return nil, err
	}
	if !client.IsRoot() {
		return nil, forbidden()
	}

	if payload.Version != client.Version {
		return nil, tokenError(http.StatusUnauthorized, DetailVersionMismatch)
	}
	if secretExpired(payload, time.Now()) {
		return nil, tokenError(http.StatusUnauthorized, DetailSecretExpired)
	}

	return &AuthorizedRoot{Payload: payload, Client: *client}, nil
}
