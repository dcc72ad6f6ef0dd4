// Package issuer implements the /oauth/token endpoint: parse credentials
// from any of three wire locations, verify the presented secret against
// the client's active secret hashes, and mint a signed bearer token.
package issuer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authcore-dev/authd/internal/jwtcodec"
	"github.com/authcore-dev/authd/internal/secrethash"
	"github.com/authcore-dev/authd/internal/store"
	"github.com/rs/zerolog/log"
)

const grantTypeClientCredentials = "client_credentials"

// TokenResponse is the success body of /oauth/token.
type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
	Scope       *string `json:"scope"`
}

// Handler serves POST /oauth/token.
type Handler struct {
	Store store.Store
	Codec *jwtcodec.Codec
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	creds, ok := ParseCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if creds.GrantType != grantTypeClientCredentials {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	token, expiresIn, err := h.issue(r.Context(), creds.ClientID, creds.ClientSecret)
	if err != nil {
		if errors.Is(err, errInvalidClient) {
			writeError(w, http.StatusBadRequest, "Invalid client")
			return
		}
		log.Error().Err(err).Str("client_id", creds.ClientID).Msg("token issuance failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
		Scope:       nil,
	})
}

var errInvalidClient = errors.New("issuer: invalid client")

// issue verifies clientID/clientSecret against the client's active
// secret hashes and mints a token. The signing secret used to mint is
// whichever active secret hash matched; if the matched secret is the
// outgoing one of a rotation window (ExpiresAt set), the minted token
// carries SecretExpiresAt so authorizers can enforce the overlap
// window's end.
func (h *Handler) issue(ctx context.Context, clientID, clientSecret string) (string, int64, error) {
	client, err := h.Store.GetClient(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return "", 0, errInvalidClient
	}
	if err != nil {
		return "", 0, err
	}

	secrets, err := h.Store.ListActiveClientSecrets(ctx, clientID)
	if err != nil {
		return "", 0, err
	}

	var matched *store.ClientSecret
	for i := range secrets {
		if secrethash.Matches(clientSecret, secrets[i].SecretHash) {
			matched = &secrets[i]
			break
		}
	}
	if matched == nil {
		return "", 0, errInvalidClient
	}

	token, _, err := h.Codec.Mint(client.ID, client.Version, matched.ExpiresAt)
	if err != nil {
		return "", 0, err
	}

	return token, int64(h.Codec.TTL().Seconds()), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}
