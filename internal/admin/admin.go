// Package admin implements the administrative HTTP surface that sits
// behind the internal and root authorizers: workspace/API/client
// creation, client lookup, and secret rotation. Grounded on the
// teacher's handler conventions in internal/httpapi (JSON
// decode/encode helpers, chi URL params), adapted to a detail-string
// error envelope.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authcore-dev/authd/internal/authz"
	"github.com/authcore-dev/authd/internal/clientcache"
	"github.com/authcore-dev/authd/internal/events"
	"github.com/authcore-dev/authd/internal/store"
	"github.com/rs/zerolog/log"
)

// Handlers holds the dependencies behind every admin route.
type Handlers struct {
	Store     store.Store
	Internal  *authz.Internal
	Root      *authz.Root
	Basic     *authz.Basic
	Cache     *clientcache.Cache
	Publisher events.Publisher

	// InternalWorkspaceID and InternalAPIID scope the root clients
	// minted by internal.createRootClient. They come from the
	// INTERNAL_WORKSPACE_ID / INTERNAL_API_ID environment variables —
	// the internal client's own home, distinct from the tenant
	// workspace (ForWorkspaceID) a minted root client acts on behalf
	// of.
	InternalWorkspaceID string
	InternalAPIID       string
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeAuthzError maps an authz.HTTPError (or any other error) onto the
// response. Non-HTTPError failures are treated as internal errors.
func writeAuthzError(w http.ResponseWriter, err error) {
	var herr *authz.HTTPError
	if errors.As(err, &herr) {
		writeError(w, herr.Status, herr.Detail)
		return
	}
	log.Error().Err(err).Msg("authorization pipeline error")
	writeError(w, http.StatusInternalServerError, "Internal error")
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// publishRotation fans out a client.secret.rotated event asynchronously.
// The HTTP response does not wait on it: cache invalidation is advisory,
// never a correctness dependency.
func (h *Handlers) publishRotation(client store.Client) {
	go func() {
		env := events.Envelope{
			EventType: events.EventTypeSecretRotated,
			Data:      events.ClientDataFromClient(client),
		}
		id, err := newEventID()
		if err == nil {
			env.ID = id
		}
		env.Timestamp = nowUnixFloat()
		if err := h.Publisher.PublishSecretRotated(context.Background(), env); err != nil {
			log.Warn().Err(err).Str("client_id", client.ID).Msg("failed to publish rotation event")
		}
	}()
}
