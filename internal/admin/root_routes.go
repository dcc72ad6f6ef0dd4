package admin

import (
	"errors"
	"net/http"

	"github.com/authcore-dev/authd/internal/store"
)

type scopeInputReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createAPIReq struct {
	Name   string          `json:"name"`
	Scopes []scopeInputReq `json:"scopes"`
}

// CreateAPI handles POST /v1/apis.createApi.
func (h *Handlers) CreateAPI(w http.ResponseWriter, r *http.Request) {
	authed, err := h.Root.Authorize(r.Context(), r)
	if err != nil {
		writeAuthzError(w, err)
		return
	}

	var req createAPIReq
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	scopes := make([]store.ScopeInput, 0, len(req.Scopes))
	for _, s := range req.Scopes {
		scopes = append(scopes, store.ScopeInput{Name: s.Name, Description: s.Description})
	}

	result, err := h.Store.CreateAPI(r.Context(), store.CreateAPIParams{
		Name:        req.Name,
		WorkspaceID: *authed.Client.ForWorkspaceID,
		Scopes:      scopes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createClientReq struct {
	Name                      string `json:"name"`
	APIID                     string `json:"api_id"`
	RateLimitBucketSize       *int64 `json:"rate_limit_bucket_size"`
	RateLimitRefillAmount     *int64 `json:"rate_limit_refill_amount"`
	RateLimitRefillIntervalMs *int64 `json:"rate_limit_refill_interval_ms"`
}

func (req createClientReq) rateLimit() (*store.RateLimitParams, bool) {
	set := req.RateLimitBucketSize != nil || req.RateLimitRefillAmount != nil || req.RateLimitRefillIntervalMs != nil
	allSet := req.RateLimitBucketSize != nil && req.RateLimitRefillAmount != nil && req.RateLimitRefillIntervalMs != nil
	if !set {
		return nil, true
	}
	if !allSet {
		return nil, false
	}
	return &store.RateLimitParams{
		BucketSize:       *req.RateLimitBucketSize,
		RefillAmount:     *req.RateLimitRefillAmount,
		RefillIntervalMs: *req.RateLimitRefillIntervalMs,
	}, true
}

// CreateClient handles POST /v1/clients.createClient.
func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	authed, err := h.Root.Authorize(r.Context(), r)
	if err != nil {
		writeAuthzError(w, err)
		return
	}

	var req createClientReq
	if err := decodeJSON(r, &req); err != nil || req.Name == "" || req.APIID == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and api_id are required")
		return
	}

	rateLimit, ok := req.rateLimit()
	if !ok {
		writeError(w, http.StatusBadRequest, "rate limit fields must be all set or all null")
		return
	}

	api, err := h.Store.GetAPI(r.Context(), req.APIID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "api not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if api.WorkspaceID != *authed.Client.ForWorkspaceID {
		writeError(w, http.StatusBadRequest, "api not in caller's workspace")
		return
	}

	result, err := h.Store.CreateBasicClient(r.Context(), store.CreateBasicClientParams{
		Name:        req.Name,
		APIID:       req.APIID,
		WorkspaceID: *authed.Client.ForWorkspaceID,
		RateLimit:   rateLimit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetClient handles GET /v1/clients.getClient?client_id=....
func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	authed, err := h.Root.Authorize(r.Context(), r)
	if err != nil {
		writeAuthzError(w, err)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusUnprocessableEntity, "client_id is required")
		return
	}

	client, err := h.Store.GetClient(r.Context(), clientID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if client.WorkspaceID != *authed.Client.ForWorkspaceID {
		// Cross-workspace access is indistinguishable from not found.
		writeError(w, http.StatusNotFound, "client not found")
		return
	}

	writeJSON(w, http.StatusOK, client)
}

type rotateSecretReq struct {
	ClientID  string  `json:"client_id"`
	ExpiresAt *string `json:"expires_at"`
}

// RotateSecret handles POST /v1/clients.rotateSecret.
func (h *Handlers) RotateSecret(w http.ResponseWriter, r *http.Request) {
	authed, err := h.Root.Authorize(r.Context(), r)
	if err != nil {
		writeAuthzError(w, err)
		return
	}

	var req rotateSecretReq
	if err := decodeJSON(r, &req); err != nil || req.ClientID == "" {
		writeError(w, http.StatusUnprocessableEntity, "client_id is required")
		return
	}

	expiresAt, ok := parseOptionalRFC3339(req.ExpiresAt)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "expires_at must be RFC3339 or null")
		return
	}

	target, err := h.Store.GetClient(r.Context(), req.ClientID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if target.WorkspaceID != *authed.Client.ForWorkspaceID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	result, err := h.Store.RotateClientSecret(r.Context(), store.RotateSecretParams{
		ClientID:  req.ClientID,
		ExpiresAt: expiresAt,
	})
	if errors.Is(err, store.ErrAlreadyRotated) {
		writeError(w, http.StatusBadRequest, "already rotated")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.publishRotation(result.Client)
	writeJSON(w, http.StatusOK, result)
}
