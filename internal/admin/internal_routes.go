package admin

import (
	"net/http"

	"github.com/authcore-dev/authd/internal/store"
)

type createWorkspaceReq struct {
	Name string `json:"name"`
}

// CreateWorkspace handles POST /v1/internal.createWorkspace.
func (h *Handlers) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Internal.Authorize(r.Context(), r); err != nil {
		writeAuthzError(w, err)
		return
	}

	var req createWorkspaceReq
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	ws, err := h.Store.CreateWorkspace(r.Context(), store.CreateWorkspaceParams{Name: req.Name})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

type createRootClientReq struct {
	Name           string `json:"name"`
	ForWorkspaceID string `json:"for_workspace_id"`
}

// CreateRootClient handles POST /v1/internal.createRootClient.
func (h *Handlers) CreateRootClient(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Internal.Authorize(r.Context(), r); err != nil {
		writeAuthzError(w, err)
		return
	}

	var req createRootClientReq
	if err := decodeJSON(r, &req); err != nil || req.Name == "" || req.ForWorkspaceID == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and for_workspace_id are required")
		return
	}

	if _, err := h.Store.GetWorkspace(r.Context(), req.ForWorkspaceID); err != nil {
		writeError(w, http.StatusBadRequest, "workspace not found")
		return
	}

	result, err := h.Store.CreateRootClient(r.Context(), storeCreateRootClientParams(req, h.InternalWorkspaceID, h.InternalAPIID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func storeCreateRootClientParams(req createRootClientReq, workspaceID, apiID string) store.CreateRootClientParams {
	return store.CreateRootClientParams{
		Name:           req.Name,
		APIID:          apiID,
		WorkspaceID:    workspaceID,
		ForWorkspaceID: req.ForWorkspaceID,
	}
}
