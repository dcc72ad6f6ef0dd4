package admin

import "net/http"

type verifyTokenResp struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// VerifyToken handles POST /v1/tokens.verifyToken. Token and client
// failures never throw: the HTTP status stays 200 and the caller
// inspects the body to decide whether to reject the request. Only a
// store failure inside the authorizer yields a 500.
func (h *Handlers) VerifyToken(w http.ResponseWriter, r *http.Request) {
	result, err := h.Basic.Authorize(r.Context(), r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, verifyTokenResp{Valid: result.Valid, Reason: result.Reason})
}
