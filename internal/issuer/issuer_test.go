package issuer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/authcore-dev/authd/internal/jwtcodec"
	"github.com/authcore-dev/authd/internal/store"
	"github.com/authcore-dev/authd/internal/store/memstore"
)

func newTestClient(t *testing.T) (*memstore.Store, store.ClientCreateResult) {
	t.Helper()
	ms := memstore.New()
	ws, err := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	api, err := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	if err != nil {
		t.Fatal(err)
	}
	res, err := ms.CreateBasicClient(context.Background(), store.CreateBasicClientParams{
		Name: "svc", APIID: api.API.ID, WorkspaceID: ws.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return ms, *res
}

func TestIssuer_FormBodyIssuance(t *testing.T) {
	ms, res := newTestClient(t)
	h := &Handler{Store: ms, Codec: jwtcodec.New("secret", time.Hour)}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {res.Client.ID},
		"client_secret": {res.SecretPlaintext},
	}
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	payload, err := h.Codec.Decode(resp.AccessToken)
	if err != nil {
		t.Fatalf("minted token should decode: %v", err)
	}
	if payload.Sub != res.Client.ID {
		t.Fatalf("expected sub %s, got %s", res.Client.ID, payload.Sub)
	}
}

func TestIssuer_BasicAuthWithJSONGrantTypeOnly(t *testing.T) {
	ms, res := newTestClient(t)
	h := &Handler{Store: ms, Codec: jwtcodec.New("secret", time.Hour)}

	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(`{"grant_type":"client_credentials"}`))
	req.Header.Set("Content-Type", "application/json")
	creds := base64.StdEncoding.EncodeToString([]byte(res.Client.ID + ":" + res.SecretPlaintext))
	req.Header.Set("Authorization", "Basic "+creds)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIssuer_WrongSecret(t *testing.T) {
	ms, res := newTestClient(t)
	h := &Handler{Store: ms, Codec: jwtcodec.New("secret", time.Hour)}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {res.Client.ID},
		"client_secret": {"totally-wrong"},
	}
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorBody
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Detail != "Invalid client" {
		t.Fatalf("expected 'Invalid client', got %q", body.Detail)
	}
}

func TestIssuer_MissingFieldReturns400(t *testing.T) {
	h := &Handler{Store: memstore.New(), Codec: jwtcodec.New("secret", time.Hour)}

	form := url.Values{"grant_type": {"client_credentials"}}
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing client_id/secret, got %d", rec.Code)
	}
}

func TestIssuer_WrongGrantTypeReturns400(t *testing.T) {
	ms, res := newTestClient(t)
	h := &Handler{Store: ms, Codec: jwtcodec.New("secret", time.Hour)}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {res.Client.ID},
		"client_secret": {res.SecretPlaintext},
	}
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong grant_type, got %d", rec.Code)
	}
}

func TestParseCredentials_HeaderFallsBackWhenBodyMissingField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(`{"grant_type":"client_credentials","client_id":"cli_x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("cli_from_header", "secret_from_header")

	creds, ok := ParseCredentials(req)
	if !ok {
		t.Fatal("expected credentials to parse")
	}
	// body supplies client_id, so it wins over the header per the
	// "body, header" coalesce order.
	if creds.ClientID != "cli_x" {
		t.Fatalf("expected body client_id to win, got %s", creds.ClientID)
	}
	if creds.ClientSecret != "secret_from_header" {
		t.Fatalf("expected header client_secret as fallback, got %s", creds.ClientSecret)
	}
}
