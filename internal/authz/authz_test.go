package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/authcore-dev/authd/internal/clientcache"
	"github.com/authcore-dev/authd/internal/jwtcodec"
	"github.com/authcore-dev/authd/internal/ratelimit"
	"github.com/authcore-dev/authd/internal/store"
	"github.com/authcore-dev/authd/internal/store/memstore"
)

func bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestInternal_Authorize_Success(t *testing.T) {
	ms := memstore.New()
	ws, _ := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	api, _ := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	res, _ := ms.CreateRootClient(context.Background(), store.CreateRootClientParams{
		Name: "internal", APIID: api.API.ID, WorkspaceID: ws.ID, ForWorkspaceID: ws.ID, ID: "cli_internal",
	})

	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint(res.Client.ID, res.Client.Version, nil)

	a := &Internal{Codec: codec, Store: ms, InternalClientID: "cli_internal"}
	payload, err := a.Authorize(context.Background(), bearerRequest(token))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Sub != "cli_internal" {
		t.Fatalf("unexpected sub: %s", payload.Sub)
	}
}

func TestInternal_Authorize_WrongSubForbidden(t *testing.T) {
	ms := memstore.New()
	ws, _ := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	api, _ := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	res, _ := ms.CreateRootClient(context.Background(), store.CreateRootClientParams{
		Name: "other", APIID: api.API.ID, WorkspaceID: ws.ID, ForWorkspaceID: ws.ID,
	})

	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint(res.Client.ID, res.Client.Version, nil)

	a := &Internal{Codec: codec, Store: ms, InternalClientID: "cli_internal"}
	_, err := a.Authorize(context.Background(), bearerRequest(token))
	httpErr, ok := err.(*HTTPError)
	if !ok || httpErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden, got %v", err)
	}
}

func TestInternal_Authorize_VersionMismatch(t *testing.T) {
	ms := memstore.New()
	ws, _ := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	api, _ := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	res, _ := ms.CreateRootClient(context.Background(), store.CreateRootClientParams{
		Name: "internal", APIID: api.API.ID, WorkspaceID: ws.ID, ForWorkspaceID: ws.ID, ID: "cli_internal",
	})

	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint(res.Client.ID, 0, nil) // stale version

	a := &Internal{Codec: codec, Store: ms, InternalClientID: "cli_internal"}
	_, err := a.Authorize(context.Background(), bearerRequest(token))
	httpErr, ok := err.(*HTTPError)
	if !ok || httpErr.Status != http.StatusUnauthorized || httpErr.Detail != DetailVersionMismatch {
		t.Fatalf("expected 401 VERSION_MISMATCH, got %v", err)
	}
}

func TestRoot_Authorize_NonRootClientForbidden(t *testing.T) {
	ms := memstore.New()
	ws, _ := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	api, _ := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	res, _ := ms.CreateBasicClient(context.Background(), store.CreateBasicClientParams{
		Name: "basic", APIID: api.API.ID, WorkspaceID: ws.ID,
	})

	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint(res.Client.ID, res.Client.Version, nil)

	a := &Root{Codec: codec, Store: ms}
	_, err := a.Authorize(context.Background(), bearerRequest(token))
	httpErr, ok := err.(*HTTPError)
	if !ok || httpErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden for non-root client, got %v", err)
	}
}

func TestRoot_Authorize_Success(t *testing.T) {
	ms := memstore.New()
	ws, _ := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	api, _ := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	res, _ := ms.CreateRootClient(context.Background(), store.CreateRootClientParams{
		Name: "root", APIID: api.API.ID, WorkspaceID: ws.ID, ForWorkspaceID: ws.ID,
	})

	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint(res.Client.ID, res.Client.Version, nil)

	a := &Root{Codec: codec, Store: ms}
	result, err := a.Authorize(context.Background(), bearerRequest(token))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *result.Client.ForWorkspaceID != ws.ID {
		t.Fatalf("unexpected for_workspace_id: %v", result.Client.ForWorkspaceID)
	}
}

func TestBasic_Authorize_NeverErrors_ReturnsNotFound(t *testing.T) {
	ms := memstore.New()
	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint("cli_nope", 1, nil)

	a := &Basic{Codec: codec, Store: ms, Cache: clientcache.New(), Limiters: ratelimit.NewRegistry()}
	result, err := a.Authorize(context.Background(), bearerRequest(token))
	if err != nil {
		t.Fatalf("basic authorizer must never error, got %v", err)
	}
	if result.Valid || result.Reason != ReasonNotFound {
		t.Fatalf("expected NOT_FOUND, got %+v", result)
	}
}

func TestBasic_Authorize_RateLimitExceeded(t *testing.T) {
	ms := memstore.New()
	ws, _ := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	api, _ := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	res, _ := ms.CreateBasicClient(context.Background(), store.CreateBasicClientParams{
		Name: "limited", APIID: api.API.ID, WorkspaceID: ws.ID,
		RateLimit: &store.RateLimitParams{BucketSize: 1, RefillAmount: 1, RefillIntervalMs: 60_000},
	})

	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint(res.Client.ID, res.Client.Version, nil)

	a := &Basic{Codec: codec, Store: ms, Cache: clientcache.New(), Limiters: ratelimit.NewRegistry()}

	r1, err := a.Authorize(context.Background(), bearerRequest(token))
	if err != nil || !r1.Valid {
		t.Fatalf("expected first call valid, got %+v err=%v", r1, err)
	}

	r2, err := a.Authorize(context.Background(), bearerRequest(token))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.Valid || r2.Reason != ReasonRateLimitExceeded {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED on second call, got %+v", r2)
	}
}

func TestBasic_Authorize_UnlimitedClientAlwaysValid(t *testing.T) {
	ms := memstore.New()
	ws, _ := ms.CreateWorkspace(context.Background(), store.CreateWorkspaceParams{Name: "acme"})
	api, _ := ms.CreateAPI(context.Background(), store.CreateAPIParams{Name: "core", WorkspaceID: ws.ID})
	res, _ := ms.CreateBasicClient(context.Background(), store.CreateBasicClientParams{
		Name: "unlimited", APIID: api.API.ID, WorkspaceID: ws.ID,
	})

	codec := jwtcodec.New("secret", time.Hour)
	token, _, _ := codec.Mint(res.Client.ID, res.Client.Version, nil)

	a := &Basic{Codec: codec, Store: ms, Cache: clientcache.New(), Limiters: ratelimit.NewRegistry()}
	for i := 0; i < 5; i++ {
		result, err := a.Authorize(context.Background(), bearerRequest(token))
		if err != nil || !result.Valid {
			t.Fatalf("call %d: expected valid, got %+v err=%v", i, result, err)
		}
	}
}
