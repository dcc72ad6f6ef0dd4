// Command bootstrap seeds the internal workspace, internal API, and
// the internal root client that internal.createWorkspace and
// internal.createRootClient authenticate as. It is idempotent: run it
// again after a crash or a fresh database and it no-ops on anything
// that already exists.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/authcore-dev/authd/internal/config"
	"github.com/authcore-dev/authd/internal/store"
	"github.com/authcore-dev/authd/internal/store/postgres"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000Z07:00"
	log.Logger = log.With().Str("service", "authd-bootstrap").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	ws, err := ensureWorkspace(ctx, db, cfg.InternalWorkspaceID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed internal workspace")
	}

	api, err := ensureAPI(ctx, db, cfg.InternalAPIID, ws.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed internal API")
	}

	client, created, err := ensureInternalClient(ctx, db, cfg, ws.ID, api.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed internal client")
	}

	out := map[string]any{
		"workspace":              ws,
		"api":                    api,
		"client":                 client,
		"internal_client_seeded": created,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("failed to encode bootstrap result")
	}
}

func ensureWorkspace(ctx context.Context, db *postgres.Postgres, id string) (*store.Workspace, error) {
	if existing, err := db.GetWorkspace(ctx, id); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return db.CreateWorkspace(ctx, store.CreateWorkspaceParams{ID: id, Name: "internal"})
}

func ensureAPI(ctx context.Context, db *postgres.Postgres, id, workspaceID string) (*store.API, error) {
	if existing, err := db.GetAPI(ctx, id); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	result, err := db.CreateAPI(ctx, store.CreateAPIParams{ID: id, Name: "internal", WorkspaceID: workspaceID})
	if err != nil {
		return nil, err
	}
	return &result.API, nil
}

// ensureInternalClient seeds the singleton internal root client whose
// id and secret are pinned to INTERNAL_CLIENT_ID / INTERNAL_CLIENT_SECRET
// so the running server and this CLI agree on the credential without a
// shared random value.
func ensureInternalClient(ctx context.Context, db *postgres.Postgres, cfg *config.Config, workspaceID, apiID string) (*store.Client, bool, error) {
	if existing, err := db.GetClient(ctx, cfg.InternalClientID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	result, err := db.CreateRootClient(ctx, store.CreateRootClientParams{
		ID:              cfg.InternalClientID,
		Name:            "internal",
		APIID:           apiID,
		WorkspaceID:     workspaceID,
		ForWorkspaceID:  workspaceID,
		SecretPlaintext: cfg.InternalClientSecret,
	})
	if err != nil {
		return nil, false, err
	}
	return &result.Client, true, nil
}
