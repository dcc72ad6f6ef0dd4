package postgres

import (
	"context"
	"errors"

	"github.com/authcore-dev/authd/internal/idgen"
	"github.com/authcore-dev/authd/internal/secrethash"
	"github.com/authcore-dev/authd/internal/store"
	"github.com/jackc/pgx/v5"
)

func (p *Postgres) GetClient(ctx context.Context, id string) (*store.Client, error) {
	row := p.Pool.QueryRow(ctx, `
		SELECT id, name, version, workspace_id, for_workspace_id, api_id,
		       rate_limit_bucket_size, rate_limit_refill_amount, rate_limit_refill_interval_ms,
		       created_at
		FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (p *Postgres) GetWorkspace(ctx context.Context, id string) (*store.Workspace, error) {
	var w store.Workspace
	err := p.Pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM workspaces WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (p *Postgres) GetAPI(ctx context.Context, id string) (*store.API, error) {
	var a store.API
	err := p.Pool.QueryRow(ctx, `SELECT id, name, workspace_id, created_at, updated_at FROM apis WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.WorkspaceID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) CreateWorkspace(ctx context.Context, params store.CreateWorkspaceParams) (*store.Workspace, error) {
	id := params.ID
	if id == "" {
		var err error
		id, err = idgen.New("ws", 16)
		if err != nil {
			return nil, err
		}
	}
	var w store.Workspace
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO workspaces (id, name) VALUES ($1, $2)
		RETURNING id, name, created_at, updated_at`, id, params.Name).
		Scan(&w.ID, &w.Name, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (p *Postgres) CreateAPI(ctx context.Context, params store.CreateAPIParams) (*store.APIWithScopes, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id := params.ID
	if id == "" {
		id, err = idgen.New("api", 16)
		if err != nil {
			return nil, err
		}
	}

	var a store.API
	err = tx.QueryRow(ctx, `
		INSERT INTO apis (id, name, workspace_id) VALUES ($1, $2, $3)
		RETURNING id, name, workspace_id, created_at, updated_at`,
		id, params.Name, params.WorkspaceID).
		Scan(&a.ID, &a.Name, &a.WorkspaceID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	scopes := make([]store.APIScope, 0, len(params.Scopes))
	for _, in := range params.Scopes {
		sid, err := idgen.New("scope", 16)
		if err != nil {
			return nil, err
		}
		var sc store.APIScope
		err = tx.QueryRow(ctx, `
			INSERT INTO api_scopes (id, name, description, api_id) VALUES ($1, $2, $3, $4)
			RETURNING id, name, description, api_id, created_at`,
			sid, in.Name, in.Description, id).
			Scan(&sc.ID, &sc.Name, &sc.Description, &sc.APIID, &sc.CreatedAt)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, sc)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &store.APIWithScopes{API: a, Scopes: scopes}, nil
}

func (p *Postgres) CreateRootClient(ctx context.Context, params store.CreateRootClientParams) (*store.ClientCreateResult, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id := params.ID
	if id == "" {
		id, err = idgen.New("cli", 16)
		if err != nil {
			return nil, err
		}
	}

	var c store.Client
	err = tx.QueryRow(ctx, `
		INSERT INTO clients (id, name, version, workspace_id, for_workspace_id, api_id)
		VALUES ($1, $2, 1, $3, $4, $5)
		RETURNING id, name, version, workspace_id, for_workspace_id, api_id,
		          rate_limit_bucket_size, rate_limit_refill_amount, rate_limit_refill_interval_ms, created_at`,
		id, params.Name, params.WorkspaceID, params.ForWorkspaceID, params.APIID).
		Scan(&c.ID, &c.Name, &c.Version, &c.WorkspaceID, &c.ForWorkspaceID, &c.APIID,
			&c.RateLimitBucketSize, &c.RateLimitRefillAmount, &c.RateLimitRefillIntervalMs, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	plaintext := params.SecretPlaintext
	if plaintext == "" {
		plaintext, err = idgen.New("whsec", 16)
		if err != nil {
			return nil, err
		}
	}
	secretID, err := idgen.New("sec", 16)
	if err != nil {
		return nil, err
	}
	var sec store.ClientSecret
	err = tx.QueryRow(ctx, `
		INSERT INTO client_secrets (id, client_id, secret_hash, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, client_id, secret_hash, status, expires_at, created_at`,
		secretID, id, secrethash.Hash(plaintext)).
		Scan(&sec.ID, &sec.ClientID, &sec.SecretHash, &sec.Status, &sec.ExpiresAt, &sec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &store.ClientCreateResult{Client: c, Secret: sec, SecretPlaintext: plaintext}, nil
}

func (p *Postgres) CreateBasicClient(ctx context.Context, params store.CreateBasicClientParams) (*store.ClientCreateResult, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id, err := idgen.New("cli", 16)
	if err != nil {
		return nil, err
	}

	var bucketSize, refillAmount, refillIntervalMs *int64
	if params.RateLimit != nil {
		bucketSize = &params.RateLimit.BucketSize
		refillAmount = &params.RateLimit.RefillAmount
		refillIntervalMs = &params.RateLimit.RefillIntervalMs
	}

	var c store.Client
	err = tx.QueryRow(ctx, `
		INSERT INTO clients (id, name, version, workspace_id, api_id,
		                      rate_limit_bucket_size, rate_limit_refill_amount, rate_limit_refill_interval_ms)
		VALUES ($1, $2, 1, $3, $4, $5, $6, $7)
		RETURNING id, name, version, workspace_id, for_workspace_id, api_id,
		          rate_limit_bucket_size, rate_limit_refill_amount, rate_limit_refill_interval_ms, created_at`,
		id, params.Name, params.WorkspaceID, params.APIID, bucketSize, refillAmount, refillIntervalMs).
		Scan(&c.ID, &c.Name, &c.Version, &c.WorkspaceID, &c.ForWorkspaceID, &c.APIID,
			&c.RateLimitBucketSize, &c.RateLimitRefillAmount, &c.RateLimitRefillIntervalMs, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	plaintext, err := idgen.New("whsec", 16)
	if err != nil {
		return nil, err
	}
	secretID, err := idgen.New("sec", 16)
	if err != nil {
		return nil, err
	}
	var sec store.ClientSecret
	err = tx.QueryRow(ctx, `
		INSERT INTO client_secrets (id, client_id, secret_hash, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, client_id, secret_hash, status, expires_at, created_at`,
		secretID, id, secrethash.Hash(plaintext)).
		Scan(&sec.ID, &sec.ClientID, &sec.SecretHash, &sec.Status, &sec.ExpiresAt, &sec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &store.ClientCreateResult{Client: c, Secret: sec, SecretPlaintext: plaintext}, nil
}

func (p *Postgres) ListClientSecrets(ctx context.Context, clientID string) ([]store.ClientSecret, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT id, client_id, secret_hash, status, expires_at, created_at
		FROM client_secrets WHERE client_id = $1 ORDER BY created_at ASC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ClientSecret
	for rows.Next() {
		var sec store.ClientSecret
		if err := rows.Scan(&sec.ID, &sec.ClientID, &sec.SecretHash, &sec.Status, &sec.ExpiresAt, &sec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// ListActiveClientSecrets returns the non-expired, active secrets for a
// client. During a rotation overlap window this is the outgoing and
// incoming secret; otherwise just the current one.
func (p *Postgres) ListActiveClientSecrets(ctx context.Context, clientID string) ([]store.ClientSecret, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT id, client_id, secret_hash, status, expires_at, created_at
		FROM client_secrets
		WHERE client_id = $1 AND status = 'active' AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at ASC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ClientSecret
	for rows.Next() {
		var sec store.ClientSecret
		if err := rows.Scan(&sec.ID, &sec.ClientID, &sec.SecretHash, &sec.Status, &sec.ExpiresAt, &sec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (p *Postgres) GetClientSecretValue(ctx context.Context, secretID string) (string, error) {
	var hash string
	err := p.Pool.QueryRow(ctx, `SELECT secret_hash FROM client_secrets WHERE id = $1`, secretID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// RotateClientSecret is a single atomic transaction: insert the new
// current secret, retire the outgoing one (selected by expires_at IS
// NULL AND status = 'active'), and bump the client's version. Any
// error rolls the whole thing back.
func (p *Postgres) RotateClientSecret(ctx context.Context, params store.RotateSecretParams) (*store.ClientSecretCreateResult, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var oldSecretID string
	var activeCount int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM client_secrets WHERE client_id = $1 AND status = 'active'`,
		params.ClientID).Scan(&activeCount)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		SELECT id FROM client_secrets
		WHERE client_id = $1 AND status = 'active' AND expires_at IS NULL
		FOR UPDATE`, params.ClientID).Scan(&oldSecretID)
	if errors.Is(err, pgx.ErrNoRows) || activeCount != 1 {
		return nil, store.ErrAlreadyRotated
	}
	if err != nil {
		return nil, err
	}

	plaintext, err := idgen.New("whsec", 16)
	if err != nil {
		return nil, err
	}
	secretID, err := idgen.New("sec", 16)
	if err != nil {
		return nil, err
	}

	var newSecret store.ClientSecret
	err = tx.QueryRow(ctx, `
		INSERT INTO client_secrets (id, client_id, secret_hash, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, client_id, secret_hash, status, expires_at, created_at`,
		secretID, params.ClientID, secrethash.Hash(plaintext)).
		Scan(&newSecret.ID, &newSecret.ClientID, &newSecret.SecretHash, &newSecret.Status, &newSecret.ExpiresAt, &newSecret.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE client_secrets SET expires_at = $1 WHERE id = $2`,
		params.ExpiresAt, oldSecretID); err != nil {
		return nil, err
	}

	var c store.Client
	err = tx.QueryRow(ctx, `
		UPDATE clients SET version = version + 1 WHERE id = $1
		RETURNING id, name, version, workspace_id, for_workspace_id, api_id,
		          rate_limit_bucket_size, rate_limit_refill_amount, rate_limit_refill_interval_ms, created_at`,
		params.ClientID).
		Scan(&c.ID, &c.Name, &c.Version, &c.WorkspaceID, &c.ForWorkspaceID, &c.APIID,
			&c.RateLimitBucketSize, &c.RateLimitRefillAmount, &c.RateLimitRefillIntervalMs, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &store.ClientSecretCreateResult{Secret: newSecret, SecretPlaintext: plaintext, Client: c}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*store.Client, error) {
	var c store.Client
	err := row.Scan(&c.ID, &c.Name, &c.Version, &c.WorkspaceID, &c.ForWorkspaceID, &c.APIID,
		&c.RateLimitBucketSize, &c.RateLimitRefillAmount, &c.RateLimitRefillIntervalMs, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
