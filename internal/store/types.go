// Package store defines the entities and the gateway contract the rest
// of authd uses to reach the datastore. No per-layer DTOs are kept
// beyond what JSON tags require.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned by lookup methods when the requested row does
// not exist. Callers map it to a 404 or a soft verification failure as
// appropriate for the calling layer.
var ErrNotFound = errors.New("store: not found")

// ClientSecretStatus enumerates the lifecycle of a ClientSecret row.
type ClientSecretStatus string

const (
	SecretStatusActive   ClientSecretStatus = "active"
	SecretStatusInactive ClientSecretStatus = "inactive"
)

// Workspace is the root isolation boundary: every API and non-root
// client belongs to exactly one workspace.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// API is declared by a workspace and owns a set of scopes.
type API struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// APIScope is a named permission declared by an API. Clients may hold
// scopes via the client_scopes join table, though no operation in this
// specification consumes them yet.
type APIScope struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	APIID       string    `json:"api_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Client is a machine principal. It is root iff ForWorkspaceID is set,
// basic otherwise. Basic clients carry either all three rate-limit
// fields or none of them.
type Client struct {
	ID                        string    `json:"id"`
	Name                      string    `json:"name"`
	Version                   int       `json:"version"`
	WorkspaceID               string    `json:"workspace_id"`
	ForWorkspaceID            *string   `json:"for_workspace_id,omitempty"`
	APIID                     string    `json:"api_id"`
	RateLimitBucketSize       *int64    `json:"rate_limit_bucket_size,omitempty"`
	RateLimitRefillAmount     *int64    `json:"rate_limit_refill_amount,omitempty"`
	RateLimitRefillIntervalMs *int64    `json:"rate_limit_refill_interval_ms,omitempty"`
	CreatedAt                 time.Time `json:"created_at"`
}

// IsRoot reports whether c acts on behalf of another workspace.
func (c *Client) IsRoot() bool {
	return c.ForWorkspaceID != nil
}

// HasRateLimit reports whether c carries a configured token bucket.
func (c *Client) HasRateLimit() bool {
	return c.RateLimitBucketSize != nil && c.RateLimitRefillAmount != nil && c.RateLimitRefillIntervalMs != nil
}

// ClientSecret is a hashed credential belonging to a client. At most
// two non-expired rows exist per client; at most one has ExpiresAt nil
// (the "current" secret).
type ClientSecret struct {
	ID         string             `json:"id"`
	ClientID   string             `json:"client_id"`
	SecretHash string             `json:"-"`
	Status     ClientSecretStatus `json:"status"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ScopeInput is a scope declaration supplied when creating an API.
type ScopeInput struct {
	Name        string
	Description string
}

// RateLimitParams is the all-or-none rate-limit triplet for a basic
// client.
type RateLimitParams struct {
	BucketSize       int64
	RefillAmount     int64
	RefillIntervalMs int64
}

// CreateAPIParams is the input to CreateAPI.
type CreateAPIParams struct {
	Name        string
	WorkspaceID string
	Scopes      []ScopeInput
	// ID optionally pins the created API's id, used by the bootstrap
	// CLI to seed the internal API with a caller-supplied id.
	ID string
}

// CreateWorkspaceParams is the input to CreateWorkspace.
type CreateWorkspaceParams struct {
	Name string
	// ID optionally pins the created workspace's id, used by the
	// bootstrap CLI to seed the internal workspace with a
	// caller-supplied id.
	ID string
}

// APIWithScopes is the atomic result of CreateAPI.
type APIWithScopes struct {
	API    API        `json:"api"`
	Scopes []APIScope `json:"scopes"`
}

// CreateRootClientParams is the input to CreateRootClient.
type CreateRootClientParams struct {
	Name           string
	APIID          string
	WorkspaceID    string
	ForWorkspaceID string
	// ID optionally pins the created client's id, used by the bootstrap
	// CLI to seed the internal root client with a caller-supplied id.
	ID string
	// SecretPlaintext optionally pins the initial secret instead of
	// generating a random one, also used by bootstrap.
	SecretPlaintext string
}

// CreateBasicClientParams is the input to CreateBasicClient.
type CreateBasicClientParams struct {
	Name        string
	APIID       string
	WorkspaceID string
	RateLimit   *RateLimitParams
}

// ClientCreateResult is the atomic result of creating a client: the
// client row plus its initial secret, exposed in plaintext exactly
// once.
type ClientCreateResult struct {
	Client          Client       `json:"client"`
	Secret          ClientSecret `json:"secret"`
	SecretPlaintext string       `json:"client_secret"`
}

// RotateSecretParams is the input to RotateClientSecret.
type RotateSecretParams struct {
	ClientID  string
	ExpiresAt *time.Time
}

// ClientSecretCreateResult is the atomic result of a rotation: the new
// secret row plus its plaintext, exposed exactly once.
type ClientSecretCreateResult struct {
	Secret          ClientSecret `json:"secret"`
	SecretPlaintext string       `json:"client_secret"`
	Client          Client       `json:"client"`
}

// ErrAlreadyRotated is returned by RotateClientSecret when the target
// client does not currently have exactly one active secret.
var ErrAlreadyRotated = errors.New("store: client secret already rotated")

// ErrRateLimitInvalid describes a partially set rate-limit triplet
// (violates the all-or-none invariant). Neither store implementation
// returns it: RateLimitParams cannot express a partial triplet, and the
// admin handler rejects partial input before reaching the store.
var ErrRateLimitInvalid = errors.New("store: rate limit fields must be all set or all null")
