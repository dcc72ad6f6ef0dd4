// Package memstore is an in-memory store.Store used by tests that do
// not need a real Postgres instance. It implements the same atomicity
// contracts as the postgres gateway (single mutex standing in for a
// transaction) so authorizer, issuer, and admin tests can run against
// it directly.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/authcore-dev/authd/internal/idgen"
	"github.com/authcore-dev/authd/internal/secrethash"
	"github.com/authcore-dev/authd/internal/store"
)

// Store is a mutex-guarded in-memory implementation of store.Store.
type Store struct {
	mu sync.Mutex

	workspaces map[string]store.Workspace
	apis       map[string]store.API
	scopes     map[string][]store.APIScope // keyed by api id
	clients    map[string]store.Client
	secrets    map[string][]store.ClientSecret // keyed by client id, newest last
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		workspaces: make(map[string]store.Workspace),
		apis:       make(map[string]store.API),
		scopes:     make(map[string][]store.APIScope),
		clients:    make(map[string]store.Client),
		secrets:    make(map[string][]store.ClientSecret),
	}
}

func (s *Store) GetClient(ctx context.Context, id string) (*store.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetWorkspace(ctx context.Context, id string) (*store.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workspaces[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &w, nil
}

func (s *Store) GetAPI(ctx context.Context, id string) (*store.API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apis[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CreateWorkspace(ctx context.Context, params store.CreateWorkspaceParams) (*store.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := params.ID
	if id == "" {
		var err error
		id, err = idgen.New("ws", 16)
		if err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	w := store.Workspace{ID: id, Name: params.Name, CreatedAt: now, UpdatedAt: now}
	s.workspaces[id] = w
	return &w, nil
}

func (s *Store) CreateAPI(ctx context.Context, params store.CreateAPIParams) (*store.APIWithScopes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := params.ID
	if id == "" {
		var err error
		id, err = idgen.New("api", 16)
		if err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	a := store.API{ID: id, Name: params.Name, WorkspaceID: params.WorkspaceID, CreatedAt: now, UpdatedAt: now}
	s.apis[id] = a

	scopes := make([]store.APIScope, 0, len(params.Scopes))
	for _, in := range params.Scopes {
		sid, err := idgen.New("scope", 16)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, store.APIScope{
			ID:          sid,
			Name:        in.Name,
			Description: in.Description,
			APIID:       id,
			CreatedAt:   now,
		})
	}
	s.scopes[id] = scopes

	return &store.APIWithScopes{API: a, Scopes: scopes}, nil
}

func (s *Store) CreateRootClient(ctx context.Context, params store.CreateRootClientParams) (*store.ClientCreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := params.ID
	if id == "" {
		var err error
		id, err = idgen.New("cli", 16)
		if err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	forWs := params.ForWorkspaceID
	c := store.Client{
		ID:             id,
		Name:           params.Name,
		Version:        1,
		WorkspaceID:    params.WorkspaceID,
		ForWorkspaceID: &forWs,
		APIID:          params.APIID,
		CreatedAt:      now,
	}
	s.clients[id] = c

	plaintext := params.SecretPlaintext
	if plaintext == "" {
		var err error
		plaintext, err = idgen.New("whsec", 16)
		if err != nil {
			return nil, err
		}
	}
	secretID, err := idgen.New("sec", 16)
	if err != nil {
		return nil, err
	}
	secret := store.ClientSecret{
		ID:         secretID,
		ClientID:   id,
		SecretHash: secrethash.Hash(plaintext),
		Status:     store.SecretStatusActive,
		CreatedAt:  now,
	}
	s.secrets[id] = []store.ClientSecret{secret}

	return &store.ClientCreateResult{Client: c, Secret: secret, SecretPlaintext: plaintext}, nil
}

func (s *Store) CreateBasicClient(ctx context.Context, params store.CreateBasicClientParams) (*store.ClientCreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := idgen.New("cli", 16)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := store.Client{
		ID:          id,
		Name:        params.Name,
		Version:     1,
		WorkspaceID: params.WorkspaceID,
		APIID:       params.APIID,
		CreatedAt:   now,
	}
	if params.RateLimit != nil {
		c.RateLimitBucketSize = &params.RateLimit.BucketSize
		c.RateLimitRefillAmount = &params.RateLimit.RefillAmount
		c.RateLimitRefillIntervalMs = &params.RateLimit.RefillIntervalMs
	}
	s.clients[id] = c

	plaintext, err := idgen.New("whsec", 16)
	if err != nil {
		return nil, err
	}
	secretID, err := idgen.New("sec", 16)
	if err != nil {
		return nil, err
	}
	secret := store.ClientSecret{
		ID:         secretID,
		ClientID:   id,
		SecretHash: secrethash.Hash(plaintext),
		Status:     store.SecretStatusActive,
		CreatedAt:  now,
	}
	s.secrets[id] = []store.ClientSecret{secret}

	return &store.ClientCreateResult{Client: c, Secret: secret, SecretPlaintext: plaintext}, nil
}

func (s *Store) ListClientSecrets(ctx context.Context, clientID string) ([]store.ClientSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.ClientSecret, len(s.secrets[clientID]))
	copy(out, s.secrets[clientID])
	return out, nil
}

func (s *Store) ListActiveClientSecrets(ctx context.Context, clientID string) ([]store.ClientSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var out []store.ClientSecret
	for _, sec := range s.secrets[clientID] {
		if sec.Status != store.SecretStatusActive {
			continue
		}
		if sec.ExpiresAt != nil && !sec.ExpiresAt.After(now) {
			continue
		}
		out = append(out, sec)
	}
	return out, nil
}

func (s *Store) GetClientSecretValue(ctx context.Context, secretID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, secrets := range s.secrets {
		for _, sec := range secrets {
			if sec.ID == secretID {
				return sec.SecretHash, nil
			}
		}
	}
	return "", store.ErrNotFound
}

// RotateClientSecret inserts a new active/current secret, retires the
// old current one (selected by expires_at IS NULL), and bumps the
// client's version, all atomically.
func (s *Store) RotateClientSecret(ctx context.Context, params store.RotateSecretParams) (*store.ClientSecretCreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[params.ClientID]
	if !ok {
		return nil, store.ErrNotFound
	}

	secrets := s.secrets[params.ClientID]
	oldIdx := -1
	activeCount := 0
	for i, sec := range secrets {
		if sec.Status != store.SecretStatusActive {
			continue
		}
		activeCount++
		if sec.ExpiresAt == nil {
			oldIdx = i
		}
	}
	if activeCount != 1 || oldIdx == -1 {
		return nil, store.ErrAlreadyRotated
	}

	plaintext, err := idgen.New("whsec", 16)
	if err != nil {
		return nil, err
	}
	secretID, err := idgen.New("sec", 16)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	newSecret := store.ClientSecret{
		ID:         secretID,
		ClientID:   params.ClientID,
		SecretHash: secrethash.Hash(plaintext),
		Status:     store.SecretStatusActive,
		CreatedAt:  now,
	}

	secrets[oldIdx].ExpiresAt = params.ExpiresAt
	secrets = append(secrets, newSecret)
	s.secrets[params.ClientID] = secrets

	c.Version++
	s.clients[params.ClientID] = c

	return &store.ClientSecretCreateResult{Secret: newSecret, SecretPlaintext: plaintext, Client: c}, nil
}
