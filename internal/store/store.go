package store

import "context"

// Store is the narrow capability set the rest of authd needs from the
// datastore. Implementations may be swapped for in-memory fakes in
// tests.
type Store interface {
	GetClient(ctx context.Context, id string) (*Client, error)
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)
	GetAPI(ctx context.Context, id string) (*API, error)

	CreateWorkspace(ctx context.Context, params CreateWorkspaceParams) (*Workspace, error)
	CreateAPI(ctx context.Context, params CreateAPIParams) (*APIWithScopes, error)
	CreateRootClient(ctx context.Context, params CreateRootClientParams) (*ClientCreateResult, error)
	CreateBasicClient(ctx context.Context, params CreateBasicClientParams) (*ClientCreateResult, error)

	ListClientSecrets(ctx context.Context, clientID string) ([]ClientSecret, error)
	// ListActiveClientSecrets returns the non-expired active secrets for
	// a client (size 0, 1, or 2 during a rotation overlap window).
	ListActiveClientSecrets(ctx context.Context, clientID string) ([]ClientSecret, error)
	GetClientSecretValue(ctx context.Context, secretID string) (string, error)

	RotateClientSecret(ctx context.Context, params RotateSecretParams) (*ClientSecretCreateResult, error)
}
