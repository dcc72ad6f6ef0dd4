// Package events implements the asynchronous client.secret.rotated
// fan-out: a publisher used by the admin surface after a rotation
// commits, and a subscriber that runs as a single long-lived background
// task invalidating internal/clientcache on receipt. Pub/sub is
// advisory, so decode failures are logged and dropped rather than
// fatal.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/authcore-dev/authd/internal/store"
)

// Channel is the single pub/sub channel this service uses.
const Channel = "clients"

// EventTypeSecretRotated is the stable discriminator carried in every
// envelope.
const EventTypeSecretRotated = "client.secret.rotated"

// ClientData is the rotated client's public fields, carried in the
// event envelope without any secret material.
type ClientData struct {
	ID                        string  `json:"id"`
	Name                      string  `json:"name"`
	Version                   int     `json:"version"`
	WorkspaceID               string  `json:"workspace_id"`
	ForWorkspaceID            *string `json:"for_workspace_id,omitempty"`
	APIID                     string  `json:"api_id"`
	RateLimitBucketSize       *int64  `json:"rate_limit_bucket_size,omitempty"`
	RateLimitRefillAmount     *int64  `json:"rate_limit_refill_amount,omitempty"`
	RateLimitRefillIntervalMs *int64  `json:"rate_limit_refill_interval_ms,omitempty"`
	CreatedAt                 float64 `json:"created_at"`
}

// ClientDataFromClient projects a store.Client into the wire shape.
func ClientDataFromClient(c store.Client) ClientData {
	return ClientData{
		ID:                        c.ID,
		Name:                      c.Name,
		Version:                   c.Version,
		WorkspaceID:               c.WorkspaceID,
		ForWorkspaceID:            c.ForWorkspaceID,
		APIID:                     c.APIID,
		RateLimitBucketSize:       c.RateLimitBucketSize,
		RateLimitRefillAmount:     c.RateLimitRefillAmount,
		RateLimitRefillIntervalMs: c.RateLimitRefillIntervalMs,
		CreatedAt:                 float64(c.CreatedAt.Unix()),
	}
}

// Envelope is the JSON payload published to Channel.
type Envelope struct {
	EventType string     `json:"event_type"`
	ID        string     `json:"id"`
	Timestamp float64    `json:"timestamp"`
	Data      ClientData `json:"data"`
}

// Publisher fans out rotation events. Implementations must not block
// the caller on subscriber availability — a missed event only delays
// cache invalidation.
type Publisher interface {
	PublishSecretRotated(ctx context.Context, env Envelope) error
}

// Subscriber delivers decoded envelopes to a handler until ctx is
// canceled. Malformed messages must be logged and dropped, never
// terminate the subscription.
type Subscriber interface {
	Run(ctx context.Context, handle func(Envelope)) error
}

// Decode parses a raw pub/sub payload into an Envelope, validating the
// minimal shape the eviction path depends on.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("events: malformed payload: %w", err)
	}
	if env.EventType == "" || env.Data.ID == "" {
		return Envelope{}, fmt.Errorf("events: payload missing event_type or data.id")
	}
	return env, nil
}
