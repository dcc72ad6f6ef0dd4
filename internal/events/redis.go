package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBus is a Publisher and Subscriber backed by a single
// go-redis/v9 client.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus wraps an already-connected redis client.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

// DialRedis parses a redis URL and verifies connectivity.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// PublishSecretRotated serializes env and publishes it to Channel.
func (b *RedisBus) PublishSecretRotated(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, Channel, payload).Err()
}

// Run subscribes to Channel and invokes handle for each successfully
// decoded message until ctx is canceled. Malformed messages are logged
// and dropped; the loop never exits on a single bad payload.
func (b *RedisBus) Run(ctx context.Context, handle func(Envelope)) error {
	sub := b.client.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Warn().Err(err).Str("channel", Channel).Msg("dropping malformed rotation event")
				continue
			}
			handle(env)
		}
	}
}
