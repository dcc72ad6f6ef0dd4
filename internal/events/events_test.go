package events

import (
	"context"
	"testing"
	"time"
)

func TestDecode_RejectsMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{}`),
		[]byte(`{"event_type":"client.secret.rotated"}`),
		[]byte(`{"data":{"id":"cli_1"}}`),
	}
	for _, c := range cases {
		if _, err := Decode(c); err == nil {
			t.Fatalf("expected error decoding %q", c)
		}
	}
}

func TestDecode_AcceptsValidEnvelope(t *testing.T) {
	raw := []byte(`{"event_type":"client.secret.rotated","id":"evt_1","timestamp":1.0,"data":{"id":"cli_1","version":2}}`)
	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Data.ID != "cli_1" || env.Data.Version != 2 {
		t.Fatalf("unexpected decoded envelope: %+v", env)
	}
}

func TestMemoryBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Envelope, 1)
	go bus.Run(ctx, func(env Envelope) { received <- env })

	// Give the subscriber goroutine a moment to register.
	time.Sleep(10 * time.Millisecond)

	env := Envelope{EventType: EventTypeSecretRotated, ID: "evt_1", Data: ClientData{ID: "cli_1", Version: 2}}
	if err := bus.PublishSecretRotated(ctx, env); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-received:
		if got.Data.ID != "cli_1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber delivery")
	}
}
