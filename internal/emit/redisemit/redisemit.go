// Package redisemit implements protocol.Emitter over a Redis pub/sub
// channel, letting any number of GUI processes subscribe to the same
// live feed instead of being wired in-process to one encounter.Engine
// (spec §6 Emitter, §11 domain stack). Grounded on the pack's
// redis.NewClient/Publish idiom (MOHCentral-opm-stats-api's worker pool
// uses the same client for pipelined state updates; here it is used for
// the simpler publish-only path a broadcast transport needs).
package redisemit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is the envelope published to the channel: every emit carries
// its event name alongside the JSON-encoded payload so subscribers can
// dispatch without a second round trip.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Emitter publishes every event to a single Redis channel.
type Emitter struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
	timeout time.Duration
}

// New returns an Emitter publishing to channel over client.
func New(client *redis.Client, channel string, log *slog.Logger) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{client: client, channel: channel, log: log, timeout: 2 * time.Second}
}

// Emit marshals payload and publishes it to the bound channel. Errors
// are logged, not returned: the protocol.Emitter interface is
// fire-and-forget by design (spec §6), matching how encounter.Engine
// already treats the emitter as best-effort.
func (e *Emitter) Emit(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		e.log.Warn("redisemit: marshaling payload", "event", event, "error", err)
		return
	}
	msg, err := json.Marshal(Message{Event: event, Payload: raw})
	if err != nil {
		e.log.Warn("redisemit: marshaling envelope", "event", event, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if err := e.client.Publish(ctx, e.channel, msg).Err(); err != nil {
		e.log.Warn("redisemit: publishing", "event", event, "channel", e.channel, "error", err)
	}
}
