// Package cache mirrors live session positions into Redis so external
// tooling can inspect who is online and roughly where, without asking
// the server. The mirror is write-only and entirely optional.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"nearby.live/geo"
)

// Keys expire on their own if a delete is ever missed.
const presenceTTL = time.Hour

// Presence holds the Redis client for the mirror. A Presence without a
// client (no URL, bad URL, unreachable server) is valid and does
// nothing.
type Presence struct {
	client *redis.Client
	log    zerolog.Logger
}

type record struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Cell string  `json:"cell"`
}

// New connects to Redis. An empty URL or a failed ping disables the
// mirror rather than failing startup.
func New(url string, log zerolog.Logger) *Presence {
	p := &Presence{log: log}

	if url == "" {
		log.Info().Msg("presence mirror disabled")
		return p
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn().Err(err).Msg("bad redis url, presence mirror disabled")
		return p
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, presence mirror disabled")
		client.Close()
		return p
	}

	p.client = client
	log.Info().Msg("presence mirror enabled")
	return p
}

// Set records the latest position for a session. Failures are logged
// and otherwise ignored; the mirror never affects the update path.
func (p *Presence) Set(ctx context.Context, id string, pos geo.Position) {
	if p == nil || p.client == nil {
		return
	}

	b, _ := json.Marshal(record{Lat: pos.Lat, Lon: pos.Lon, Cell: geo.Cell(pos)})
	if err := p.client.Set(ctx, "presence:"+id, b, presenceTTL).Err(); err != nil {
		p.log.Warn().Err(err).Str("session", id).Msg("presence set failed")
	}
}

// Delete removes the session's presence record on disconnect.
func (p *Presence) Delete(ctx context.Context, id string) {
	if p == nil || p.client == nil {
		return
	}

	if err := p.client.Del(ctx, "presence:"+id).Err(); err != nil {
		p.log.Warn().Err(err).Str("session", id).Msg("presence delete failed")
	}
}

func (p *Presence) Close() {
	if p != nil && p.client != nil {
		p.client.Close()
	}
}
