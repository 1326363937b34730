// internal/events/events.go
//
// Completion events for other services (leaderboards, analytics).
// A Publisher is either backed by NATS or a no-op when no broker is configured.

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// DefaultSubject is used when NATS_SUBJECT is unset.
const DefaultSubject = "memory.game.completed"

// GameCompleted is published once per finished game.
type GameCompleted struct {
	GameID     string    `json:"gameId"`
	Owner      string    `json:"owner"`
	Difficulty string    `json:"difficulty"`
	Moves      int       `json:"moves"`
	Elapsed    int       `json:"elapsed"`
	NewBest    bool      `json:"newBest"`
	Daily      bool      `json:"daily"`
	At         time.Time `json:"at"`
}

// Publisher sends completion events.
type Publisher interface {
	PublishCompleted(ctx context.Context, ev GameCompleted) error
	Close()
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishCompleted(context.Context, GameCompleted) error { return nil }
func (Nop) Close()                                                {}

// NATS publishes JSON events on a single subject.
type NATS struct {
	nc      *nats.Conn
	subject string
}

// Connect dials the broker at url.
func Connect(url, subject string) (*NATS, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	opts := []nats.Option{
		nats.Name("memory-go-server"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATS{nc: nc, subject: subject}, nil
}

func (n *NATS) PublishCompleted(_ context.Context, ev GameCompleted) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	return n.nc.Publish(n.subject, data)
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() {
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
	}
}

// Encode is the wire form of an event.
func Encode(ev GameCompleted) ([]byte, error) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return json.Marshal(ev)
}
