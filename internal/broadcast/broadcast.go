// Package broadcast carries invalidation keys between sessions so a
// mutation in one client marks the same entries stale in the others.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/invalidation"
)

// ErrClosed is returned by a bus used after Close.
var ErrClosed = errors.New("broadcast bus closed")

// Message is one batch of invalidation keys produced by a mutation.
type Message struct {
	Origin    string    `json:"origin"`
	UserID    string    `json:"userId"`
	DBName    string    `json:"dbname"`
	Keys      []string  `json:"keys"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps keys with the sending session and the current time.
func NewMessage(origin, userID, dbname string, keys []invalidation.Key) Message {
	return Message{
		Origin:    origin,
		UserID:    userID,
		DBName:    dbname,
		Keys:      invalidation.Strings(keys),
		Timestamp: time.Now().UTC(),
	}
}

// ParsedKeys decodes the canonical key strings.
func (m Message) ParsedKeys() ([]invalidation.Key, error) {
	return invalidation.ParseKeys(m.Keys)
}

func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a message and rejects one without keys.
func MessageFromJSON(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if len(msg.Keys) == 0 {
		return Message{}, errors.New("decode message: no keys")
	}
	return msg, nil
}

// Handler processes one received message. Returning an error leaves the
// message unacknowledged where the transport supports it.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

type Subscriber interface {
	// Subscribe blocks delivering messages to h until ctx is done.
	Subscribe(ctx context.Context, h Handler) error
}

// Bus is a transport that both publishes and subscribes.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Noop is the bus used when broadcasting is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }

func (Noop) Subscribe(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (Noop) Close() error { return nil }
