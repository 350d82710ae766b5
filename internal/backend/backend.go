// Package backend defines the chat adapter contract the core talks to.
// Adapters register themselves by protocol name; the account config
// selects one and supplies its auth block, validated against the
// adapter's schema. The core never sees transport details.
package backend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zjrosen/stanza/internal/pubsub"
)

// User is a directory entry.
type User interface {
	ID() string
	DisplayName() string
}

// Message is one chat message.
type Message interface {
	Speaker() User
	Text() string
	Created() time.Time
}

// Room is a conversation: a conference room or a direct chat. Arriving
// messages are published on the room's broker.
type Room interface {
	ID() string
	Alias() (string, bool)
	Name() (string, bool)
	// ForEachMessage visits the scrollback in chronological order until
	// the visitor returns false.
	ForEachMessage(ctx context.Context, visit func(Message) bool) error
	// SendMessage posts text to the room.
	SendMessage(ctx context.Context, text string) error
	// Events returns the broker publishing arriving messages.
	Events() *pubsub.Broker[Message]
}

// SessionEvent is the payload of connected and reconnected events.
type SessionEvent struct {
	User User
}

// Backend is one connected chat session.
type Backend interface {
	Name() string
	Connect(ctx context.Context) error
	GetRoomByName(ctx context.Context, name string) (Room, bool)
	GetDirectByName(ctx context.Context, user string) (Room, bool)
	// Events publishes connected and reconnected session events.
	Events() *pubsub.Broker[SessionEvent]
	Close() error
}

// Options carries the adapter-specific config blocks from the account
// file into a factory.
type Options struct {
	Auth   map[string]any
	Config map[string]any
}

// Factory constructs a backend from validated options.
type Factory func(opts Options) (Backend, error)

// Field is one entry of an adapter's auth schema.
type Field struct {
	Name     string
	Kind     string // "string", "number", "bool", "object"
	Required bool
}

// Schema validates an adapter's auth block.
type Schema struct {
	Fields []Field
}

// Validate checks the auth block against the schema.
func (s Schema) Validate(auth map[string]any) error {
	for _, f := range s.Fields {
		v, ok := auth[f.Name]
		if !ok {
			if f.Required {
				return fmt.Errorf("auth field %q is required", f.Name)
			}
			continue
		}
		if !kindMatches(f.Kind, v) {
			return fmt.Errorf("auth field %q must be a %s", f.Name, f.Kind)
		}
	}
	return nil
}

func kindMatches(kind string, v any) bool {
	switch kind {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "bool":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	}
	return true
}

// ============================================================================
// Protocol registry
// ============================================================================

type registration struct {
	schema  Schema
	factory Factory
}

var registry = make(map[string]registration)

// Register installs an adapter under its protocol name. Called from
// adapter init functions.
func Register(protocol string, schema Schema, factory Factory) {
	registry[protocol] = registration{schema: schema, factory: factory}
}

// Protocols lists the registered protocol names, sorted.
func Protocols() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New validates the auth block against the protocol's schema and builds
// the backend.
func New(protocol string, opts Options) (Backend, error) {
	reg, ok := registry[protocol]
	if !ok {
		return nil, fmt.Errorf("unknown protocol %q (known: %v)", protocol, Protocols())
	}
	if err := reg.schema.Validate(opts.Auth); err != nil {
		return nil, fmt.Errorf("invalid auth for %q: %w", protocol, err)
	}
	return reg.factory(opts)
}
