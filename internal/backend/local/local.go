// Package local implements the offline backend adapter: rooms live in
// the sqlite message archive and messages echo straight back onto the
// room broker. It exercises the full adapter contract without any
// network and backs the end-to-end tests.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/stanza/internal/backend"
	"github.com/zjrosen/stanza/internal/infrastructure/sqlite"
	"github.com/zjrosen/stanza/internal/log"
	"github.com/zjrosen/stanza/internal/pubsub"
)

// Protocol is the registry name of this adapter.
const Protocol = "local"

func init() {
	backend.Register(Protocol, Schema(), New)
}

// Schema describes the auth block: a required user name and an optional
// display name.
func Schema() backend.Schema {
	return backend.Schema{Fields: []backend.Field{
		{Name: "user", Kind: "string", Required: true},
		{Name: "display_name", Kind: "string"},
	}}
}

// user is the local directory entry.
type user struct {
	id   string
	name string
}

func (u user) ID() string          { return u.id }
func (u user) DisplayName() string { return u.name }

// message adapts an archive record to the contract.
type message struct {
	speaker user
	text    string
	created time.Time
}

func (m message) Speaker() backend.User { return m.speaker }
func (m message) Text() string          { return m.text }
func (m message) Created() time.Time    { return m.created }

// Local is the offline backend.
type Local struct {
	mu      sync.Mutex
	self    user
	db      *sqlite.DB
	archive *sqlite.Archive
	rooms   map[string]*room // keyed by room id
	events  *pubsub.Broker[backend.SessionEvent]
}

// New builds the adapter from validated options. With an
// "archive_path" config entry the scrollback persists; otherwise an
// in-memory archive is used.
func New(opts backend.Options) (backend.Backend, error) {
	id, _ := opts.Auth["user"].(string)
	name, _ := opts.Auth["display_name"].(string)
	if name == "" {
		name = id
	}

	var db *sqlite.DB
	var err error
	if path, ok := opts.Config["archive_path"].(string); ok && path != "" {
		db, err = sqlite.NewDB(path)
	} else {
		db, err = sqlite.NewMemoryDB()
	}
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	return &Local{
		self:    user{id: id, name: name},
		db:      db,
		archive: db.Archive(),
		rooms:   make(map[string]*room),
		events:  pubsub.NewBroker[backend.SessionEvent](),
	}, nil
}

// Name returns the protocol name.
func (l *Local) Name() string { return Protocol }

// Connect announces the session. The local adapter has nothing to dial.
func (l *Local) Connect(ctx context.Context) error {
	l.events.Publish(pubsub.ConnectedEvent, backend.SessionEvent{User: l.self})
	log.Info(log.CatBackend, "Local backend connected", "user", l.self.id)
	return nil
}

// Events returns the session event broker.
func (l *Local) Events() *pubsub.Broker[backend.SessionEvent] { return l.events }

// GetRoomByName finds or creates a conference room.
func (l *Local) GetRoomByName(ctx context.Context, name string) (backend.Room, bool) {
	return l.openRoom(ctx, "room", name)
}

// GetDirectByName finds or creates a direct chat with a user.
func (l *Local) GetDirectByName(ctx context.Context, userName string) (backend.Room, bool) {
	return l.openRoom(ctx, "direct", userName)
}

func (l *Local) openRoom(ctx context.Context, kind, name string) (backend.Room, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.archive.RoomByName(ctx, kind, name)
	if err != nil {
		rec = &sqlite.RoomRecord{
			ID:   uuid.NewString(),
			Kind: kind,
			Name: name,
		}
		if err := l.archive.UpsertRoom(ctx, *rec); err != nil {
			log.ErrorErr(log.CatBackend, "Failed to create room", err, "name", name)
			return nil, false
		}
	}
	if r, ok := l.rooms[rec.ID]; ok {
		return r, true
	}
	r := &room{
		rec:     *rec,
		backend: l,
		broker:  pubsub.NewBroker[backend.Message](),
	}
	l.rooms[rec.ID] = r
	return r, true
}

// Close shuts the room brokers and the archive.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.rooms {
		r.broker.Close()
	}
	l.events.Close()
	return l.db.Close()
}

// ============================================================================
// Room
// ============================================================================

type room struct {
	rec     sqlite.RoomRecord
	backend *Local
	broker  *pubsub.Broker[backend.Message]
}

func (r *room) ID() string { return r.rec.ID }

func (r *room) Alias() (string, bool) {
	if r.rec.Alias == nil {
		return "", false
	}
	return *r.rec.Alias, true
}

func (r *room) Name() (string, bool) {
	if r.rec.Name == "" {
		return "", false
	}
	return r.rec.Name, true
}

func (r *room) Events() *pubsub.Broker[backend.Message] { return r.broker }

// ForEachMessage replays the archived scrollback.
func (r *room) ForEachMessage(ctx context.Context, visit func(backend.Message) bool) error {
	records, err := r.backend.archive.RecentByRoom(ctx, r.rec.ID, 0)
	if err != nil {
		return fmt.Errorf("loading scrollback for %s: %w", r.rec.Name, err)
	}
	for _, rec := range records {
		msg := message{
			speaker: user{id: rec.SpeakerID, name: rec.SpeakerName},
			text:    rec.Body,
			created: time.UnixMilli(rec.CreatedAt),
		}
		if !visit(msg) {
			return nil
		}
	}
	return nil
}

// SendMessage archives the message and publishes it back on the room
// broker, which is all "delivery" means offline.
func (r *room) SendMessage(ctx context.Context, text string) error {
	msg := message{
		speaker: r.backend.self,
		text:    text,
		created: time.Now(),
	}
	rec := sqlite.MessageRecord{
		ID:          uuid.NewString(),
		RoomID:      r.rec.ID,
		SpeakerID:   msg.speaker.id,
		SpeakerName: msg.speaker.name,
		Body:        text,
		CreatedAt:   msg.created.UnixMilli(),
	}
	if err := r.backend.archive.Append(ctx, rec); err != nil {
		return fmt.Errorf("sending to %s: %w", r.rec.Name, err)
	}
	r.broker.Publish(pubsub.CreatedEvent, backend.Message(msg))
	return nil
}
