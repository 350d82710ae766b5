package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer spans the archive queries; a no-op provider keeps this free
// when tracing is disabled.
var tracer trace.Tracer = otel.Tracer("stanza/archive")

// RoomRecord is the database row for a room.
type RoomRecord struct {
	ID        string
	Kind      string // "room" or "direct"
	Name      string
	Alias     *string
	CreatedAt int64
}

// MessageRecord is the database row for an archived message.
type MessageRecord struct {
	ID          string
	RoomID      string
	SpeakerID   string
	SpeakerName string
	Body        string
	CreatedAt   int64 // Unix milliseconds
}

// RoomNotFoundError is returned when a room lookup finds nothing.
type RoomNotFoundError struct {
	Kind string
	Name string
}

func (e *RoomNotFoundError) Error() string {
	return fmt.Sprintf("no archived %s named %q", e.Kind, e.Name)
}

// Archive stores rooms and their message scrollback.
type Archive struct {
	db *sql.DB
}

func newArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// UpsertRoom stores a room row, keeping the existing row on conflict.
func (a *Archive) UpsertRoom(ctx context.Context, room RoomRecord) error {
	ctx, span := tracer.Start(ctx, "archive.UpsertRoom",
		trace.WithAttributes(attribute.String("room.id", room.ID)))
	defer span.End()

	if room.CreatedAt == 0 {
		room.CreatedAt = time.Now().Unix()
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO rooms (id, kind, name, alias, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		room.ID, room.Kind, room.Name, room.Alias, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting room: %w", err)
	}
	return nil
}

// RoomByName finds a room by kind and name.
func (a *Archive) RoomByName(ctx context.Context, kind, name string) (*RoomRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.RoomByName",
		trace.WithAttributes(attribute.String("room.name", name)))
	defer span.End()

	row := a.db.QueryRowContext(ctx,
		`SELECT id, kind, name, alias, created_at FROM rooms WHERE kind = ? AND name = ?`,
		kind, name,
	)
	var rec RoomRecord
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Name, &rec.Alias, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &RoomNotFoundError{Kind: kind, Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("finding room by name: %w", err)
	}
	return &rec, nil
}

// Rooms lists every archived room ordered by name.
func (a *Archive) Rooms(ctx context.Context) ([]RoomRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, kind, name, alias, created_at FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RoomRecord
	for rows.Next() {
		var rec RoomRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Name, &rec.Alias, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Append stores one message.
func (a *Archive) Append(ctx context.Context, msg MessageRecord) error {
	ctx, span := tracer.Start(ctx, "archive.Append",
		trace.WithAttributes(
			attribute.String("room.id", msg.RoomID),
			attribute.Int("body.len", len(msg.Body)),
		))
	defer span.End()

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO messages (id, room_id, speaker_id, speaker_name, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.RoomID, msg.SpeakerID, msg.SpeakerName, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// RecentByRoom returns up to limit messages for a room in chronological
// order. A limit of zero or less means 200.
func (a *Archive) RecentByRoom(ctx context.Context, roomID string, limit int) ([]MessageRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.RecentByRoom",
		trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	if limit <= 0 {
		limit = 200
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, room_id, speaker_id, speaker_name, body, created_at FROM (
			SELECT id, room_id, speaker_id, speaker_name, body, created_at
			FROM messages WHERE room_id = ? ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`,
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("loading scrollback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.SpeakerID, &rec.SpeakerName, &rec.Body, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
