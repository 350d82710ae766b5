package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// setupTestArchive creates a file-backed archive in a temp dir. The DB
// is closed when the test completes.
func setupTestArchive(t *testing.T) *Archive {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	db, err := NewDB(dbPath)
	require.NoError(t, err, "Failed to create test archive")
	t.Cleanup(func() { _ = db.Close() })
	return db.Archive()
}

func TestArchive_UpsertAndFindRoom(t *testing.T) {
	a := setupTestArchive(t)
	ctx := context.Background()

	rec := RoomRecord{ID: "room-1", Kind: "room", Name: "general"}
	require.NoError(t, a.UpsertRoom(ctx, rec))

	found, err := a.RoomByName(ctx, "room", "general")
	require.NoError(t, err)
	require.Equal(t, "room-1", found.ID)
	require.Equal(t, "general", found.Name)

	// Upserting again keeps the existing row.
	require.NoError(t, a.UpsertRoom(ctx, RoomRecord{ID: "room-1", Kind: "room", Name: "general"}))
	rooms, err := a.Rooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
}

func TestArchive_RoomNotFound(t *testing.T) {
	a := setupTestArchive(t)

	_, err := a.RoomByName(context.Background(), "room", "missing")
	var notFound *RoomNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.Name)
}

func TestArchive_AppendAndRecent(t *testing.T) {
	a := setupTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.UpsertRoom(ctx, RoomRecord{ID: "r", Kind: "room", Name: "general"}))
	base := time.Now().UnixMilli()
	for i := 0; i < 5; i++ {
		require.NoError(t, a.Append(ctx, MessageRecord{
			ID:          string(rune('a' + i)),
			RoomID:      "r",
			SpeakerID:   "u1",
			SpeakerName: "alice",
			Body:        "msg",
			CreatedAt:   base + int64(i),
		}))
	}

	msgs, err := a.RecentByRoom(ctx, "r", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "c", msgs[0].ID, "oldest of the most recent three comes first")
	require.Equal(t, "e", msgs[2].ID)

	all, err := a.RecentByRoom(ctx, "r", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestArchive_RecentIsPerRoom(t *testing.T) {
	a := setupTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.UpsertRoom(ctx, RoomRecord{ID: "a", Kind: "room", Name: "alpha"}))
	require.NoError(t, a.UpsertRoom(ctx, RoomRecord{ID: "b", Kind: "room", Name: "beta"}))
	require.NoError(t, a.Append(ctx, MessageRecord{ID: "1", RoomID: "a", SpeakerID: "u", SpeakerName: "u", Body: "x", CreatedAt: 1}))
	require.NoError(t, a.Append(ctx, MessageRecord{ID: "2", RoomID: "b", SpeakerID: "u", SpeakerName: "u", Body: "y", CreatedAt: 2}))

	msgs, err := a.RecentByRoom(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "x", msgs[0].Body)
}

func TestNewDB_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "archive.db")
	db, err := NewDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNewMemoryDB(t *testing.T) {
	db, err := NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Archive().UpsertRoom(context.Background(),
		RoomRecord{ID: "m", Kind: "direct", Name: "alice"}))
}
