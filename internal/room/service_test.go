package room

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yachtlive/yacht/internal/models"
	"github.com/yachtlive/yacht/internal/store"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewService(st, testLogger()), st
}

func TestCreateDefaultsAndHostSeat(t *testing.T) {
	svc, _ := newTestService(t)
	hostID := uuid.New()

	created, err := svc.Create(context.Background(), hostID, "alice", Config{})
	require.NoError(t, err)

	assert.Equal(t, "alice's room", created.Title)
	assert.Equal(t, "yacht", created.GameType)
	assert.Equal(t, DefaultMaxPlayers, created.MaxPlayers)
	assert.Equal(t, models.RoomWaiting, created.Status)
	require.Len(t, created.Players, 1)
	assert.Equal(t, hostID, created.Players[0].ID)
	assert.True(t, created.Players[0].IsReady, "host is auto-ready")

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, hostID, got.HostID)
}

func TestJoinOrderAndCapacity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{MaxPlayers: 2})
	require.NoError(t, err)

	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))
	assert.ErrorIs(t, svc.Join(ctx, created.ID, guest, "guest"), ErrAlreadyInRoom)
	assert.ErrorIs(t, svc.Join(ctx, created.ID, uuid.New(), "third"), ErrRoomFull)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Players, 2)
	assert.Equal(t, hostID, got.Players[0].ID, "join order is preserved")
	assert.Equal(t, guest, got.Players[1].ID)
	assert.False(t, got.Players[1].IsReady, "joiners start not ready")
}

func TestHostLeaveDeletesRoom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)
	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))

	require.NoError(t, svc.Leave(ctx, created.ID, hostID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGuestLeaveKeepsRoom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)
	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))
	require.NoError(t, svc.Leave(ctx, created.ID, guest))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.Equal(t, hostID, got.Players[0].ID)

	assert.ErrorIs(t, svc.Leave(ctx, created.ID, guest), ErrNotInRoom)
}

func TestToggleReady(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)
	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))

	require.NoError(t, svc.ToggleReady(ctx, created.ID, guest))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Players[1].IsReady)

	require.NoError(t, svc.ToggleReady(ctx, created.ID, guest))
	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Players[1].IsReady)

	assert.ErrorIs(t, svc.ToggleReady(ctx, created.ID, uuid.New()), ErrNotInRoom)
}

func TestKickRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)
	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))

	assert.ErrorIs(t, svc.Kick(ctx, created.ID, guest, hostID), ErrNotHost)
	assert.ErrorIs(t, svc.Kick(ctx, created.ID, hostID, hostID), ErrCannotKickHost)
	assert.ErrorIs(t, svc.Kick(ctx, created.ID, hostID, uuid.New()), ErrNotInRoom)

	require.NoError(t, svc.Kick(ctx, created.ID, hostID, guest))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 1)
}

func TestStartPreconditions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)

	// Alone: no game with a single seat.
	assert.ErrorIs(t, svc.Start(ctx, created.ID, hostID), ErrNotAllReady)

	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))

	assert.ErrorIs(t, svc.Start(ctx, created.ID, guest), ErrNotHost)
	assert.ErrorIs(t, svc.Start(ctx, created.ID, hostID), ErrNotAllReady)

	require.NoError(t, svc.ToggleReady(ctx, created.ID, guest))

	var seeded *models.Room
	svc.CreateGame = func(ctx context.Context, r *models.Room) error {
		seeded = r
		return nil
	}
	require.NoError(t, svc.Start(ctx, created.ID, hostID))
	require.NotNil(t, seeded, "game is seeded before the room flips to playing")
	assert.Equal(t, created.ID, seeded.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomPlaying, got.Status)

	assert.ErrorIs(t, svc.Start(ctx, created.ID, hostID), ErrAlreadyStarted)
}

func TestStartAbortsWhenGameSeedFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)
	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))
	require.NoError(t, svc.ToggleReady(ctx, created.ID, guest))

	svc.CreateGame = func(ctx context.Context, r *models.Room) error {
		return assert.AnError
	}
	require.Error(t, svc.Start(ctx, created.ID, hostID))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomWaiting, got.Status, "room stays joinable when the game could not be seeded")
}

func TestSetConnected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)

	require.NoError(t, svc.SetConnected(ctx, created.ID, hostID, false))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Players[0].IsConnected)

	// Presence updates for players no longer seated are ignored.
	require.NoError(t, svc.SetConnected(ctx, created.ID, uuid.New(), false))
}

func TestListRoomsFiltersAndSorts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), "a", Config{})
	require.NoError(t, err)
	second, err := svc.Create(ctx, uuid.New(), "b", Config{GameType: "practice"})
	require.NoError(t, err)
	finished, err := svc.Create(ctx, uuid.New(), "c", Config{})
	require.NoError(t, err)
	require.NoError(t, svc.store.UpdateFields(ctx, RoomPath(finished.ID), store.Fields{
		"status": models.RoomFinished,
	}))

	rooms, err := svc.ListRooms(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, rooms, 2, "finished rooms are hidden by default")
	for i := 1; i < len(rooms); i++ {
		assert.False(t, rooms[i-1].CreatedAt.Before(rooms[i].CreatedAt), "newest first")
	}

	rooms, err = svc.ListRooms(ctx, ListOptions{GameType: "practice"})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, second.ID, rooms[0].ID)

	rooms, err = svc.ListRooms(ctx, ListOptions{ShowAll: true})
	require.NoError(t, err)
	assert.Len(t, rooms, 3)

	rooms, err = svc.ListRooms(ctx, ListOptions{Status: models.RoomWaiting})
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestAnnounceOnMembershipChanges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hostID := uuid.New()

	var notices []string
	svc.Announce = func(ctx context.Context, roomID uuid.UUID, text string) {
		notices = append(notices, text)
	}

	created, err := svc.Create(ctx, hostID, "host", Config{})
	require.NoError(t, err)
	guest := uuid.New()
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))
	require.NoError(t, svc.Kick(ctx, created.ID, hostID, guest))
	require.NoError(t, svc.Join(ctx, created.ID, guest, "guest"))
	require.NoError(t, svc.Leave(ctx, created.ID, guest))

	require.Len(t, notices, 4)
	assert.Contains(t, notices[0], "joined")
	assert.Contains(t, notices[1], "kicked")
	assert.Contains(t, notices[3], "left")
}
