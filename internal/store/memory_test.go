package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func recvSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	id, err := m.CreateDocument(ctx, "rooms", Fields{"name": "alpha", "count": 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var doc testDoc
	require.NoError(t, m.GetDocument(ctx, "rooms/"+id, &doc))
	assert.Equal(t, id, doc.ID, "created document should carry its own id")
	assert.Equal(t, "alpha", doc.Name)
	assert.Equal(t, 1, doc.Count)

	assert.ErrorIs(t, m.GetDocument(ctx, "rooms/missing", &doc), ErrNotFound)
}

func TestUpdateFieldsIsPartial(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.PutDocument(ctx, "rooms/r1", Fields{"name": "alpha", "count": 1}))

	// Touch only count; name must survive the merge.
	require.NoError(t, m.UpdateFields(ctx, "rooms/r1", Fields{"count": 2}))

	var doc testDoc
	require.NoError(t, m.GetDocument(ctx, "rooms/r1", &doc))
	assert.Equal(t, "alpha", doc.Name)
	assert.Equal(t, 2, doc.Count)

	assert.ErrorIs(t, m.UpdateFields(ctx, "rooms/nope", Fields{"count": 1}), ErrNotFound)
}

func TestSubscribeOrderAndInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.PutDocument(ctx, "rooms/r1", Fields{"count": 0}))

	ch, stop, err := m.Subscribe(ctx, "rooms/r1")
	require.NoError(t, err)
	defer stop()

	first := recvSnapshot(t, ch)
	var doc testDoc
	require.NoError(t, first.Decode(&doc))
	assert.Equal(t, 0, doc.Count, "subscriber should see current state immediately")

	require.NoError(t, m.UpdateFields(ctx, "rooms/r1", Fields{"count": 1}))
	require.NoError(t, m.UpdateFields(ctx, "rooms/r1", Fields{"count": 2}))

	lastRev := first.Rev
	for i := 1; i <= 2; i++ {
		snap := recvSnapshot(t, ch)
		assert.Greater(t, snap.Rev, lastRev, "revisions must be delivered in order")
		lastRev = snap.Rev
		require.NoError(t, snap.Decode(&doc))
		assert.Equal(t, i, doc.Count)
	}
}

func TestSubscribeCollection(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	ch, stop, err := m.Subscribe(ctx, "rooms")
	require.NoError(t, err)
	defer stop()

	id, err := m.CreateDocument(ctx, "rooms", Fields{"name": "alpha"})
	require.NoError(t, err)

	snap := recvSnapshot(t, ch)
	assert.Equal(t, "rooms/"+id, snap.Path)
	assert.Equal(t, id, snap.ID())
}

func TestDeleteNotifiesWithNilData(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.PutDocument(ctx, "rooms/r1", Fields{"name": "alpha"}))

	ch, stop, err := m.Subscribe(ctx, "rooms/r1")
	require.NoError(t, err)
	defer stop()
	recvSnapshot(t, ch) // initial state

	require.NoError(t, m.DeleteDocument(ctx, "rooms/r1"))
	snap := recvSnapshot(t, ch)
	assert.Nil(t, snap.Data)

	var doc testDoc
	assert.ErrorIs(t, m.GetDocument(ctx, "rooms/r1", &doc), ErrNotFound)
	assert.ErrorIs(t, m.DeleteDocument(ctx, "rooms/r1"), ErrNotFound)
}

func TestListDocumentsScopesToCollection(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.PutDocument(ctx, "rooms/r1", Fields{"name": "alpha"}))
	require.NoError(t, m.PutDocument(ctx, "rooms/r2", Fields{"name": "beta"}))
	require.NoError(t, m.PutDocument(ctx, "games/r1", Fields{"name": "game"}))
	require.NoError(t, m.PutDocument(ctx, "rooms/r1/chat/m1", Fields{"text": "hi"}))

	snaps, err := m.ListDocuments(ctx, "rooms")
	require.NoError(t, err)
	assert.Len(t, snaps, 2, "subcollections and other collections must not leak in")

	snaps, err = m.ListDocuments(ctx, "rooms/r1/chat")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}
