package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/roomid"
)

func TestRoom_CreateAndGet_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	svc := NewRoomService(store)
	ctx := context.Background()

	room, err := svc.Create(ctx, "abc", "Test")
	require.NoError(t, err)
	assert.Equal(t, "abc", room.ID)

	got, err := svc.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Test", got.Name)
}

func TestRoom_Create_NormalizesID(t *testing.T) {
	store := newTestStore(t)
	svc := NewRoomService(store)
	ctx := context.Background()

	room, err := svc.Create(ctx, "MyRoom", "Mixed case id")
	require.NoError(t, err)
	assert.Equal(t, "myroom", room.ID)

	_, err = svc.Get(ctx, "myroom")
	require.NoError(t, err)
}

func TestRoom_Create_RejectsBeforeStoreCall(t *testing.T) {
	store := newTestStore(t)
	svc := NewRoomService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "TOO-LONG-ID", "eleven chars")
	var verr *roomid.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "length", verr.Rule)

	// Rejection happens before any store write.
	docs, err := store.List(ctx, docstore.RoomsPath())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRoom_Recreate_OverwritesNameKeepsChildren(t *testing.T) {
	store := newTestStore(t)
	roomSvc := NewRoomService(store)
	msgSvc := NewMessageService(store)
	ctx := context.Background()

	_, err := roomSvc.Create(ctx, "abc", "Test")
	require.NoError(t, err)
	_, err = msgSvc.Send(ctx, "abc", "alice", "still here", nil)
	require.NoError(t, err)

	// Same id, different name: silent last-writer-wins overwrite.
	_, err = roomSvc.Create(ctx, "abc", "Taken over")
	require.NoError(t, err)

	got, err := roomSvc.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Taken over", got.Name)

	msgs, err := msgSvc.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "still here", msgs[0].Text)
}

func TestRoom_Delete_Cascades(t *testing.T) {
	store := newTestStore(t)
	roomSvc := NewRoomService(store)
	msgSvc := NewMessageService(store)
	voteSvc := NewVoteService(store)
	ctx := context.Background()

	_, err := roomSvc.Create(ctx, "doomed", "Going away")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := msgSvc.Send(ctx, "doomed", "bob", "msg", nil)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := voteSvc.Create(ctx, "doomed", "q?", []string{"a", "b"})
		require.NoError(t, err)
	}

	require.NoError(t, roomSvc.Delete(ctx, "doomed"))

	msgs, err := store.List(ctx, docstore.MessagesPath("doomed"))
	require.NoError(t, err)
	assert.Empty(t, msgs)

	votes, err := store.List(ctx, docstore.VotesPath("doomed"))
	require.NoError(t, err)
	assert.Empty(t, votes)

	_, err = roomSvc.Get(ctx, "doomed")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoom_Delete_NotFound(t *testing.T) {
	store := newTestStore(t)
	svc := NewRoomService(store)
	err := svc.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoom_List_CreationOrder(t *testing.T) {
	store := newTestStore(t)
	svc := NewRoomService(store)
	ctx := context.Background()

	for _, id := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, id, "Room "+id)
		require.NoError(t, err)
	}

	rooms, err := svc.List(ctx, 100)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "one", rooms[0].ID)
	assert.Equal(t, "two", rooms[1].ID)
	assert.Equal(t, "three", rooms[2].ID)
}
