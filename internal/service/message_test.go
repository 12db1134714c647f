package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/view"
)

func TestMessage_Send(t *testing.T) {
	store := newTestStore(t)
	svc := NewMessageService(store)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "abc", "alice", "hello", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Zero(t, msg.Likes)
	assert.False(t, msg.CreatedAt.IsZero())

	msgs, err := svc.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "alice", msgs[0].Username)
}

func TestMessage_Send_Preconditions(t *testing.T) {
	store := newTestStore(t)
	svc := NewMessageService(store)
	ctx := context.Background()

	_, err := svc.Send(ctx, "abc", "alice", "", nil)
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.Send(ctx, "abc", "", "hello", nil)
	assert.ErrorIs(t, err, ErrEmptyUsername)

	_, err = svc.Send(ctx, "", "alice", "hello", nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMessage_Send_ReplyTo(t *testing.T) {
	store := newTestStore(t)
	svc := NewMessageService(store)
	ctx := context.Background()

	first, err := svc.Send(ctx, "abc", "alice", "original", nil)
	require.NoError(t, err)

	reply, err := svc.Send(ctx, "abc", "bob", "answer", &first.ID)
	require.NoError(t, err)

	msgs, err := svc.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[1].ReplyTo)
	assert.Equal(t, first.ID, *msgs[1].ReplyTo)
	assert.Equal(t, reply.ID, msgs[1].ID)
}

// Stamp tokens are stored verbatim; rendering happens in the view layer.
func TestMessage_Send_StampsStoredRaw(t *testing.T) {
	store := newTestStore(t)
	svc := NewMessageService(store)
	ctx := context.Background()

	_, err := svc.Send(ctx, "abc", "alice", ":stamp_3", nil)
	require.NoError(t, err)

	msgs, err := svc.List(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, ":stamp_3", msgs[0].Text)
}

// N concurrent non-conflicting sends all land: the projected list has
// exactly N entries, newest first.
func TestMessage_ConcurrentSends(t *testing.T) {
	store := newTestStore(t)
	svc := NewMessageService(store)
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Send(ctx, "abc", "alice", fmt.Sprintf("msg %d", i), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := svc.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, msgs, n)

	views := view.Messages(msgs)
	require.Len(t, views, n)
	for i := 1; i < len(views); i++ {
		if views[i].CreatedAt.After(views[i-1].CreatedAt) {
			t.Fatalf("view %d is newer than view %d", i, i-1)
		}
	}
}

func TestMessage_Like(t *testing.T) {
	store := newTestStore(t)
	svc := NewMessageService(store)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "abc", "alice", "hello", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Like(ctx, "abc", msg.ID, 0))

	msgs, err := svc.List(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, msgs[0].Likes)

	assert.ErrorIs(t, svc.Like(ctx, "abc", "missing", 0), ErrMessageNotFound)
}

// Like is a blind write from a previously loaded value: two likers
// holding the same stale count both write 1, losing one like.
func TestMessage_Like_LostUpdateRace(t *testing.T) {
	store := newTestStore(t)
	svc := NewMessageService(store)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "abc", "alice", "hello", nil)
	require.NoError(t, err)

	// Both clients loaded likes=0 from the same snapshot.
	require.NoError(t, svc.Like(ctx, "abc", msg.ID, 0))
	require.NoError(t, svc.Like(ctx, "abc", msg.ID, 0))

	msgs, err := svc.List(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, msgs[0].Likes, "second like overwrote the first")
}
