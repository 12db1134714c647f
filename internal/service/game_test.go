package service

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("player%d", i+1)
	}
	return names
}

func TestGame_Create_RoleMultisetMatchesTable(t *testing.T) {
	store := newTestStore(t)
	svc := NewGameService(store)
	ctx := context.Background()

	for count, table := range roleTables {
		game, err := svc.Create(ctx, "night game", playerNames(count))
		require.NoError(t, err, "count %d", count)
		require.Len(t, game.Participants, count)

		// Every participant gets exactly one role, and the assigned
		// roles are a permutation of the fixed table for this count.
		var assigned []string
		for _, p := range game.Participants {
			require.NotEmpty(t, p.Role, "count %d participant %s", count, p.Name)
			assigned = append(assigned, p.Role)
		}
		want := append([]string(nil), table...)
		sort.Strings(assigned)
		sort.Strings(want)
		assert.Equal(t, want, assigned, "count %d", count)
	}
}

func TestGame_Create_Rejections(t *testing.T) {
	store := newTestStore(t)
	svc := NewGameService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", playerNames(4))
	assert.ErrorIs(t, err, ErrEmptyRoomName)

	_, err = svc.Create(ctx, "g", playerNames(3))
	assert.ErrorIs(t, err, ErrBadPlayerCount)

	_, err = svc.Create(ctx, "g", playerNames(11))
	assert.ErrorIs(t, err, ErrBadPlayerCount)

	names := playerNames(4)
	names[2] = ""
	_, err = svc.Create(ctx, "g", names)
	assert.ErrorIs(t, err, ErrEmptyPlayer)
}

func TestGame_ListAndDelete(t *testing.T) {
	store := newTestStore(t)
	svc := NewGameService(store)
	ctx := context.Background()

	game, err := svc.Create(ctx, "g", playerNames(5))
	require.NoError(t, err)

	games, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, game.ID, games[0].ID)

	require.NoError(t, svc.Delete(ctx, game.ID))
	assert.ErrorIs(t, svc.Delete(ctx, game.ID), ErrGameNotFound)

	games, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)
}
