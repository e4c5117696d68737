package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JPKrishna28/yt-sync-backend/internal/domain"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

func newTestPresence(capacity int) (*Presence, *Directory, *fakeSender) {
	dir := NewDirectory(capacity)
	sender := &fakeSender{}
	return NewPresence(dir, sender, logger.NewLogger("error", "")), dir, sender
}

func TestDisconnectNotifiesRemainingMembers(t *testing.T) {
	presence, dir, sender := newTestPresence(2)
	ctx := context.Background()

	_, err := dir.Join("x", "A")
	require.NoError(t, err)
	_, err = dir.Join("x", "B")
	require.NoError(t, err)

	presence.Disconnect(ctx, "A")

	sent := sender.events()
	require.Len(t, sent, 1)
	assert.Equal(t, "x", sent[0].room)
	assert.Equal(t, domain.EventUserDisconnected, sent[0].event)
	assert.Equal(t, domain.RoomPresence{RoomID: "x", UsersCount: 1}, sent[0].payload)

	assert.ElementsMatch(t, []ConnID{"B"}, dir.MembersOf("x"))

	// Last member leaving deletes the room with nobody left to notify.
	sender.reset()
	presence.Disconnect(ctx, "B")
	assert.Empty(t, sender.events())
	assert.Empty(t, dir.Snapshot())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	presence, dir, sender := newTestPresence(2)
	ctx := context.Background()

	_, err := dir.Join("x", "A")
	require.NoError(t, err)
	_, err = dir.Join("x", "B")
	require.NoError(t, err)

	presence.Disconnect(ctx, "A")
	before := dir.Snapshot()
	sender.reset()

	presence.Disconnect(ctx, "A")

	assert.Empty(t, sender.events(), "repeated termination must not re-broadcast")
	assert.Equal(t, before, dir.Snapshot())
}

func TestDisconnectSweepsEveryRoom(t *testing.T) {
	presence, dir, sender := newTestPresence(4)
	ctx := context.Background()

	// A shares two rooms and is alone in a third.
	for _, roomID := range []string{"r1", "r2", "solo"} {
		_, err := dir.Join(roomID, "A")
		require.NoError(t, err)
	}
	_, err := dir.Join("r1", "B")
	require.NoError(t, err)
	_, err = dir.Join("r2", "C")
	require.NoError(t, err)

	presence.Disconnect(ctx, "A")

	sent := sender.events()
	require.Len(t, sent, 2, "the solo room vanishes without a broadcast")
	rooms := []string{sent[0].room, sent[1].room}
	assert.ElementsMatch(t, []string{"r1", "r2"}, rooms)

	snap := dir.Snapshot()
	assert.Equal(t, map[string]int{"r1": 1, "r2": 1}, snap)
	assert.Empty(t, dir.RoomsOf("A"))
}

func TestDisconnectWithoutMembershipsIsQuiet(t *testing.T) {
	presence, _, sender := newTestPresence(2)

	presence.Disconnect(context.Background(), "stranger")
	assert.Empty(t, sender.events())
}
