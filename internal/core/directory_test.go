package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCreatesRoom(t *testing.T) {
	dir := NewDirectory(2)

	res, err := dir.Join("x", "A")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, res.MemberCount)

	assert.Equal(t, map[string]int{"x": 1}, dir.Snapshot())
	assert.ElementsMatch(t, []ConnID{"A"}, dir.MembersOf("x"))
	assert.ElementsMatch(t, []string{"x"}, dir.RoomsOf("A"))
}

func TestJoinIsIdempotent(t *testing.T) {
	dir := NewDirectory(2)

	_, err := dir.Join("x", "A")
	require.NoError(t, err)

	res, err := dir.Join("x", "A")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 1, res.MemberCount)
	assert.Equal(t, map[string]int{"x": 1}, dir.Snapshot())
}

func TestJoinRejectsWhenFull(t *testing.T) {
	dir := NewDirectory(2)

	_, err := dir.Join("x", "A")
	require.NoError(t, err)
	_, err = dir.Join("x", "B")
	require.NoError(t, err)

	_, err = dir.Join("x", "C")
	assert.ErrorIs(t, err, ErrRoomFull)

	// Rejection must not mutate anything.
	assert.ElementsMatch(t, []ConnID{"A", "B"}, dir.MembersOf("x"))
	assert.Empty(t, dir.RoomsOf("C"))
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	dir := NewDirectory(2)

	_, err := dir.Join("x", "A")
	require.NoError(t, err)

	res := dir.Leave("x", "A")
	assert.True(t, res.RoomDeleted)
	assert.Equal(t, 0, res.MemberCount)
	assert.Empty(t, dir.Snapshot())
	assert.Empty(t, dir.RoomsOf("A"))

	// Room can be recreated afterwards.
	again, err := dir.Join("x", "B")
	require.NoError(t, err)
	assert.True(t, again.Created)
}

func TestLeaveIsNoopForStrangers(t *testing.T) {
	dir := NewDirectory(2)

	res := dir.Leave("ghost", "A")
	assert.Equal(t, LeaveResult{}, res)

	_, err := dir.Join("x", "A")
	require.NoError(t, err)

	res = dir.Leave("x", "B")
	assert.False(t, res.RoomDeleted)
	assert.Equal(t, 1, res.MemberCount)
	assert.ElementsMatch(t, []ConnID{"A"}, dir.MembersOf("x"))
}

func TestReverseIndexStaysConsistent(t *testing.T) {
	dir := NewDirectory(4)

	for _, roomID := range []string{"r1", "r2", "r3"} {
		_, err := dir.Join(roomID, "A")
		require.NoError(t, err)
	}
	_, err := dir.Join("r2", "B")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, dir.RoomsOf("A"))

	// Membership and reverse index must agree in both directions.
	for _, roomID := range dir.RoomsOf("A") {
		assert.Contains(t, dir.MembersOf(roomID), ConnID("A"))
	}
	for _, roomID := range []string{"r1", "r2", "r3"} {
		for _, conn := range dir.MembersOf(roomID) {
			assert.Contains(t, dir.RoomsOf(conn), roomID)
		}
	}

	dir.Leave("r2", "A")
	assert.ElementsMatch(t, []string{"r1", "r3"}, dir.RoomsOf("A"))
	assert.NotContains(t, dir.MembersOf("r2"), ConnID("A"))
}

func TestDefaultCapacityApplied(t *testing.T) {
	dir := NewDirectory(0)
	assert.Equal(t, DefaultCapacity, dir.Capacity())
}

func TestConcurrentJoinsRaceForLastSlot(t *testing.T) {
	dir := NewDirectory(2)
	_, err := dir.Join("x", "seed")
	require.NoError(t, err)

	const contenders = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	rejected := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := dir.Join("x", ConnID(fmt.Sprintf("conn-%d", i)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
			} else {
				assert.ErrorIs(t, err, ErrRoomFull)
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, contenders-1, rejected)
	assert.Len(t, dir.MembersOf("x"), 2)
}

func TestConcurrentJoinLeaveAcrossRooms(t *testing.T) {
	dir := NewDirectory(8)

	const workers = 12
	const iterations = 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			conn := ConnID(fmt.Sprintf("w%d", w))
			roomID := fmt.Sprintf("room-%d", w%3)
			for i := 0; i < iterations; i++ {
				if _, err := dir.Join(roomID, conn); err != nil {
					continue
				}
				dir.Leave(roomID, conn)
			}
		}(w)
	}
	wg.Wait()

	// Everyone left, so every room must be gone.
	assert.Empty(t, dir.Snapshot())
	for w := 0; w < workers; w++ {
		assert.Empty(t, dir.RoomsOf(ConnID(fmt.Sprintf("w%d", w))))
	}
}
