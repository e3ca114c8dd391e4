package services

import (
	"path/filepath"
	"testing"

	"casicasi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry(nil)

	ana := &models.Player{ID: "s1", Name: "Ana"}
	room := reg.Create(ana)

	require.NotNil(t, room)
	assert.Len(t, room.Code, 5)
	assert.True(t, ana.IsHost)
	assert.Equal(t, models.RoomWaiting, room.Status)
	require.Len(t, room.Players, 1)
	assert.Same(t, room, reg.Get(room.Code))

	// Codes are unique across many rooms.
	seen := map[string]bool{room.Code: true}
	for i := 0; i < 100; i++ {
		r := reg.Create(&models.Player{ID: "x", Name: "X"})
		assert.False(t, seen[r.Code])
		seen[r.Code] = true
	}
}

func TestRegistryJoin(t *testing.T) {
	reg := NewRegistry(nil)
	room := reg.Create(&models.Player{ID: "s1", Name: "Ana"})

	t.Run("unknown code", func(t *testing.T) {
		status, joined := reg.Join("nope0", &models.Player{ID: "s2", Name: "Beto"})
		assert.Equal(t, JoinNotFound, status)
		assert.Nil(t, joined)
	})

	t.Run("success", func(t *testing.T) {
		beto := &models.Player{ID: "s2", Name: "Beto"}
		status, joined := reg.Join(room.Code, beto)
		assert.Equal(t, JoinSuccess, status)
		require.NotNil(t, joined)
		assert.Len(t, joined.Players, 2)
		assert.False(t, beto.IsHost)
	})

	t.Run("full room", func(t *testing.T) {
		status, joined := reg.Join(room.Code, &models.Player{ID: "s3", Name: "Carla"})
		assert.Equal(t, JoinFull, status)
		assert.Nil(t, joined)
		assert.Len(t, room.Players, 2)
	})
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry(nil)
	room := reg.Create(&models.Player{ID: "s1", Name: "Ana"})

	reg.Remove(room.Code)
	assert.Nil(t, reg.Get(room.Code))

	// Removing twice is harmless.
	reg.Remove(room.Code)
}

func TestRegistryDescribe(t *testing.T) {
	reg := NewRegistry(nil)

	_, ok := reg.Describe("nope0")
	assert.False(t, ok)

	room := reg.Create(&models.Player{ID: "s1", Name: "Ana"})
	summary, ok := reg.Describe(room.Code)
	require.True(t, ok)
	assert.Equal(t, room.Code, summary.Code)
	assert.Equal(t, "Ana", summary.Host)
	assert.Equal(t, 1, summary.Players)
	assert.Equal(t, models.RoomWaiting, summary.Status)

	status, _ := reg.Join(room.Code, &models.Player{ID: "s2", Name: "Beto"})
	require.Equal(t, JoinSuccess, status)
	summary, _ = reg.Describe(room.Code)
	assert.Equal(t, 2, summary.Players)

	// Gameplay mutations reach the summary through Persist.
	room.Status = models.RoomPlaying
	reg.Persist()
	summary, _ = reg.Describe(room.Code)
	assert.Equal(t, models.RoomPlaying, summary.Status)

	reg.Remove(room.Code)
	_, ok = reg.Describe(room.Code)
	assert.False(t, ok)
}

func TestRegistryDescribeConcurrentWithJoin(t *testing.T) {
	// Describe serves HTTP goroutines while the gateway loop mutates
	// the live room; only the summary copy may be shared.
	reg := NewRegistry(nil)
	room := reg.Create(&models.Player{ID: "s1", Name: "Ana"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			reg.Describe(room.Code)
		}
	}()
	status, _ := reg.Join(room.Code, &models.Player{ID: "s2", Name: "Beto"})
	<-done

	require.Equal(t, JoinSuccess, status)
	summary, ok := reg.Describe(room.Code)
	require.True(t, ok)
	assert.Equal(t, 2, summary.Players)
}

func TestRegistryFileSnapshotRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.json")
	store := NewFileStore(path)

	reg := NewRegistry(store)
	room := reg.Create(&models.Player{ID: "s1", Name: "Ana"})
	reg.Join(room.Code, &models.Player{ID: "s2", Name: "Beto"})
	room.Game = &models.GameState{
		Screen:          models.ScreenPlaying,
		Round:           2,
		Rounds:          5,
		UsedQuestionIDs: []string{"q1", "q2"},
	}
	reg.Persist()

	recovered := NewRegistry(store)
	n, err := recovered.Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := recovered.Get(room.Code)
	require.NotNil(t, got)
	assert.Len(t, got.Players, 2)
	assert.Equal(t, "Ana", got.HostName())
	require.NotNil(t, got.Game)
	assert.Equal(t, models.ScreenPlaying, got.Game.Screen)
	assert.Equal(t, []string{"q1", "q2"}, got.Game.UsedQuestionIDs)

	summary, ok := recovered.Describe(room.Code)
	require.True(t, ok)
	assert.Equal(t, 2, summary.Players)
}

func TestRegistrySnapshotFailureIsNonFatal(t *testing.T) {
	// A directory that does not exist makes every save fail; mutations
	// must still land in memory.
	store := NewFileStore(filepath.Join(t.TempDir(), "missing", "rooms.json"))
	reg := NewRegistry(store)

	room := reg.Create(&models.Player{ID: "s1", Name: "Ana"})
	assert.NotNil(t, reg.Get(room.Code))
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "rooms.json"))
	rooms, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
