package services

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"

	"casicasi/models"
)

type JoinStatus string

const (
	JoinSuccess  JoinStatus = "success"
	JoinFull     JoinStatus = "full"
	JoinNotFound JoinStatus = "not_found"
)

// RoomSummary is a point-in-time copy of a room's public fields. The live
// Room structs belong to the gateway loop; anything running on an HTTP
// goroutine reads summaries instead.
type RoomSummary struct {
	Code    string
	Status  models.RoomStatus
	Host    string
	Players int
	Config  models.GameConfig
}

func summarize(room *models.Room) RoomSummary {
	return RoomSummary{
		Code:    room.Code,
		Status:  room.Status,
		Host:    room.HostName(),
		Players: len(room.Players),
		Config:  room.Config,
	}
}

// Registry owns the room table. All game-state mutation goes through the
// gateway's single event loop; the mutex guards the map and the summary
// table that concurrent REST readers see. Every mutation is snapshotted
// through the store, best-effort.
type Registry struct {
	mutex     sync.RWMutex
	rooms     map[string]*models.Room
	summaries map[string]RoomSummary
	store     SnapshotStore
}

func NewRegistry(store SnapshotStore) *Registry {
	return &Registry{
		rooms:     make(map[string]*models.Room),
		summaries: make(map[string]RoomSummary),
		store:     store,
	}
}

// Restore loads the persisted room table, replacing the current one. Called
// once at startup for crash recovery.
func (r *Registry) Restore() (int, error) {
	if r.store == nil {
		return 0, nil
	}
	rooms, err := r.store.Load()
	if err != nil {
		return 0, err
	}
	summaries := make(map[string]RoomSummary, len(rooms))
	for code, room := range rooms {
		summaries[code] = summarize(room)
	}
	r.mutex.Lock()
	r.rooms = rooms
	r.summaries = summaries
	r.mutex.Unlock()
	return len(rooms), nil
}

// Create allocates a room with a fresh collision-checked code and the given
// player seated as host.
func (r *Registry) Create(player *models.Player) *models.Room {
	player.IsHost = true

	r.mutex.Lock()
	code := r.generateCode()
	room := &models.Room{
		Code:    code,
		Players: []*models.Player{player},
		Config:  models.GameConfig{Mode: models.ModeClassic, Rounds: 5},
		Status:  models.RoomWaiting,
	}
	r.rooms[code] = room
	r.mutex.Unlock()

	r.persist()
	return room
}

// Join seats a player in an existing room. Full rooms and unknown codes are
// reported, not errors.
func (r *Registry) Join(code string, player *models.Player) (JoinStatus, *models.Room) {
	r.mutex.Lock()
	room, ok := r.rooms[code]
	if !ok {
		r.mutex.Unlock()
		return JoinNotFound, nil
	}
	if room.IsFull() {
		r.mutex.Unlock()
		return JoinFull, nil
	}
	room.Players = append(room.Players, player)
	r.mutex.Unlock()

	r.persist()
	return JoinSuccess, room
}

// Get returns the live room. Only the gateway loop may touch the result;
// its fields are mutated without further locking.
func (r *Registry) Get(code string) *models.Room {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.rooms[code]
}

// Describe returns a copy of the room's public fields, refreshed on every
// persisted mutation. Safe from any goroutine.
func (r *Registry) Describe(code string) (RoomSummary, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	summary, ok := r.summaries[code]
	return summary, ok
}

func (r *Registry) Remove(code string) {
	r.mutex.Lock()
	delete(r.rooms, code)
	r.mutex.Unlock()

	r.persist()
}

// Rooms returns a copy of the room table for snapshotting and recovery.
func (r *Registry) Rooms() map[string]*models.Room {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	copied := make(map[string]*models.Room, len(r.rooms))
	for code, room := range r.rooms {
		copied[code] = room
	}
	return copied
}

// Persist writes the current table through the snapshot store. Failures are
// logged and swallowed: persistence is a crash-recovery convenience, never
// a reason to abort the mutation that triggered it.
func (r *Registry) Persist() {
	r.persist()
}

func (r *Registry) persist() {
	rooms := r.Rooms()

	// Refresh the summary table first; the caller just mutated room
	// contents and still owns them, so reading the fields here is safe.
	summaries := make(map[string]RoomSummary, len(rooms))
	for code, room := range rooms {
		summaries[code] = summarize(room)
	}
	r.mutex.Lock()
	r.summaries = summaries
	r.mutex.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.Save(rooms); err != nil {
		log.Printf("Failed to persist room snapshot: %v", err)
	}
}

// generateCode returns a short room code not currently in use. Caller holds
// the write lock.
func (r *Registry) generateCode() string {
	for {
		bytes := make([]byte, 3)
		rand.Read(bytes)
		code := hex.EncodeToString(bytes)[:5]
		if _, taken := r.rooms[code]; !taken {
			return code
		}
	}
}
