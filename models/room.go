package models

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// MaxRoomPlayers caps the online path at two seats per room.
const MaxRoomPlayers = 2

// Room is an isolated game session identified by a short shared code. The
// code doubles as the access token: anyone holding it may try to join while
// a seat is open.
type Room struct {
	Code    string     `json:"code"`
	Players []*Player  `json:"players"`
	Config  GameConfig `json:"config"`
	Game    *GameState `json:"game,omitempty"`
	Status  RoomStatus `json:"status"`
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxRoomPlayers
}

// Player returns the member with the given session id, or nil.
func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HostName returns the recorded host's display name, or empty if the host
// seat is vacant.
func (r *Room) HostName() string {
	for _, p := range r.Players {
		if p.IsHost {
			return p.Name
		}
	}
	return ""
}

// CurrentPlayer returns whose turn it is, or nil when no game is running.
func (r *Room) CurrentPlayer() *Player {
	if r.Game == nil || len(r.Players) == 0 {
		return nil
	}
	idx := r.Game.CurrentPlayerIndex
	if idx < 0 || idx >= len(r.Players) {
		return nil
	}
	return r.Players[idx]
}
