package services

import (
	"encoding/json"

	"casicasi/models"
)

// Client -> server message types.
const (
	MsgCreateRoom      = "create-room"
	MsgJoinRoom        = "join-room"
	MsgCheckRoomStatus = "check-room-status"
	MsgStartGame       = "start-game"
	MsgSubmitAnswer    = "submit-answer"
	MsgNextState       = "next-state"
	MsgPing            = "ping"
)

// Server -> client message types. Acks go to the single caller, the rest
// are room broadcasts.
const (
	MsgRoomCreated      = "room-created"
	MsgJoinResult       = "join-result"
	MsgRoomStatus       = "room-status"
	MsgError            = "error"
	MsgPong             = "pong"
	MsgPlayerJoined     = "player-joined"
	MsgPlayerLeft       = "player-left"
	MsgGameStateUpdated = "game-state-updated"
)

// Message is the inbound envelope. Payloads stay raw until the variant is
// known; nothing reaches game logic undecoded.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OutMessage is the outbound envelope.
type OutMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type CreateRoomPayload struct {
	PlayerName string            `json:"playerName"`
	Avatar     string            `json:"avatar"`
	Config     models.GameConfig `json:"gameConfig"`
}

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar"`
}

// RoomRefPayload covers the actions that only name a room.
type RoomRefPayload struct {
	RoomCode string `json:"roomCode"`
}

type SubmitAnswerPayload struct {
	RoomCode string `json:"roomCode"`
	Answer   string `json:"answer"`
}

type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

type JoinResultPayload struct {
	Success bool             `json:"success"`
	Players []*models.Player `json:"players,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Room status values for check-room-status acks.
const (
	RoomStatusReady    = "ready_to_join"
	RoomStatusStarted  = "game_started"
	RoomStatusNotFound = "not_found"
)

type RoomStatusPayload struct {
	Status   string `json:"status"`
	HostName string `json:"hostName,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayersPayload struct {
	Players []*models.Player `json:"players"`
}

// GameStatePayload is the full authoritative snapshot broadcast after every
// applied transition.
type GameStatePayload struct {
	RoomCode string            `json:"roomCode"`
	Game     *models.GameState `json:"game"`
	Players  []*models.Player  `json:"players"`
}
