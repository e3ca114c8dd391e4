package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"math"
	"time"

	"casicasi/models"

	"github.com/gorilla/websocket"
)

// event is one unit of work for the hub loop: an inbound client message, a
// countdown expiry, or a recovered room's reattach grace running out.
type event struct {
	client  *Client
	msg     Message
	timeout *timeoutEvent
	expired string // room code
}

type timeoutEvent struct {
	roomCode string
	seq      uint64
}

// countdown is the explicit timer handle for a room's active turn or
// per-guess clock. The sequence number fences stale fires: an expiry whose
// seq no longer matches is dropped without touching state.
type countdown struct {
	timer    *time.Timer
	seq      uint64
	deadline time.Time
	duration int
}

// Hub is the realtime session gateway. A single Run loop applies every
// room mutation, so client events and timer expiries for the same room can
// never interleave; whichever is processed first wins and the loser
// becomes a no-op.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan event

	registry *Registry
	games    *GameService

	countdowns map[string]*countdown
	seq        uint64

	cleanupOnDisconnect bool
}

// Client is one websocket session. Its id doubles as the player's session
// identifier inside whatever room it joins.
type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	roomCode string
}

func NewHub(registry *Registry, games *GameService, cleanupOnDisconnect bool) *Hub {
	return &Hub{
		clients:             make(map[*Client]bool),
		register:            make(chan *Client),
		unregister:          make(chan *Client),
		events:              make(chan event, 256),
		registry:            registry,
		games:               games,
		countdowns:          make(map[string]*countdown),
		cleanupOnDisconnect: cleanupOnDisconnect,
	}
}

// Run processes events until the context is cancelled. Recovered rooms that
// were mid-turn get a fresh countdown before the first event is handled.
func (h *Hub) Run(ctx context.Context) error {
	h.resumeRooms()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Client registered: %s - Total clients: %d", client.id, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client unregistered: %s - Total clients: %d", client.id, len(h.clients))
				h.handleDisconnect(client)
			}

		case ev := <-h.events:
			switch {
			case ev.timeout != nil:
				h.handleTimeout(ev.timeout)
			case ev.expired != "":
				h.expireRecovered(ev.expired)
			default:
				h.dispatch(ev.client, ev.msg)
			}
		}
	}
}

// recoveredRoomGrace is how long a snapshot-recovered room may sit without
// any connected client before it is destroyed. Session ids die with their
// sockets, so seats in a recovered room can never be reclaimed.
const recoveredRoomGrace = 10 * time.Minute

// resumeRooms re-arms countdowns for snapshot-recovered rooms that were in
// the middle of a turn. The countdown restarts from the full duration; the
// snapshot does not carry deadlines. Every recovered room also gets an
// expiry check so abandoned ones do not live forever.
func (h *Hub) resumeRooms() {
	for code, room := range h.registry.Rooms() {
		if room.Game != nil && room.Game.Screen == models.ScreenPlaying {
			log.Printf("Resuming room %s in round %d", code, room.Game.Round)
			h.armCountdown(room)
		}
		code := code
		time.AfterFunc(recoveredRoomGrace, func() {
			h.events <- event{expired: code}
		})
	}
}

// expireRecovered destroys a recovered room if no client has attached to it
// since startup.
func (h *Hub) expireRecovered(code string) {
	room := h.registry.Get(code)
	if room == nil {
		return
	}
	for client := range h.clients {
		if client.roomCode == code {
			return
		}
	}
	h.stopCountdown(code)
	h.registry.Remove(code)
	log.Printf("Room %s expired (nobody returned after recovery)", code)
}

// dispatch validates and routes one inbound message. Unknown types and
// malformed payloads never reach game logic.
func (h *Hub) dispatch(c *Client, msg Message) {
	if !h.clients[c] {
		// The client unregistered while this message sat in the queue;
		// its send channel is already closed.
		return
	}

	switch msg.Type {
	case MsgPing:
		h.sendTo(c, OutMessage{Type: MsgPong})

	case MsgCreateRoom:
		var p CreateRoomPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		h.handleCreateRoom(c, p)

	case MsgJoinRoom:
		var p JoinRoomPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		h.handleJoinRoom(c, p)

	case MsgCheckRoomStatus:
		var p RoomRefPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		h.handleRoomStatus(c, p)

	case MsgStartGame:
		var p RoomRefPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		h.handleStartGame(c, p)

	case MsgSubmitAnswer:
		var p SubmitAnswerPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		h.handleSubmitAnswer(c, p)

	case MsgNextState:
		var p RoomRefPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		h.handleNextState(c, p)

	default:
		log.Printf("Unknown message type %q from client %s", msg.Type, c.id)
	}
}

func (h *Hub) decode(c *Client, raw json.RawMessage, dst any) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		h.sendTo(c, OutMessage{Type: MsgError, Payload: ErrorPayload{Message: "invalid payload"}})
		return false
	}
	return true
}

func (h *Hub) handleCreateRoom(c *Client, p CreateRoomPayload) {
	if c.roomCode != "" {
		h.sendTo(c, OutMessage{Type: MsgError, Payload: ErrorPayload{Message: "Ya estás en una sala."}})
		return
	}
	name := p.PlayerName
	if name == "" {
		name = "Jugador"
	}

	player := &models.Player{ID: c.id, Name: name, Avatar: p.Avatar}
	room := h.registry.Create(player)

	if p.Config.Mode == models.ModePlusminus {
		room.Config.Mode = models.ModePlusminus
	}
	if p.Config.Rounds > 0 && p.Config.Rounds <= 20 {
		room.Config.Rounds = p.Config.Rounds
	}
	h.registry.Persist()

	c.roomCode = room.Code
	log.Printf("Player %s (%s) created room %s", name, c.id, room.Code)
	h.sendTo(c, OutMessage{Type: MsgRoomCreated, Payload: RoomCreatedPayload{RoomCode: room.Code}})
}

func (h *Hub) handleJoinRoom(c *Client, p JoinRoomPayload) {
	if c.roomCode != "" {
		h.sendTo(c, OutMessage{Type: MsgJoinResult, Payload: JoinResultPayload{
			Success: false, Message: "Ya estás en una sala.",
		}})
		return
	}
	name := p.PlayerName
	if name == "" {
		name = "Jugador"
	}

	player := &models.Player{ID: c.id, Name: name, Avatar: p.Avatar}
	status, room := h.registry.Join(p.RoomCode, player)
	if status != JoinSuccess {
		h.sendTo(c, OutMessage{Type: MsgJoinResult, Payload: JoinResultPayload{
			Success: false, Message: "La sala no existe o está llena.",
		}})
		return
	}

	c.roomCode = room.Code
	log.Printf("Player %s (%s) joined room %s", name, c.id, room.Code)
	h.sendTo(c, OutMessage{Type: MsgJoinResult, Payload: JoinResultPayload{Success: true, Players: room.Players}})
	h.broadcastToRoom(room.Code, OutMessage{Type: MsgPlayerJoined, Payload: PlayersPayload{Players: room.Players}})
}

func (h *Hub) handleRoomStatus(c *Client, p RoomRefPayload) {
	room := h.registry.Get(p.RoomCode)
	if room == nil {
		h.sendTo(c, OutMessage{Type: MsgRoomStatus, Payload: RoomStatusPayload{Status: RoomStatusNotFound}})
		return
	}
	if room.Game != nil {
		h.sendTo(c, OutMessage{Type: MsgRoomStatus, Payload: RoomStatusPayload{Status: RoomStatusStarted, HostName: room.HostName()}})
		return
	}
	h.sendTo(c, OutMessage{Type: MsgRoomStatus, Payload: RoomStatusPayload{Status: RoomStatusReady, HostName: room.HostName()}})
}

func (h *Hub) handleStartGame(c *Client, p RoomRefPayload) {
	room := h.registry.Get(p.RoomCode)
	if room == nil {
		return
	}
	player := room.Player(c.id)
	if player == nil || !player.IsHost {
		// Privileged action from a non-host: silently dropped.
		return
	}

	if err := h.games.Start(room); err != nil {
		h.sendTo(c, OutMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		return
	}
	log.Printf("Game started in room %s (%s, %d rounds)", room.Code, room.Config.Mode, room.Config.Rounds)
	h.armCountdown(room)
	h.broadcastState(room)
}

func (h *Hub) handleSubmitAnswer(c *Client, p SubmitAnswerPayload) {
	room := h.registry.Get(p.RoomCode)
	if room == nil || room.Player(c.id) == nil {
		return
	}

	remaining := h.remainingSeconds(room.Code)
	switch h.games.SubmitAnswer(room, c.id, p.Answer, remaining) {
	case SubmitTurnEnded:
		h.stopCountdown(room.Code)
		h.broadcastState(room)
	case SubmitGuessConsumed:
		h.armCountdown(room)
		h.broadcastState(room)
	}
}

func (h *Hub) handleNextState(c *Client, p RoomRefPayload) {
	room := h.registry.Get(p.RoomCode)
	if room == nil || room.Player(c.id) == nil {
		return
	}

	switch h.games.Advance(room) {
	case AdvanceTurnSwitch:
		h.stopCountdown(room.Code)
		h.broadcastState(room)
	case AdvancePlaying:
		h.armCountdown(room)
		h.broadcastState(room)
	case AdvanceGameOver:
		h.stopCountdown(room.Code)
		h.broadcastState(room)
	}
}

func (h *Hub) handleTimeout(ev *timeoutEvent) {
	cd := h.countdowns[ev.roomCode]
	if cd == nil || cd.seq != ev.seq {
		// A newer countdown replaced this one, or the owning state was
		// already left. Stale fire, drop it.
		return
	}
	delete(h.countdowns, ev.roomCode)

	room := h.registry.Get(ev.roomCode)
	if room == nil {
		return
	}
	switch h.games.Timeout(room) {
	case SubmitTurnEnded:
		h.broadcastState(room)
	case SubmitGuessConsumed:
		h.armCountdown(room)
		h.broadcastState(room)
	}
}

func (h *Hub) handleDisconnect(c *Client) {
	if c.roomCode == "" || !h.cleanupOnDisconnect {
		return
	}
	room := h.registry.Get(c.roomCode)
	if room == nil {
		return
	}

	current := room.CurrentPlayer()
	wasCurrent := current != nil && current.ID == c.id

	if h.games.RemovePlayer(room, c.id) {
		h.stopCountdown(room.Code)
		h.registry.Remove(room.Code)
		log.Printf("Room %s destroyed (last player left)", room.Code)
		return
	}

	h.broadcastToRoom(room.Code, OutMessage{Type: MsgPlayerLeft, Payload: PlayersPayload{Players: room.Players}})
	if room.Game != nil {
		if wasCurrent && room.Game.Screen == models.ScreenPlaying {
			// The turn owner vanished mid-turn; hand the turn to the
			// reassigned player on a fresh clock.
			h.armCountdown(room)
		}
		h.broadcastState(room)
	}
}

// armCountdown starts (or restarts) the room's turn clock from the game's
// current TurnSeconds. Any previous countdown is stopped first; leaving a
// state always invalidates the clock that belonged to it.
func (h *Hub) armCountdown(room *models.Room) {
	h.stopCountdown(room.Code)
	if room.Game == nil {
		return
	}
	duration := room.Game.TurnSeconds
	if duration <= 0 {
		return
	}

	h.seq++
	seq := h.seq
	code := room.Code
	cd := &countdown{
		seq:      seq,
		deadline: time.Now().Add(time.Duration(duration) * time.Second),
		duration: duration,
	}
	cd.timer = time.AfterFunc(time.Duration(duration)*time.Second, func() {
		h.events <- event{timeout: &timeoutEvent{roomCode: code, seq: seq}}
	})
	h.countdowns[code] = cd
}

func (h *Hub) stopCountdown(roomCode string) {
	if cd := h.countdowns[roomCode]; cd != nil {
		cd.timer.Stop()
		delete(h.countdowns, roomCode)
	}
}

// remainingSeconds reports how much of the active countdown is left,
// clamped to [0, duration].
func (h *Hub) remainingSeconds(roomCode string) int {
	cd := h.countdowns[roomCode]
	if cd == nil {
		return 0
	}
	remaining := int(math.Ceil(time.Until(cd.deadline).Seconds()))
	if remaining < 0 {
		return 0
	}
	if remaining > cd.duration {
		return cd.duration
	}
	return remaining
}

func (h *Hub) broadcastState(room *models.Room) {
	h.broadcastToRoom(room.Code, OutMessage{Type: MsgGameStateUpdated, Payload: GameStatePayload{
		RoomCode: room.Code,
		Game:     room.Game,
		Players:  room.Players,
	}})
}

func (h *Hub) broadcastToRoom(roomCode string, msg OutMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s broadcast: %v", msg.Type, err)
		return
	}
	for client := range h.clients {
		if client.roomCode != roomCode {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) sendTo(c *Client, msg OutMessage) {
	if !h.clients[c] {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	select {
	case c.send <- data:
	default:
		close(c.send)
		delete(h.clients, c)
	}
}

// RegisterClient wires a freshly upgraded websocket into the hub and starts
// its pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		id:     generateSessionID(),
		socket: conn,
		send:   make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Error unmarshaling message from %s: %v", c.id, err)
			continue
		}
		c.hub.events <- event{client: c, msg: msg}
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func generateSessionID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
