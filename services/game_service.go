package services

import (
	"errors"
	"math/rand"

	"casicasi/models"
)

var (
	ErrAlreadyStarted = errors.New("game already started")
	ErrNoPlayers      = errors.New("room has no players")
	ErrNoQuestions    = errors.New("no question available")
)

// SubmitEffect tells the gateway what a submission did to the room.
type SubmitEffect int

const (
	SubmitIgnored SubmitEffect = iota
	// SubmitTurnEnded: the turn scored, screen moved to answer_result.
	SubmitTurnEnded
	// SubmitGuessConsumed: plus/minus guess spent, still playing, the
	// per-guess countdown must restart.
	SubmitGuessConsumed
)

// AdvanceEffect tells the gateway what an advance acknowledgement did.
type AdvanceEffect int

const (
	AdvanceIgnored AdvanceEffect = iota
	// AdvanceTurnSwitch: next question drawn, waiting on the hand-over
	// screen; no countdown runs yet.
	AdvanceTurnSwitch
	// AdvancePlaying: same player continues, countdown must start.
	AdvancePlaying
	// AdvanceGameOver: terminal.
	AdvanceGameOver
)

// GameService drives the per-room turn/round state machine. It never locks:
// every call arrives on the gateway's single event loop, which owns all
// room mutation.
type GameService struct {
	registry     *Registry
	bank         *QuestionBank
	turnSeconds  int
	guessSeconds int
	rng          *rand.Rand
}

func NewGameService(registry *Registry, bank *QuestionBank, turnSeconds, guessSeconds int) *GameService {
	return &GameService{
		registry:     registry,
		bank:         bank,
		turnSeconds:  turnSeconds,
		guessSeconds: guessSeconds,
	}
}

// SetRand injects a seeded source for deterministic guess-budget rolls.
func (s *GameService) SetRand(rng *rand.Rand) {
	s.rng = rng
}

// Start seeds round 1 for the room: player scores reset, first question
// drawn, screen set to playing. Only the gateway calls this, after host
// validation.
func (s *GameService) Start(room *models.Room) error {
	if room.Game != nil {
		return ErrAlreadyStarted
	}
	if len(room.Players) == 0 {
		return ErrNoPlayers
	}

	for _, p := range room.Players {
		p.Score = InitialScore
		p.ExactHits = 0
		p.CorrectHits = 0
		p.WrongHits = 0
		p.TotalTimeUsed = 0
	}

	game := &models.GameState{
		Screen:             models.ScreenPlaying,
		CurrentPlayerIndex: 0,
		Round:              1,
		Rounds:             room.Config.Rounds,
		UsedQuestionIDs:    []string{},
	}
	question := s.bank.Pick(game.UsedIDSet())
	if question == nil {
		return ErrNoQuestions
	}
	game.Question = question
	game.MarkUsed(question.ID)

	room.Game = game
	room.Status = models.RoomPlaying
	s.setupTurn(room)

	s.registry.Persist()
	return nil
}

// SubmitAnswer scores the current player's submission with remaining
// seconds on the clock. Anything out of order (no game, wrong screen, not
// this player's turn) is a silent no-op.
func (s *GameService) SubmitAnswer(room *models.Room, playerID, answer string, remaining int) SubmitEffect {
	game := room.Game
	if game == nil || game.Screen != models.ScreenPlaying {
		return SubmitIgnored
	}
	current := room.CurrentPlayer()
	if current == nil || current.ID != playerID {
		return SubmitIgnored
	}

	if game.Plusminus != nil {
		return s.submitGuess(room, current, answer, remaining)
	}

	res := ScoreClassic(game.Question, answer, remaining, s.turnSeconds)
	s.endTurn(room, current, answer, res)
	return SubmitTurnEnded
}

func (s *GameService) submitGuess(room *models.Room, current *models.Player, guess string, remaining int) SubmitEffect {
	game := room.Game
	pm := game.Plusminus

	outcome := ScorePlusminusGuess(game.Question, guess, pm.GuessesLeft, remaining, s.guessSeconds)
	pm.GuessesLeft--
	if outcome.Done {
		pm.Hint = ""
		s.endTurn(room, current, guess, outcome.Result)
		return SubmitTurnEnded
	}
	pm.Hint = outcome.Hint
	s.registry.Persist()
	return SubmitGuessConsumed
}

// Timeout fires when a turn or per-guess countdown expires. Stale fires are
// already filtered by the gateway; a room no longer in playing ignores it.
func (s *GameService) Timeout(room *models.Room) SubmitEffect {
	game := room.Game
	if game == nil || game.Screen != models.ScreenPlaying {
		return SubmitIgnored
	}
	current := room.CurrentPlayer()
	if current == nil {
		return SubmitIgnored
	}

	if pm := game.Plusminus; pm != nil {
		// A timed-out guess is a consumed guess with no hint, or the
		// lose path when it was the last one.
		pm.GuessesLeft--
		if pm.GuessesLeft <= 0 {
			pm.Hint = ""
			s.endTurn(room, current, "", PlusminusLoss(s.guessSeconds))
			return SubmitTurnEnded
		}
		pm.Hint = ""
		s.registry.Persist()
		return SubmitGuessConsumed
	}

	s.endTurn(room, current, "", ClassicTimeout(s.turnSeconds))
	return SubmitTurnEnded
}

func (s *GameService) endTurn(room *models.Room, player *models.Player, answer string, res TurnResult) {
	ApplyResult(player, res)
	game := room.Game
	game.LastAnswer = &models.LastAnswer{
		SubmittedValue:  answer,
		PointsAwarded:   res.Points,
		ResultCategory:  res.Category,
		TimeUsedSeconds: res.TimeUsed,
		TimeBonus:       res.TimeBonus,
	}
	game.Screen = models.ScreenAnswerResult
	s.registry.Persist()
}

// Advance moves the room past answer_result or turn_switching in response
// to an explicit client acknowledgement. Replays while already playing are
// no-ops, so a duplicate next-state can never double-advance a round.
func (s *GameService) Advance(room *models.Room) AdvanceEffect {
	game := room.Game
	if game == nil {
		return AdvanceIgnored
	}

	switch game.Screen {
	case models.ScreenTurnSwitching:
		game.Screen = models.ScreenPlaying
		s.registry.Persist()
		return AdvancePlaying

	case models.ScreenAnswerResult:
		return s.advanceTurn(room)

	default:
		return AdvanceIgnored
	}
}

func (s *GameService) advanceTurn(room *models.Room) AdvanceEffect {
	game := room.Game
	previous := game.CurrentPlayerIndex
	next := (previous + 1) % len(room.Players)
	round := game.Round
	if next == 0 {
		round++
	}

	if round > game.Rounds {
		return s.finish(room, true)
	}

	question := s.bank.Pick(game.UsedIDSet())
	if question == nil {
		// Pool exhausted: the round cannot proceed, end the game early
		// without the completion bonus.
		return s.finish(room, false)
	}

	game.Round = round
	game.CurrentPlayerIndex = next
	game.Question = question
	game.MarkUsed(question.ID)
	game.LastAnswer = nil
	s.setupTurn(room)

	if next != previous {
		game.Screen = models.ScreenTurnSwitching
		s.registry.Persist()
		return AdvanceTurnSwitch
	}
	game.Screen = models.ScreenPlaying
	s.registry.Persist()
	return AdvancePlaying
}

func (s *GameService) finish(room *models.Room, completed bool) AdvanceEffect {
	game := room.Game
	if completed {
		ApplyFinalBonus(room.Players)
	}
	game.Screen = models.ScreenGameOver
	game.Question = nil
	game.Plusminus = nil
	room.Status = models.RoomFinished
	s.registry.Persist()
	return AdvanceGameOver
}

// setupTurn configures the countdown length and, for plus/minus turns,
// rolls the guess budget. In classic mode the final round is the forced
// plus/minus wildcard.
func (s *GameService) setupTurn(room *models.Room) {
	game := room.Game
	if s.isPlusminusTurn(room) {
		guesses := s.rollGuesses()
		game.Plusminus = &models.PlusminusState{
			GuessesLeft:    guesses,
			InitialGuesses: guesses,
		}
		game.TurnSeconds = s.guessSeconds
		return
	}
	game.Plusminus = nil
	game.TurnSeconds = s.turnSeconds
}

func (s *GameService) isPlusminusTurn(room *models.Room) bool {
	if room.Config.Mode == models.ModePlusminus {
		return true
	}
	return room.Config.Mode == models.ModeClassic && room.Game.Round == room.Game.Rounds
}

// rollGuesses draws the guess budget for a plus/minus turn, uniform 5..20.
func (s *GameService) rollGuesses() int {
	if s.rng != nil {
		return s.rng.Intn(16) + 5
	}
	return rand.Intn(16) + 5
}

// RemovePlayer takes a player out of a room, fixing up turn ownership and
// migrating the host seat to the oldest remaining member so a room never
// becomes permanently unstartable. Returns true when the room emptied.
func (s *GameService) RemovePlayer(room *models.Room, playerID string) bool {
	idx := -1
	for i, p := range room.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return len(room.Players) == 0
	}
	wasHost := room.Players[idx].IsHost
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)

	if len(room.Players) == 0 {
		return true
	}
	if wasHost {
		room.Players[0].IsHost = true
	}
	if game := room.Game; game != nil && game.CurrentPlayerIndex >= len(room.Players) {
		game.CurrentPlayerIndex = 0
	}
	s.registry.Persist()
	return false
}
