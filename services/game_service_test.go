package services

import (
	"fmt"
	"math/rand"
	"testing"

	"casicasi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGame builds a registry-backed room with Ana (host) and Beto and a
// bank of n distinct questions answering 100 within [90, 110].
func newTestGame(t *testing.T, mode models.GameMode, rounds, n int) (*GameService, *models.Room) {
	t.Helper()

	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:           fmt.Sprintf("q%d", i),
			PromptText:   fmt.Sprintf("Pregunta %d", i),
			CorrectValue: 100,
			RangeMin:     90,
			RangeMax:     110,
			IsActive:     true,
		}
	}
	bank := NewQuestionBank(questions, rand.New(rand.NewSource(7)))

	reg := NewRegistry(nil)
	room := reg.Create(&models.Player{ID: "ana", Name: "Ana"})
	status, _ := reg.Join(room.Code, &models.Player{ID: "beto", Name: "Beto"})
	require.Equal(t, JoinSuccess, status)
	room.Config = models.GameConfig{Mode: mode, Rounds: rounds}

	svc := NewGameService(reg, bank, 30, 10)
	svc.SetRand(rand.New(rand.NewSource(7)))
	return svc, room
}

func TestStart(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 20)

	require.NoError(t, svc.Start(room))

	game := room.Game
	require.NotNil(t, game)
	assert.Equal(t, models.ScreenPlaying, game.Screen)
	assert.Equal(t, 1, game.Round)
	assert.Equal(t, 5, game.Rounds)
	assert.Equal(t, 0, game.CurrentPlayerIndex)
	assert.Equal(t, 30, game.TurnSeconds)
	assert.Nil(t, game.Plusminus)
	require.NotNil(t, game.Question)
	assert.Equal(t, []string{game.Question.ID}, game.UsedQuestionIDs)
	assert.Equal(t, models.RoomPlaying, room.Status)
	for _, p := range room.Players {
		assert.Equal(t, InitialScore, p.Score)
	}

	t.Run("second start rejected", func(t *testing.T) {
		assert.ErrorIs(t, svc.Start(room), ErrAlreadyStarted)
	})
}

func TestStartWithEmptyBank(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 0)
	assert.ErrorIs(t, svc.Start(room), ErrNoQuestions)
	assert.Nil(t, room.Game)
}

func TestSubmitAnswerScenario(t *testing.T) {
	// Room by host Ana, guest Beto, classic 5 rounds: an exact answer
	// with 20 seconds left on a 30 second clock is worth 150 + 20.
	svc, room := newTestGame(t, models.ModeClassic, 5, 20)
	require.NoError(t, svc.Start(room))

	effect := svc.SubmitAnswer(room, "ana", "100", 20)
	assert.Equal(t, SubmitTurnEnded, effect)

	game := room.Game
	assert.Equal(t, models.ScreenAnswerResult, game.Screen)
	require.NotNil(t, game.LastAnswer)
	assert.Equal(t, 170, game.LastAnswer.PointsAwarded)
	assert.Equal(t, models.ExactHit, game.LastAnswer.ResultCategory)
	assert.Equal(t, 20, game.LastAnswer.TimeBonus)
	assert.Equal(t, 10, game.LastAnswer.TimeUsedSeconds)
	assert.Equal(t, 270, room.Players[0].Score)
}

func TestSubmitAnswerValidation(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 20)

	t.Run("before start is a no-op", func(t *testing.T) {
		assert.Equal(t, SubmitIgnored, svc.SubmitAnswer(room, "ana", "100", 20))
	})

	require.NoError(t, svc.Start(room))

	t.Run("not this player's turn", func(t *testing.T) {
		assert.Equal(t, SubmitIgnored, svc.SubmitAnswer(room, "beto", "100", 20))
		assert.Equal(t, models.ScreenPlaying, room.Game.Screen)
	})

	t.Run("late submission after result", func(t *testing.T) {
		require.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, "ana", "100", 20))
		score := room.Players[0].Score
		assert.Equal(t, SubmitIgnored, svc.SubmitAnswer(room, "ana", "100", 5))
		assert.Equal(t, score, room.Players[0].Score)
	})
}

func TestAdvanceTurnOrder(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 30)
	require.NoError(t, svc.Start(room))
	game := room.Game

	// Ana finishes her turn; the hand-over screen comes first because
	// the turn passes to a different player.
	require.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, "ana", "100", 10))
	assert.Equal(t, AdvanceTurnSwitch, svc.Advance(room))
	assert.Equal(t, models.ScreenTurnSwitching, game.Screen)
	assert.Equal(t, 1, game.CurrentPlayerIndex)
	assert.Equal(t, 1, game.Round)
	assert.Nil(t, game.LastAnswer)

	// The switch screen is acknowledged with the already-drawn question.
	heldQuestion := game.Question.ID
	assert.Equal(t, AdvancePlaying, svc.Advance(room))
	assert.Equal(t, models.ScreenPlaying, game.Screen)
	assert.Equal(t, heldQuestion, game.Question.ID)

	// Beto wraps the cycle back to Ana: round increments exactly once.
	require.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, "beto", "100", 10))
	assert.Equal(t, AdvanceTurnSwitch, svc.Advance(room))
	assert.Equal(t, 0, game.CurrentPlayerIndex)
	assert.Equal(t, 2, game.Round)
}

func TestAdvanceIdempotentWhilePlaying(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 20)
	require.NoError(t, svc.Start(room))

	round, idx := room.Game.Round, room.Game.CurrentPlayerIndex
	assert.Equal(t, AdvanceIgnored, svc.Advance(room))
	assert.Equal(t, AdvanceIgnored, svc.Advance(room))
	assert.Equal(t, round, room.Game.Round)
	assert.Equal(t, idx, room.Game.CurrentPlayerIndex)
	assert.Equal(t, models.ScreenPlaying, room.Game.Screen)
}

// playTurn submits an exact answer for the current player and acknowledges
// screens until the room is back in playing or the game ended.
func playTurn(t *testing.T, svc *GameService, room *models.Room, remaining int) {
	t.Helper()
	current := room.CurrentPlayer()
	require.NotNil(t, current)
	require.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, current.ID, "100", remaining))
	switch svc.Advance(room) {
	case AdvanceTurnSwitch:
		require.Equal(t, AdvancePlaying, svc.Advance(room))
	case AdvancePlaying, AdvanceGameOver:
	default:
		t.Fatal("unexpected advance effect")
	}
}

func TestFullClassicGame(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 30)
	require.NoError(t, svc.Start(room))
	game := room.Game

	// Rounds 1..4 are classic; round 5 is the plus/minus wildcard.
	for game.Screen != models.ScreenGameOver {
		playTurn(t, svc, room, 10)
		if game.Screen == models.ScreenPlaying && game.Round == 5 {
			require.NotNil(t, game.Plusminus, "final classic round must be the wildcard")
			assert.Equal(t, 10, game.TurnSeconds)
		}
	}

	assert.Equal(t, models.RoomFinished, room.Status)
	assert.Nil(t, game.Question)

	// No repeats: every drawn question id is unique.
	seen := map[string]bool{}
	for _, id := range game.UsedQuestionIDs {
		assert.False(t, seen[id], "question %s drawn twice", id)
		seen[id] = true
	}

	// 4 classic exact turns (150 + 10 each) plus a wildcard win plus the
	// completion bonus, starting from 100, per player.
	for _, p := range room.Players {
		assert.Equal(t, 5, p.ExactHits)
		assert.Greater(t, p.Score, InitialScore+4*160)
	}

	t.Run("gameover is terminal", func(t *testing.T) {
		assert.Equal(t, AdvanceIgnored, svc.Advance(room))
		assert.Equal(t, SubmitIgnored, svc.SubmitAnswer(room, "ana", "100", 10))
	})
}

func TestFinalBonusAppliedExactlyOnce(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 2, 30)
	require.NoError(t, svc.Start(room))

	// Round 1 classic for both players, round 2 is the wildcard.
	playTurn(t, svc, room, 0) // Ana: 150 + 0
	playTurn(t, svc, room, 0) // Beto: 150 + 0

	game := room.Game
	require.Equal(t, 2, game.Round)
	require.NotNil(t, game.Plusminus)

	// Both players win the wildcard on the first guess.
	anaGuesses := game.Plusminus.GuessesLeft
	playTurn(t, svc, room, 10)
	betoGuesses := game.Plusminus.GuessesLeft
	playTurn(t, svc, room, 10)

	assert.Equal(t, models.ScreenGameOver, game.Screen)
	anaWin := PlusminusBasePoints + (anaGuesses-1)*PlusminusGuessBonus
	betoWin := PlusminusBasePoints + (betoGuesses-1)*PlusminusGuessBonus
	assert.Equal(t, InitialScore+150+anaWin+FinalRoundBonus, room.Players[0].Score)
	assert.Equal(t, InitialScore+150+betoWin+FinalRoundBonus, room.Players[1].Score)
}

func TestPlusminusMode(t *testing.T) {
	svc, room := newTestGame(t, models.ModePlusminus, 3, 20)
	require.NoError(t, svc.Start(room))
	game := room.Game

	require.NotNil(t, game.Plusminus)
	initial := game.Plusminus.GuessesLeft
	assert.GreaterOrEqual(t, initial, 5)
	assert.LessOrEqual(t, initial, 20)
	assert.Equal(t, initial, game.Plusminus.InitialGuesses)
	assert.Equal(t, 10, game.TurnSeconds)

	t.Run("low guess hints plus and consumes", func(t *testing.T) {
		effect := svc.SubmitAnswer(room, "ana", "50", 8)
		assert.Equal(t, SubmitGuessConsumed, effect)
		assert.Equal(t, "+", game.Plusminus.Hint)
		assert.Equal(t, initial-1, game.Plusminus.GuessesLeft)
		assert.Equal(t, models.ScreenPlaying, game.Screen)
	})

	t.Run("high guess hints minus", func(t *testing.T) {
		effect := svc.SubmitAnswer(room, "ana", "200", 8)
		assert.Equal(t, SubmitGuessConsumed, effect)
		assert.Equal(t, "-", game.Plusminus.Hint)
	})

	t.Run("exact guess ends the turn", func(t *testing.T) {
		left := game.Plusminus.GuessesLeft
		effect := svc.SubmitAnswer(room, "ana", "100", 4)
		assert.Equal(t, SubmitTurnEnded, effect)
		assert.Equal(t, models.ScreenAnswerResult, game.Screen)
		require.NotNil(t, game.LastAnswer)
		assert.Equal(t, models.ExactHit, game.LastAnswer.ResultCategory)
		assert.Equal(t, PlusminusBasePoints+(left-1)*PlusminusGuessBonus, game.LastAnswer.PointsAwarded)
	})
}

func TestPlusminusGuessesExhausted(t *testing.T) {
	svc, room := newTestGame(t, models.ModePlusminus, 3, 20)
	require.NoError(t, svc.Start(room))
	game := room.Game

	for game.Plusminus.GuessesLeft > 1 {
		require.Equal(t, SubmitGuessConsumed, svc.SubmitAnswer(room, "ana", "1", 5))
	}
	assert.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, "ana", "1", 5))
	assert.Equal(t, models.ScreenAnswerResult, game.Screen)
	assert.Equal(t, models.WrongHit, game.LastAnswer.ResultCategory)
	assert.Equal(t, PlusminusLossPenalty, game.LastAnswer.PointsAwarded)
	assert.Equal(t, 1, room.Players[0].WrongHits)
}

func TestTimeoutClassic(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 20)
	require.NoError(t, svc.Start(room))

	effect := svc.Timeout(room)
	assert.Equal(t, SubmitTurnEnded, effect)
	game := room.Game
	assert.Equal(t, models.ScreenAnswerResult, game.Screen)
	assert.Equal(t, ClassicTimeoutPenalty, game.LastAnswer.PointsAwarded)
	assert.Equal(t, 30, game.LastAnswer.TimeUsedSeconds)
	assert.Equal(t, InitialScore-20, room.Players[0].Score)

	t.Run("timeout outside playing ignored", func(t *testing.T) {
		assert.Equal(t, SubmitIgnored, svc.Timeout(room))
	})
}

func TestTimeoutPlusminus(t *testing.T) {
	svc, room := newTestGame(t, models.ModePlusminus, 3, 20)
	require.NoError(t, svc.Start(room))
	game := room.Game

	initial := game.Plusminus.GuessesLeft
	assert.Equal(t, SubmitGuessConsumed, svc.Timeout(room))
	assert.Equal(t, initial-1, game.Plusminus.GuessesLeft)
	assert.Equal(t, "", game.Plusminus.Hint)

	for game.Plusminus.GuessesLeft > 1 {
		require.Equal(t, SubmitGuessConsumed, svc.Timeout(room))
	}
	assert.Equal(t, SubmitTurnEnded, svc.Timeout(room))
	assert.Equal(t, PlusminusLossPenalty, game.LastAnswer.PointsAwarded)
}

func TestPoolExhaustionEndsGameEarly(t *testing.T) {
	svc, room := newTestGame(t, models.ModeClassic, 5, 2)
	require.NoError(t, svc.Start(room))
	game := room.Game

	require.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, "ana", "100", 10))
	require.Equal(t, AdvanceTurnSwitch, svc.Advance(room))
	require.Equal(t, AdvancePlaying, svc.Advance(room))

	// Second question is the last one; the next draw has nothing left,
	// so the game ends early without the completion bonus.
	require.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, "beto", "100", 10))
	scoreBefore := room.Players[0].Score
	assert.Equal(t, AdvanceGameOver, svc.Advance(room))
	assert.Equal(t, models.ScreenGameOver, game.Screen)
	assert.Equal(t, models.RoomFinished, room.Status)
	assert.Equal(t, scoreBefore, room.Players[0].Score)
}

func TestRemovePlayer(t *testing.T) {
	t.Run("host migration", func(t *testing.T) {
		svc, room := newTestGame(t, models.ModeClassic, 5, 20)
		empty := svc.RemovePlayer(room, "ana")
		assert.False(t, empty)
		require.Len(t, room.Players, 1)
		assert.True(t, room.Players[0].IsHost)
		assert.Equal(t, "Beto", room.HostName())
	})

	t.Run("turn index fixed up", func(t *testing.T) {
		svc, room := newTestGame(t, models.ModeClassic, 5, 20)
		require.NoError(t, svc.Start(room))
		// Move the turn to Beto (index 1), then remove him.
		require.Equal(t, SubmitTurnEnded, svc.SubmitAnswer(room, "ana", "100", 10))
		require.Equal(t, AdvanceTurnSwitch, svc.Advance(room))
		require.Equal(t, AdvancePlaying, svc.Advance(room))
		require.Equal(t, 1, room.Game.CurrentPlayerIndex)

		empty := svc.RemovePlayer(room, "beto")
		assert.False(t, empty)
		assert.Equal(t, 0, room.Game.CurrentPlayerIndex)
	})

	t.Run("last player empties the room", func(t *testing.T) {
		svc, room := newTestGame(t, models.ModeClassic, 5, 20)
		svc.RemovePlayer(room, "beto")
		assert.True(t, svc.RemovePlayer(room, "ana"))
	})

	t.Run("unknown player is a no-op", func(t *testing.T) {
		svc, room := newTestGame(t, models.ModeClassic, 5, 20)
		assert.False(t, svc.RemovePlayer(room, "carla"))
		assert.Len(t, room.Players, 2)
	})
}
