package services

import (
	"math"
	"strconv"
	"strings"

	"casicasi/models"
)

// Scoring constants for both game modes.
const (
	InitialScore = 100

	ClassicExactPoints    = 150
	ClassicClosePoints    = 50
	ClassicTimeoutPenalty = -20
	ClassicParsePenalty   = -25

	PlusminusBasePoints  = 75
	PlusminusGuessBonus  = 25
	PlusminusLossPenalty = -20

	FinalRoundBonus = 100
)

// TurnResult is the outcome of one completed turn. Points already includes
// TimeBonus; applying a result is the only way player stats change.
type TurnResult struct {
	Points    int
	TimeBonus int
	Category  models.ResultCategory
	TimeUsed  int // seconds
}

// ParseAnswer parses a submitted numeric string, stripping thousands
// separators. The boolean is false for unparseable input.
func ParseAnswer(s string) (int, bool) {
	cleaned := strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

// ScoreClassic scores a classic-mode submission with remaining seconds left
// on a turnSeconds clock.
func ScoreClassic(q *models.Question, answer string, remaining, turnSeconds int) TurnResult {
	timeUsed := turnSeconds - remaining

	value, ok := ParseAnswer(answer)
	if !ok {
		return TurnResult{Points: ClassicParsePenalty, Category: models.WrongHit, TimeUsed: timeUsed}
	}

	diff := math.Abs(float64(value - q.CorrectValue))
	magnitude := math.Abs(float64(q.CorrectValue))

	var points int
	category := models.WrongHit
	switch {
	case value == q.CorrectValue:
		points = ClassicExactPoints
		category = models.ExactHit
	case value >= q.RangeMin && value <= q.RangeMax:
		points = ClassicClosePoints
		category = models.CorrectHit
	case diff <= magnitude*0.20:
		points = 15
	case diff <= magnitude*0.30:
		points = 10
	case diff <= magnitude*0.40:
		points = 5
	default:
		return TurnResult{Points: 0, Category: models.WrongHit, TimeUsed: timeUsed}
	}

	return TurnResult{
		Points:    points + remaining,
		TimeBonus: remaining,
		Category:  category,
		TimeUsed:  timeUsed,
	}
}

// ClassicTimeout is the result of letting the turn clock run out.
func ClassicTimeout(turnSeconds int) TurnResult {
	return TurnResult{Points: ClassicTimeoutPenalty, Category: models.WrongHit, TimeUsed: turnSeconds}
}

// GuessOutcome is the effect of one plus/minus guess. Done means the turn
// ended and Result holds the score to apply; otherwise the guess was
// consumed and Hint carries the direction ("+", "-" or empty for
// unparseable input).
type GuessOutcome struct {
	Done   bool
	Result TurnResult
	Hint   string
}

// ScorePlusminusGuess evaluates one guess with guessesLeft remaining
// (including this one) and remaining seconds on the per-guess clock.
func ScorePlusminusGuess(q *models.Question, guess string, guessesLeft, remaining, guessSeconds int) GuessOutcome {
	timeUsed := guessSeconds - remaining

	value, ok := ParseAnswer(guess)
	if !ok {
		if guessesLeft <= 1 {
			return GuessOutcome{Done: true, Result: PlusminusLoss(guessSeconds)}
		}
		return GuessOutcome{}
	}

	if value == q.CorrectValue {
		after := guessesLeft - 1 // guesses remaining once this one is spent
		bonus := after * PlusminusGuessBonus
		return GuessOutcome{
			Done: true,
			Result: TurnResult{
				Points:    PlusminusBasePoints + bonus,
				TimeBonus: bonus,
				Category:  models.ExactHit,
				TimeUsed:  timeUsed,
			},
		}
	}

	if guessesLeft <= 1 {
		return GuessOutcome{Done: true, Result: PlusminusLoss(guessSeconds)}
	}
	hint := "-"
	if value < q.CorrectValue {
		hint = "+"
	}
	return GuessOutcome{Hint: hint}
}

// PlusminusLoss is the result of exhausting the guess budget.
func PlusminusLoss(guessSeconds int) TurnResult {
	return TurnResult{Points: PlusminusLossPenalty, Category: models.WrongHit, TimeUsed: guessSeconds}
}

// ApplyResult folds a turn result into the player's stats. The score never
// drops below zero and exactly one hit counter is incremented.
func ApplyResult(p *models.Player, res TurnResult) {
	p.Score += res.Points
	if p.Score < 0 {
		p.Score = 0
	}
	p.TotalTimeUsed += res.TimeUsed
	switch res.Category {
	case models.ExactHit:
		p.ExactHits++
	case models.CorrectHit:
		p.CorrectHits++
	default:
		p.WrongHits++
	}
}

// ApplyFinalBonus awards the once-per-game completion bonus to every player.
func ApplyFinalBonus(players []*models.Player) {
	for _, p := range players {
		p.Score += FinalRoundBonus
	}
}
