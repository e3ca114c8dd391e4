package models

type Screen string

const (
	ScreenPlaying       Screen = "playing"
	ScreenAnswerResult  Screen = "answer_result"
	ScreenTurnSwitching Screen = "turn_switching"
	ScreenGameOver      Screen = "gameover"
)

type GameMode string

const (
	ModeClassic   GameMode = "classic"
	ModePlusminus GameMode = "plusminus"
)

type GameConfig struct {
	Mode   GameMode `json:"mode"`
	Rounds int      `json:"rounds"`
}

type ResultCategory string

const (
	ExactHit   ResultCategory = "exactHit"
	CorrectHit ResultCategory = "correctHit"
	WrongHit   ResultCategory = "wrongHit"
)

// LastAnswer captures the outcome of the most recent completed turn, shown
// on the answer_result screen.
type LastAnswer struct {
	SubmittedValue  string         `json:"submittedValue"`
	PointsAwarded   int            `json:"pointsAwarded"`
	ResultCategory  ResultCategory `json:"resultCategory"`
	TimeUsedSeconds int            `json:"timeUsedSeconds"`
	TimeBonus       int            `json:"timeBonus"`
}

// PlusminusState tracks an in-progress guess-the-number turn. Present only
// while such a turn is active (every round in plusminus mode, the wildcard
// final round in classic mode).
type PlusminusState struct {
	GuessesLeft    int    `json:"guessesLeft"`
	InitialGuesses int    `json:"initialGuesses"`
	Hint           string `json:"hint"` // "+", "-" or empty
}

// GameState is the authoritative per-room game state. Owned exclusively by
// the server; clients only ever see broadcast copies.
type GameState struct {
	Screen             Screen          `json:"screen"`
	Question           *Question       `json:"question"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	Round              int             `json:"round"`
	Rounds             int             `json:"rounds"`
	TurnSeconds        int             `json:"turnSeconds"`
	UsedQuestionIDs    []string        `json:"usedQuestionIds"`
	LastAnswer         *LastAnswer     `json:"lastAnswer,omitempty"`
	Plusminus          *PlusminusState `json:"plusminus,omitempty"`
}

// UsedIDSet returns the used-question ids as a set for exclusion lookups.
func (g *GameState) UsedIDSet() map[string]bool {
	set := make(map[string]bool, len(g.UsedQuestionIDs))
	for _, id := range g.UsedQuestionIDs {
		set[id] = true
	}
	return set
}

func (g *GameState) MarkUsed(id string) {
	g.UsedQuestionIDs = append(g.UsedQuestionIDs, id)
}
