package services

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"

	"casicasi/models"
)

// QuestionBank holds the pool of trivia items and picks random questions
// excluding already-played ids. Items are immutable; the pool itself can be
// swapped wholesale when the admin reloads the bank, so reads take a lock.
// A nil rng falls back to the global source; tests inject a seeded one for
// determinism.
type QuestionBank struct {
	mutex     sync.RWMutex
	questions []models.Question
	rng       *rand.Rand
}

func NewQuestionBank(questions []models.Question, rng *rand.Rand) *QuestionBank {
	return &QuestionBank{questions: questions, rng: rng}
}

// Replace swaps the pool. Games in progress keep the questions they
// already drew; only future picks see the new pool.
func (b *QuestionBank) Replace(questions []models.Question) {
	b.mutex.Lock()
	b.questions = questions
	b.mutex.Unlock()
}

func (b *QuestionBank) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.questions)
}

// Pick returns a uniformly random active question whose id is not in
// exclude, or nil when no candidate remains. Callers must treat nil as
// "round cannot start", not as an error.
func (b *QuestionBank) Pick(exclude map[string]bool) *models.Question {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	candidates := make([]int, 0, len(b.questions))
	for i, q := range b.questions {
		if !q.IsActive || exclude[q.ID] {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return nil
	}
	var n int
	if b.rng != nil {
		n = b.rng.Intn(len(candidates))
	} else {
		n = rand.Intn(len(candidates))
	}
	q := b.questions[candidates[n]]
	return &q
}

// rawQuestion is the tolerant on-disk shape. Bank files are hand-edited and
// exported from spreadsheets, so numeric fields may arrive as strings and
// the active flag in several spellings.
type rawQuestion struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	PromptText     string `json:"promptText"`
	CorrectValue   any    `json:"correctValue"`
	RangeMin       any    `json:"rangeMin"`
	RangeMax       any    `json:"rangeMax"`
	BackgroundInfo string `json:"backgroundInfo"`
	SourceCitation string `json:"sourceCitation"`
	IsActive       any    `json:"isActive"`
}

// coerceQuestion normalizes a raw bank entry, dropping it (nil) when the
// prompt or the numeric answer is missing. Missing ranges default to
// answer +/- 10, matching the original bank tooling.
func coerceQuestion(raw rawQuestion) *models.Question {
	if strings.TrimSpace(raw.PromptText) == "" {
		return nil
	}
	answer, ok := coerceInt(raw.CorrectValue)
	if !ok {
		return nil
	}

	q := models.Question{
		ID:             raw.ID,
		Category:       raw.Category,
		PromptText:     raw.PromptText,
		CorrectValue:   answer,
		BackgroundInfo: raw.BackgroundInfo,
		SourceCitation: raw.SourceCitation,
		IsActive:       coerceActive(raw.IsActive),
	}
	if q.ID == "" {
		q.ID = q.PromptText
	}
	if q.Category == "" {
		q.Category = "Sin categoría"
	}
	if min, ok := coerceInt(raw.RangeMin); ok {
		q.RangeMin = min
	} else {
		q.RangeMin = q.CorrectValue - 10
	}
	if max, ok := coerceInt(raw.RangeMax); ok {
		q.RangeMax = max
	} else {
		q.RangeMax = q.CorrectValue + 10
	}
	return &q
}

// coerceInt accepts the number-or-string shapes that spreadsheet exports
// produce.
func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return int(math.Round(f)), true
	default:
		return 0, false
	}
}

func coerceActive(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return t
	case string:
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "", "SI", "TRUE", "VERDADERO", "1":
			return true
		}
		return false
	default:
		return true
	}
}

// LoadQuestionsFile reads and coerces a JSON question bank. Entries that
// cannot be coerced are skipped, not fatal.
func LoadQuestionsFile(path string) ([]models.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}
	var raws []rawQuestion
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parsing question bank: %w", err)
	}
	questions := make([]models.Question, 0, len(raws))
	for _, raw := range raws {
		if q := coerceQuestion(raw); q != nil {
			questions = append(questions, *q)
		}
	}
	return questions, nil
}
