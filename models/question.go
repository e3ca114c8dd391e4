package models

// Question is one item of the trivia bank. Immutable once loaded.
type Question struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	PromptText     string `json:"promptText"`
	CorrectValue   int    `json:"correctValue"`
	RangeMin       int    `json:"rangeMin"`
	RangeMax       int    `json:"rangeMax"`
	BackgroundInfo string `json:"backgroundInfo"`
	SourceCitation string `json:"sourceCitation"`
	IsActive       bool   `json:"isActive"`
}
