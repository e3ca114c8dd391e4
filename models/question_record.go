package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// QuestionRecord is the database-backed row behind the question admin API.
// The live bank is rebuilt from active records on demand.
type QuestionRecord struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Category       string         `json:"category"`
	PromptText     string         `json:"prompt_text" gorm:"not null"`
	CorrectValue   int            `json:"correct_value" gorm:"not null"`
	RangeMin       int            `json:"range_min"`
	RangeMax       int            `json:"range_max"`
	BackgroundInfo string         `json:"background_info"`
	SourceCitation string         `json:"source_citation"`
	IsActive       bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// ToQuestion converts a record into the immutable bank representation.
func (r *QuestionRecord) ToQuestion() Question {
	return Question{
		ID:             fmt.Sprintf("db-%d", r.ID),
		Category:       r.Category,
		PromptText:     r.PromptText,
		CorrectValue:   r.CorrectValue,
		RangeMin:       r.RangeMin,
		RangeMax:       r.RangeMax,
		BackgroundInfo: r.BackgroundInfo,
		SourceCitation: r.SourceCitation,
		IsActive:       r.IsActive,
	}
}
