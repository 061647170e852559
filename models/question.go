package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	QuizID          uint           `json:"quiz_id" gorm:"not null;index"`
	QuestionTitle   string         `json:"question_title" gorm:"not null"`
	QuestionOptions datatypes.JSON `json:"question_options" gorm:"not null"`
	Answer          string         `json:"answer" gorm:"not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Quiz Quiz `json:"quiz,omitempty"`
}

// Options decodes the stored JSON array of option strings. A question whose
// options column cannot be decoded yields nil.
func (q *Question) Options() []string {
	var options []string
	if err := json.Unmarshal(q.QuestionOptions, &options); err != nil {
		return nil
	}
	return options
}

// OptionsJSON encodes option strings for storage in the options column.
func OptionsJSON(options []string) (datatypes.JSON, error) {
	data, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
