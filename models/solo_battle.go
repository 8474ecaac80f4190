package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SoloBattle is written once and never updated.
type SoloBattle struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	TopicID    uuid.UUID       `json:"topic_id" db:"topic_id"`
	Prompt     string          `json:"prompt" db:"prompt"`
	Response   string          `json:"response" db:"response"`
	Evaluation json.RawMessage `json:"evaluation" db:"evaluation"`
	Score      int             `json:"score" db:"score"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`

	Topic *Topic `json:"topic,omitempty" db:"-"`
}
