package models

import (
	"time"

	"github.com/google/uuid"
)

type TopicSource string

const (
	TopicSourceUser      TopicSource = "user"
	TopicSourceGenerated TopicSource = "generated"
)

type Topic struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	Slug        string      `json:"slug" db:"slug"`
	CreatedBy   *uuid.UUID  `json:"created_by,omitempty" db:"created_by"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	Source      TopicSource `json:"source" db:"source"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// Brief is the text handed to the model: title plus description when present.
func (t Topic) Brief() string {
	if t.Description == "" {
		return t.Title
	}
	return t.Title + "\n" + t.Description
}
