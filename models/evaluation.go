package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Evaluation struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	BattleID       uuid.UUID       `json:"battle_id" db:"battle_id"`
	EvaluationText string          `json:"evaluation_text" db:"evaluation_text"`
	WinnerID       uuid.UUID       `json:"winner_id" db:"winner_id"`
	Player1Score   int             `json:"player1_score" db:"player1_score"`
	Player2Score   int             `json:"player2_score" db:"player2_score"`
	Detail         json.RawMessage `json:"detail,omitempty" db:"detail"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
