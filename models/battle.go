package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BattleStatus соответствует колонке battles.status.
type BattleStatus string

const (
	BattleStatusWaiting    BattleStatus = "waiting"
	BattleStatusInProgress BattleStatus = "in_progress"
	BattleStatusEvaluating BattleStatus = "evaluating"
	BattleStatusCompleted  BattleStatus = "completed"
	BattleStatusError      BattleStatus = "error"
)

var ErrInvalidBattleTransition = errors.New("invalid battle status transition")

var battleTransitions = map[BattleStatus][]BattleStatus{
	BattleStatusWaiting:    {BattleStatusInProgress},
	BattleStatusInProgress: {BattleStatusEvaluating},
	BattleStatusEvaluating: {BattleStatusCompleted, BattleStatusInProgress, BattleStatusError},
	BattleStatusCompleted:  {},
	BattleStatusError:      {},
}

func (s BattleStatus) Valid() bool {
	_, ok := battleTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are possible.
func (s BattleStatus) Terminal() bool {
	return s == BattleStatusCompleted || s == BattleStatusError
}

// TransitionBattle is the single authority on legal status moves. The
// conditional UPDATEs in the battle repository follow the same table.
func TransitionBattle(from, to BattleStatus) error {
	allowed, ok := battleTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidBattleTransition, from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidBattleTransition, from, to)
}

type Battle struct {
	ID                 uuid.UUID    `json:"id" db:"id"`
	TopicID            uuid.UUID    `json:"topic_id" db:"topic_id"`
	Player1ID          uuid.UUID    `json:"player1_id" db:"player1_id"`
	Player2ID          uuid.UUID    `json:"player2_id" db:"player2_id"`
	Player1Prompt      *string      `json:"player1_prompt,omitempty" db:"player1_prompt"`
	Player2Prompt      *string      `json:"player2_prompt,omitempty" db:"player2_prompt"`
	Player1SubmittedAt *time.Time   `json:"player1_submitted_at,omitempty" db:"player1_submitted_at"`
	Player2SubmittedAt *time.Time   `json:"player2_submitted_at,omitempty" db:"player2_submitted_at"`
	Player1Response    *string      `json:"player1_response,omitempty" db:"player1_response"`
	Player2Response    *string      `json:"player2_response,omitempty" db:"player2_response"`
	WinnerID           *uuid.UUID   `json:"winner_id,omitempty" db:"winner_id"`
	Status             BattleStatus `json:"status" db:"status"`
	Attempts           int          `json:"attempts" db:"attempts"`
	LastError          *string      `json:"last_error,omitempty" db:"last_error"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`

	Topic      *Topic      `json:"topic,omitempty" db:"-"`
	Evaluation *Evaluation `json:"evaluation,omitempty" db:"-"`
}

// Side returns 1 or 2 for a participant, 0 for anyone else.
func (b *Battle) Side(userID uuid.UUID) int {
	switch userID {
	case b.Player1ID:
		return 1
	case b.Player2ID:
		return 2
	}
	return 0
}

func (b *Battle) IsPlayer(userID uuid.UUID) bool {
	return b.Side(userID) != 0
}

func (b *Battle) BothSubmitted() bool {
	return b.Player1Prompt != nil && b.Player2Prompt != nil
}

// FirstSubmitter returns the side that submitted first, 0 if unknown.
func (b *Battle) FirstSubmitter() int {
	switch {
	case b.Player1SubmittedAt == nil && b.Player2SubmittedAt == nil:
		return 0
	case b.Player2SubmittedAt == nil:
		return 1
	case b.Player1SubmittedAt == nil:
		return 2
	case b.Player2SubmittedAt.Before(*b.Player1SubmittedAt):
		return 2
	}
	return 1
}

// PlayerID maps a side number to the user id.
func (b *Battle) PlayerID(side int) uuid.UUID {
	if side == 2 {
		return b.Player2ID
	}
	return b.Player1ID
}

// ViewFor hides the opponent's prompt from a player until both sides have
// submitted.
func (b Battle) ViewFor(viewer uuid.UUID) Battle {
	if b.BothSubmitted() {
		return b
	}
	switch b.Side(viewer) {
	case 1:
		b.Player2Prompt = nil
	case 2:
		b.Player1Prompt = nil
	default:
		b.Player1Prompt = nil
		b.Player2Prompt = nil
	}
	return b
}
