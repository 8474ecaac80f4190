package models

import "github.com/google/uuid"

type RankingEntry struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	AvatarKey    *string   `json:"-"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	Wins         int       `json:"wins"`
	TotalBattles int       `json:"total_battles"`
	WinRate      float64   `json:"win_rate"`
}
