package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/prompt-battle/models"
)

type RankingRepository interface {
	// Leaderboard aggregates completed battles per user. Users without
	// completed battles are not listed.
	Leaderboard(ctx context.Context, limit int) ([]models.RankingEntry, error)
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) Leaderboard(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	query := `
		SELECT u.id, u.username, u.avatar_key,
		       COUNT(b.id) FILTER (WHERE b.winner_id = u.id) AS wins,
		       COUNT(b.id) AS total
		FROM users u
		JOIN battles b
		  ON b.status = 'completed'
		 AND (b.player1_id = u.id OR b.player2_id = u.id)
		GROUP BY u.id, u.username, u.avatar_key
		ORDER BY wins DESC,
		         COUNT(b.id) FILTER (WHERE b.winner_id = u.id)::float / COUNT(b.id) DESC,
		         u.username
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit, 50, 500))
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.RankingEntry, 0)
	for rows.Next() {
		var e models.RankingEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.AvatarKey, &e.Wins, &e.TotalBattles); err != nil {
			return nil, fmt.Errorf("failed to scan ranking entry: %w", err)
		}
		if e.TotalBattles > 0 {
			e.WinRate = float64(e.Wins) / float64(e.TotalBattles)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}
