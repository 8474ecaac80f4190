package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prompt-battle/models"
	"github.com/google/uuid"
)

var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrEvaluationExists   = errors.New("evaluation already exists for battle")
)

type EvaluationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, evaluation *models.Evaluation) error
	GetByBattleID(ctx context.Context, battleID uuid.UUID) (*models.Evaluation, error)
}

type postgresEvaluationRepository struct {
	db *sql.DB
}

func NewPostgresEvaluationRepository(db *sql.DB) EvaluationRepository {
	return &postgresEvaluationRepository{db: db}
}

func (r *postgresEvaluationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEvaluationRepository) Create(ctx context.Context, exec SQLExecutor, e *models.Evaluation) error {
	query := `
		INSERT INTO evaluations (battle_id, evaluation_text, winner_id, player1_score, player2_score, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	var detail interface{}
	if len(e.Detail) > 0 {
		detail = string(e.Detail)
	}

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		e.BattleID, e.EvaluationText, e.WinnerID, e.Player1Score, e.Player2Score, detail,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok && code == pqUniqueViolation && constraint == "evaluations_battle_id_key" {
			return ErrEvaluationExists
		}
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *postgresEvaluationRepository) GetByBattleID(ctx context.Context, battleID uuid.UUID) (*models.Evaluation, error) {
	query := `
		SELECT id, battle_id, evaluation_text, winner_id, player1_score, player2_score, detail, created_at
		FROM evaluations
		WHERE battle_id = $1`

	var (
		e      models.Evaluation
		detail []byte
	)
	err := r.db.QueryRowContext(ctx, query, battleID).Scan(
		&e.ID, &e.BattleID, &e.EvaluationText, &e.WinnerID, &e.Player1Score, &e.Player2Score, &detail, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	if len(detail) > 0 {
		e.Detail = detail
	}
	return &e, nil
}
