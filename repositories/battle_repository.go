package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prompt-battle/models"
	"github.com/google/uuid"
)

var (
	ErrBattleNotFound      = errors.New("battle not found")
	ErrBattleInvalidRef    = errors.New("invalid battle topic or player reference")
	ErrBattleStateConflict = errors.New("battle is not in a state that allows this operation")
	ErrBattleNotClaimable  = errors.New("battle finalization already claimed or not ready")
)

type ListBattlesFilter struct {
	PlayerID *uuid.UUID
	Status   *models.BattleStatus
	Limit    int
	Offset   int
}

type BattleRepository interface {
	Create(ctx context.Context, battle *models.Battle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Battle, error)
	List(ctx context.Context, filter ListBattlesFilter) ([]models.Battle, error)
	// SubmitPrompt records a side's prompt in one conditional update. It
	// returns ErrBattleStateConflict when the side already submitted or the
	// battle no longer accepts prompts.
	SubmitPrompt(ctx context.Context, id uuid.UUID, side int, prompt string) (*models.Battle, error)
	// ClaimFinalization moves in_progress to evaluating when both prompts
	// are present. Only one caller can win the claim.
	ClaimFinalization(ctx context.Context, id uuid.UUID) (*models.Battle, error)
	// ReleaseFinalization returns an evaluating battle to in_progress, or to
	// error once attempts reach maxAttempts.
	ReleaseFinalization(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) (*models.Battle, error)
	Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, response1, response2 string, winnerID uuid.UUID) error
	ListStaleEvaluating(ctx context.Context, olderThan time.Time, limit int) ([]models.Battle, error)
}

type postgresBattleRepository struct {
	db *sql.DB
}

func NewPostgresBattleRepository(db *sql.DB) BattleRepository {
	return &postgresBattleRepository{db: db}
}

func (r *postgresBattleRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const battleColumns = `id, topic_id, player1_id, player2_id,
	player1_prompt, player2_prompt, player1_submitted_at, player2_submitted_at,
	player1_response, player2_response, winner_id, status, attempts, last_error,
	created_at, updated_at`

func scanBattle(row rowScanner) (*models.Battle, error) {
	var (
		b        models.Battle
		winnerID uuid.NullUUID
	)
	err := row.Scan(
		&b.ID, &b.TopicID, &b.Player1ID, &b.Player2ID,
		&b.Player1Prompt, &b.Player2Prompt, &b.Player1SubmittedAt, &b.Player2SubmittedAt,
		&b.Player1Response, &b.Player2Response, &winnerID, &b.Status, &b.Attempts, &b.LastError,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if winnerID.Valid {
		id := winnerID.UUID
		b.WinnerID = &id
	}
	return &b, nil
}

func (r *postgresBattleRepository) Create(ctx context.Context, b *models.Battle) error {
	query := `
		INSERT INTO battles (topic_id, player1_id, player2_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + battleColumns

	created, err := scanBattle(r.db.QueryRowContext(ctx, query, b.TopicID, b.Player1ID, b.Player2ID, models.BattleStatusWaiting))
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrBattleInvalidRef
		}
		return fmt.Errorf("failed to create battle: %w", err)
	}
	*b = *created
	return nil
}

func (r *postgresBattleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles WHERE id = $1`
	b, err := scanBattle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBattleNotFound
		}
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	return b, nil
}

func (r *postgresBattleRepository) List(ctx context.Context, filter ListBattlesFilter) ([]models.Battle, error) {
	query := `
		SELECT ` + battleColumns + `
		FROM battles
		WHERE ($1::uuid IS NULL OR player1_id = $1 OR player2_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, query, filter.PlayerID, status, clampLimit(filter.Limit, 50, 200), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	defer rows.Close()
	return collectBattles(rows)
}

func collectBattles(rows *sql.Rows) ([]models.Battle, error) {
	battles := make([]models.Battle, 0)
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle: %w", err)
		}
		battles = append(battles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating battles: %w", err)
	}
	return battles, nil
}

func (r *postgresBattleRepository) SubmitPrompt(ctx context.Context, id uuid.UUID, side int, prompt string) (*models.Battle, error) {
	if side != 1 && side != 2 {
		return nil, fmt.Errorf("invalid battle side %d", side)
	}
	// Первый промпт переводит waiting -> in_progress, второй оставляет in_progress.
	query := fmt.Sprintf(`
		UPDATE battles SET
			player%[1]d_prompt = $2,
			player%[1]d_submitted_at = NOW(),
			status = CASE WHEN status = '%[2]s' THEN '%[3]s' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
		  AND player%[1]d_prompt IS NULL
		  AND status IN ('%[2]s', '%[3]s')
		RETURNING `+battleColumns,
		side, models.BattleStatusWaiting, models.BattleStatusInProgress)

	b, err := scanBattle(r.db.QueryRowContext(ctx, query, id, prompt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBattleStateConflict
		}
		return nil, fmt.Errorf("failed to submit prompt: %w", err)
	}
	return b, nil
}

func (r *postgresBattleRepository) ClaimFinalization(ctx context.Context, id uuid.UUID) (*models.Battle, error) {
	query := `
		UPDATE battles SET status = $2, updated_at = NOW()
		WHERE id = $1
		  AND status = $3
		  AND player1_prompt IS NOT NULL
		  AND player2_prompt IS NOT NULL
		RETURNING ` + battleColumns

	b, err := scanBattle(r.db.QueryRowContext(ctx, query, id, models.BattleStatusEvaluating, models.BattleStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBattleNotClaimable
		}
		return nil, fmt.Errorf("failed to claim battle: %w", err)
	}
	return b, nil
}

func (r *postgresBattleRepository) ReleaseFinalization(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) (*models.Battle, error) {
	query := `
		UPDATE battles SET
			attempts = attempts + 1,
			last_error = $2,
			status = CASE WHEN attempts + 1 >= $3 THEN $4 ELSE $5 END,
			updated_at = NOW()
		WHERE id = $1 AND status = $6
		RETURNING ` + battleColumns

	b, err := scanBattle(r.db.QueryRowContext(ctx, query,
		id, reason, maxAttempts,
		models.BattleStatusError, models.BattleStatusInProgress, models.BattleStatusEvaluating,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBattleStateConflict
		}
		return nil, fmt.Errorf("failed to release battle: %w", err)
	}
	return b, nil
}

func (r *postgresBattleRepository) Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, response1, response2 string, winnerID uuid.UUID) error {
	query := `
		UPDATE battles SET
			player1_response = $2,
			player2_response = $3,
			winner_id = $4,
			status = $5,
			last_error = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		id, response1, response2, winnerID, models.BattleStatusCompleted, models.BattleStatusEvaluating)
	if err != nil {
		return fmt.Errorf("failed to complete battle: %w", err)
	}
	return checkAffectedRows(result, ErrBattleNotClaimable)
}

func (r *postgresBattleRepository) ListStaleEvaluating(ctx context.Context, olderThan time.Time, limit int) ([]models.Battle, error) {
	query := `
		SELECT ` + battleColumns + `
		FROM battles
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.BattleStatusEvaluating, olderThan, clampLimit(limit, 50, 500))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale battles: %w", err)
	}
	defer rows.Close()
	return collectBattles(rows)
}
