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
	ErrSoloBattleNotFound   = errors.New("solo battle not found")
	ErrSoloBattleInvalidRef = errors.New("invalid solo battle user or topic reference")
)

// SoloBattleRepository is insert-only: solo results are never updated.
type SoloBattleRepository interface {
	Create(ctx context.Context, sb *models.SoloBattle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SoloBattle, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SoloBattle, error)
}

type postgresSoloBattleRepository struct {
	db *sql.DB
}

func NewPostgresSoloBattleRepository(db *sql.DB) SoloBattleRepository {
	return &postgresSoloBattleRepository{db: db}
}

func (r *postgresSoloBattleRepository) Create(ctx context.Context, sb *models.SoloBattle) error {
	query := `
		INSERT INTO solo_battles (user_id, topic_id, prompt, response, evaluation, score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		sb.UserID, sb.TopicID, sb.Prompt, sb.Response, string(sb.Evaluation), sb.Score,
	).Scan(&sb.ID, &sb.CreatedAt)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrSoloBattleInvalidRef
		}
		return fmt.Errorf("failed to create solo battle: %w", err)
	}
	return nil
}

const soloSelect = `
	SELECT
		s.id, s.user_id, s.topic_id, s.prompt, s.response, s.evaluation, s.score, s.created_at,
		t.id, t.title, t.description, t.slug, t.created_by, t.is_active, t.source, t.created_at
	FROM solo_battles s
	JOIN topics t ON t.id = s.topic_id`

func scanSoloBattle(row rowScanner) (*models.SoloBattle, error) {
	var (
		sb         models.SoloBattle
		t          models.Topic
		evaluation []byte
		createdBy  uuid.NullUUID
	)
	err := row.Scan(
		&sb.ID, &sb.UserID, &sb.TopicID, &sb.Prompt, &sb.Response, &evaluation, &sb.Score, &sb.CreatedAt,
		&t.ID, &t.Title, &t.Description, &t.Slug, &createdBy, &t.IsActive, &t.Source, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sb.Evaluation = evaluation
	if createdBy.Valid {
		id := createdBy.UUID
		t.CreatedBy = &id
	}
	sb.Topic = &t
	return &sb, nil
}

func (r *postgresSoloBattleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SoloBattle, error) {
	sb, err := scanSoloBattle(r.db.QueryRowContext(ctx, soloSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSoloBattleNotFound
		}
		return nil, fmt.Errorf("failed to get solo battle: %w", err)
	}
	return sb, nil
}

func (r *postgresSoloBattleRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SoloBattle, error) {
	if offset < 0 {
		offset = 0
	}
	query := soloSelect + `
	WHERE s.user_id = $1
	ORDER BY s.created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, clampLimit(limit, 50, 200), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list solo battles: %w", err)
	}
	defer rows.Close()

	out := make([]models.SoloBattle, 0)
	for rows.Next() {
		sb, err := scanSoloBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solo battle: %w", err)
		}
		out = append(out, *sb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solo battles: %w", err)
	}
	return out, nil
}
