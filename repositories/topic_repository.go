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
	ErrTopicNotFound     = errors.New("topic not found")
	ErrTopicSlugConflict = errors.New("topic slug conflict")
	ErrTopicInvalidUser  = errors.New("invalid topic creator reference")
)

type ListTopicsFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	List(ctx context.Context, filter ListTopicsFilter) ([]models.Topic, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type postgresTopicRepository struct {
	db *sql.DB
}

func NewPostgresTopicRepository(db *sql.DB) TopicRepository {
	return &postgresTopicRepository{db: db}
}

const topicColumns = `id, title, description, slug, created_by, is_active, source, created_at`

func scanTopic(row rowScanner) (*models.Topic, error) {
	var (
		t         models.Topic
		createdBy uuid.NullUUID
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Slug, &createdBy, &t.IsActive, &t.Source, &t.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := createdBy.UUID
		t.CreatedBy = &id
	}
	return &t, nil
}

func (r *postgresTopicRepository) Create(ctx context.Context, t *models.Topic) error {
	query := `
		INSERT INTO topics (title, description, slug, created_by, is_active, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.Slug, t.CreatedBy, t.IsActive, t.Source,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch {
			case code == pqUniqueViolation && constraint == "topics_slug_key":
				return ErrTopicSlugConflict
			case code == pqForeignKeyViolation:
				return ErrTopicInvalidUser
			}
		}
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (r *postgresTopicRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`
	t, err := scanTopic(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return t, nil
}

func (r *postgresTopicRepository) List(ctx context.Context, filter ListTopicsFilter) ([]models.Topic, error) {
	query := `
		SELECT ` + topicColumns + `
		FROM topics
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, query, filter.ActiveOnly, clampLimit(filter.Limit, 50, 200), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	topics := make([]models.Topic, 0)
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topics: %w", err)
	}
	return topics, nil
}

func (r *postgresTopicRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE topics SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	return checkAffectedRows(result, ErrTopicNotFound)
}
