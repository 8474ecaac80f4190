package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/prompt-battle/judge"
	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/repositories"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const maxSlugAttempts = 5

// TopicSuggester is the part of the judge the topic service needs.
type TopicSuggester interface {
	SuggestTopic(ctx context.Context) (*judge.TopicSuggestion, error)
}

type TopicService interface {
	Create(ctx context.Context, creatorID uuid.UUID, input CreateTopicInput) (*models.Topic, error)
	Generate(ctx context.Context, creatorID uuid.UUID) (*models.Topic, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Topic, error)
	SetActive(ctx context.Context, actorID, topicID uuid.UUID, active bool) (*models.Topic, error)
}

type CreateTopicInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type topicService struct {
	topicRepo repositories.TopicRepository
	suggester TopicSuggester
	log       *logger.Logger
}

func NewTopicService(topicRepo repositories.TopicRepository, suggester TopicSuggester, log *logger.Logger) TopicService {
	return &topicService{
		topicRepo: topicRepo,
		suggester: suggester,
		log:       log.With("service", "TopicService"),
	}
}

func (s *topicService) Create(ctx context.Context, creatorID uuid.UUID, input CreateTopicInput) (*models.Topic, error) {
	const op = "topics.Create"

	title := strings.TrimSpace(input.Title)
	desc := strings.TrimSpace(input.Description)
	switch {
	case title == "":
		return nil, validationError(op, "title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		return nil, validationError(op, "title is too long")
	case utf8.RuneCountInString(desc) > maxDescLength:
		return nil, validationError(op, "description is too long")
	}

	return s.insert(ctx, op, &models.Topic{
		Title:       title,
		Description: desc,
		CreatedBy:   &creatorID,
		IsActive:    true,
		Source:      models.TopicSourceUser,
	})
}

func (s *topicService) Generate(ctx context.Context, creatorID uuid.UUID) (*models.Topic, error) {
	const op = "topics.Generate"

	suggestion, err := s.suggester.SuggestTopic(ctx)
	if err != nil {
		return nil, modelError(op, err)
	}

	return s.insert(ctx, op, &models.Topic{
		Title:       truncateRunes(suggestion.Title, maxTitleLength),
		Description: truncateRunes(suggestion.Description, maxDescLength),
		CreatedBy:   &creatorID,
		IsActive:    true,
		Source:      models.TopicSourceGenerated,
	})
}

// insert подбирает уникальный slug, добавляя случайный суффикс при конфликте.
func (s *topicService) insert(ctx context.Context, op string, t *models.Topic) (*models.Topic, error) {
	base := slug.Make(t.Title)
	if base == "" {
		base = "topic"
	}
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		t.Slug = base
		if attempt > 0 {
			t.Slug = fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
		}
		err := s.topicRepo.Create(ctx, t)
		switch {
		case err == nil:
			return t, nil
		case errors.Is(err, repositories.ErrTopicSlugConflict):
			continue
		case errors.Is(err, repositories.ErrTopicInvalidUser):
			return nil, notFoundError(op, "creator not found", err)
		default:
			return nil, persistenceError(op, err)
		}
	}
	return nil, conflictError(op, "could not allocate a unique topic slug", repositories.ErrTopicSlugConflict)
}

func (s *topicService) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	const op = "topics.GetByID"
	t, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTopicNotFound) {
			return nil, notFoundError(op, "topic not found", err)
		}
		return nil, persistenceError(op, err)
	}
	return t, nil
}

func (s *topicService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Topic, error) {
	topics, err := s.topicRepo.List(ctx, repositories.ListTopicsFilter{ActiveOnly: activeOnly, Limit: limit, Offset: offset})
	if err != nil {
		return nil, persistenceError("topics.List", err)
	}
	return topics, nil
}

func (s *topicService) SetActive(ctx context.Context, actorID, topicID uuid.UUID, active bool) (*models.Topic, error) {
	const op = "topics.SetActive"

	t, err := s.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if t.CreatedBy == nil || *t.CreatedBy != actorID {
		return nil, forbiddenError(op, "only the topic creator can change its status")
	}
	if err := s.topicRepo.SetActive(ctx, topicID, active); err != nil {
		if errors.Is(err, repositories.ErrTopicNotFound) {
			return nil, notFoundError(op, "topic not found", err)
		}
		return nil, persistenceError(op, err)
	}
	t.IsActive = active
	return t, nil
}

func truncateRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
