package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Dosada05/prompt-battle/judge"
	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/repositories"
	"github.com/google/uuid"
)

type SoloJudge interface {
	Generate(ctx context.Context, topic, prompt string) (string, error)
	ScoreSolo(ctx context.Context, topic, prompt, response string) (*judge.SoloVerdict, error)
}

type SoloService interface {
	Evaluate(ctx context.Context, userID uuid.UUID, input SoloEvaluateInput) (*SoloResult, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.SoloBattle, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SoloBattle, error)
}

type SoloEvaluateInput struct {
	TopicID uuid.UUID `json:"topic_id"`
	Prompt  string    `json:"prompt"`
}

type SoloResult struct {
	SoloBattle *models.SoloBattle `json:"solo_battle"`
	Response   string             `json:"response"`
	Evaluation *judge.SoloVerdict `json:"evaluation"`
}

type soloService struct {
	soloRepo  repositories.SoloBattleRepository
	topicRepo repositories.TopicRepository
	judge     SoloJudge
	log       *logger.Logger
}

func NewSoloService(soloRepo repositories.SoloBattleRepository, topicRepo repositories.TopicRepository, j SoloJudge, log *logger.Logger) SoloService {
	return &soloService{
		soloRepo:  soloRepo,
		topicRepo: topicRepo,
		judge:     j,
		log:       log.With("service", "SoloService"),
	}
}

func (s *soloService) Evaluate(ctx context.Context, userID uuid.UUID, input SoloEvaluateInput) (*SoloResult, error) {
	const op = "solo.Evaluate"

	if input.TopicID == uuid.Nil {
		return nil, validationError(op, "topic_id is required")
	}
	prompt, err := validatePrompt(op, input.Prompt)
	if err != nil {
		return nil, err
	}

	topic, err := s.topicRepo.GetByID(ctx, input.TopicID)
	if err != nil {
		if errors.Is(err, repositories.ErrTopicNotFound) {
			return nil, notFoundError(op, "topic not found", err)
		}
		return nil, persistenceError(op, err)
	}
	brief := topic.Brief()

	response, err := s.judge.Generate(ctx, brief, prompt)
	if err != nil {
		return nil, modelError(op, err)
	}
	verdict, err := s.judge.ScoreSolo(ctx, brief, prompt, response)
	if err != nil {
		return nil, modelError(op, err)
	}

	raw, err := json.Marshal(verdict)
	if err != nil {
		return nil, persistenceError(op, err)
	}
	sb := &models.SoloBattle{
		UserID:     userID,
		TopicID:    topic.ID,
		Prompt:     prompt,
		Response:   response,
		Evaluation: raw,
		Score:      verdict.Total(),
	}
	if err := s.soloRepo.Create(ctx, sb); err != nil {
		if errors.Is(err, repositories.ErrSoloBattleInvalidRef) {
			return nil, notFoundError(op, "user or topic not found", err)
		}
		return nil, persistenceError(op, err)
	}
	sb.Topic = topic

	s.log.Info("solo battle scored", "solo_battle_id", sb.ID, "score", sb.Score)
	return &SoloResult{SoloBattle: sb, Response: response, Evaluation: verdict}, nil
}

func (s *soloService) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.SoloBattle, error) {
	const op = "solo.GetByID"
	sb, err := s.soloRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSoloBattleNotFound) {
			return nil, notFoundError(op, "solo battle not found", err)
		}
		return nil, persistenceError(op, err)
	}
	if sb.UserID != userID {
		return nil, forbiddenError(op, "this solo battle belongs to another user")
	}
	return sb, nil
}

func (s *soloService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SoloBattle, error) {
	out, err := s.soloRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, persistenceError("solo.ListByUser", err)
	}
	return out, nil
}
