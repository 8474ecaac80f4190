package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prompt-battle/judge"
	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// События, которые получают подписчики комнаты battle_<id>.
const (
	EventBattleUpdated   = "BATTLE_UPDATED"
	EventBattleCompleted = "BATTLE_COMPLETED"
	EventBattleFailed    = "BATTLE_FAILED"
)

// Состояние, возвращаемое после отправки промпта.
const (
	SubmitStateWaiting    = "waiting"
	SubmitStateEvaluating = "evaluating"
	SubmitStateCompleted  = "completed"
)

type BattleJudge interface {
	Generate(ctx context.Context, topic, prompt string) (string, error)
	CompareBattle(ctx context.Context, topic, response1, response2 string) (*judge.BattleVerdict, error)
}

// BattleNotifier delivers best-effort realtime updates.
type BattleNotifier interface {
	NotifyBattle(eventType string, battle *models.Battle)
}

type RankingInvalidator interface {
	Invalidate(ctx context.Context) error
}

type BattleService interface {
	Create(ctx context.Context, creatorID uuid.UUID, input CreateBattleInput) (*models.Battle, error)
	GetByID(ctx context.Context, viewerID, battleID uuid.UUID) (*models.Battle, error)
	List(ctx context.Context, playerID *uuid.UUID, limit, offset int) ([]models.Battle, error)
	SubmitPrompt(ctx context.Context, userID, battleID uuid.UUID, prompt string) (*SubmitResult, error)
	Evaluate(ctx context.Context, userID, battleID uuid.UUID) (*SubmitResult, error)
	SweepStale(ctx context.Context, olderThan time.Time) (int, error)
}

type CreateBattleInput struct {
	TopicID    uuid.UUID `json:"topic_id"`
	OpponentID uuid.UUID `json:"opponent_id"`
}

type SubmitResult struct {
	Battle *models.Battle `json:"battle"`
	State  string         `json:"state"`
}

type BattleServiceConfig struct {
	MaxEvaluationAttempts int
}

type battleService struct {
	battleRepo repositories.BattleRepository
	topicRepo  repositories.TopicRepository
	userRepo   repositories.UserRepository
	evalRepo   repositories.EvaluationRepository
	tx         repositories.TxRunner
	judge      BattleJudge
	notifier   BattleNotifier
	ranking    RankingInvalidator
	cfg        BattleServiceConfig
	log        *logger.Logger
}

func NewBattleService(
	battleRepo repositories.BattleRepository,
	topicRepo repositories.TopicRepository,
	userRepo repositories.UserRepository,
	evalRepo repositories.EvaluationRepository,
	tx repositories.TxRunner,
	j BattleJudge,
	notifier BattleNotifier,
	ranking RankingInvalidator,
	cfg BattleServiceConfig,
	log *logger.Logger,
) BattleService {
	if cfg.MaxEvaluationAttempts <= 0 {
		cfg.MaxEvaluationAttempts = 3
	}
	return &battleService{
		battleRepo: battleRepo,
		topicRepo:  topicRepo,
		userRepo:   userRepo,
		evalRepo:   evalRepo,
		tx:         tx,
		judge:      j,
		notifier:   notifier,
		ranking:    ranking,
		cfg:        cfg,
		log:        log.With("service", "BattleService"),
	}
}

func (s *battleService) Create(ctx context.Context, creatorID uuid.UUID, input CreateBattleInput) (*models.Battle, error) {
	const op = "battles.Create"

	switch {
	case input.TopicID == uuid.Nil:
		return nil, validationError(op, "topic_id is required")
	case input.OpponentID == uuid.Nil:
		return nil, validationError(op, "opponent_id is required")
	case input.OpponentID == creatorID:
		return nil, validationError(op, "you cannot battle yourself")
	}

	topic, err := s.topicRepo.GetByID(ctx, input.TopicID)
	if err != nil {
		if errors.Is(err, repositories.ErrTopicNotFound) {
			return nil, notFoundError(op, "topic not found", err)
		}
		return nil, persistenceError(op, err)
	}
	if !topic.IsActive {
		return nil, validationError(op, "topic is not active")
	}
	if _, err := s.userRepo.GetByID(ctx, input.OpponentID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, notFoundError(op, "opponent not found", err)
		}
		return nil, persistenceError(op, err)
	}

	battle := &models.Battle{
		TopicID:   input.TopicID,
		Player1ID: creatorID,
		Player2ID: input.OpponentID,
	}
	if err := s.battleRepo.Create(ctx, battle); err != nil {
		if errors.Is(err, repositories.ErrBattleInvalidRef) {
			return nil, notFoundError(op, "topic or player not found", err)
		}
		return nil, persistenceError(op, err)
	}
	battle.Topic = topic

	s.log.Info("battle created", "battle_id", battle.ID, "topic_id", topic.ID)
	return battle, nil
}

func (s *battleService) GetByID(ctx context.Context, viewerID, battleID uuid.UUID) (*models.Battle, error) {
	const op = "battles.GetByID"

	b, err := s.loadBattle(ctx, op, battleID)
	if err != nil {
		return nil, err
	}
	if topic, err := s.topicRepo.GetByID(ctx, b.TopicID); err == nil {
		b.Topic = topic
	} else if !errors.Is(err, repositories.ErrTopicNotFound) {
		return nil, persistenceError(op, err)
	}
	if b.Status == models.BattleStatusCompleted {
		eval, err := s.evalRepo.GetByBattleID(ctx, b.ID)
		switch {
		case err == nil:
			b.Evaluation = eval
		case !errors.Is(err, repositories.ErrEvaluationNotFound):
			return nil, persistenceError(op, err)
		}
	}
	view := b.ViewFor(viewerID)
	return &view, nil
}

func (s *battleService) List(ctx context.Context, playerID *uuid.UUID, limit, offset int) ([]models.Battle, error) {
	battles, err := s.battleRepo.List(ctx, repositories.ListBattlesFilter{PlayerID: playerID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, persistenceError("battles.List", err)
	}
	for i := range battles {
		// Промпты в списке не показываем до завершения приёма.
		battles[i] = battles[i].ViewFor(uuid.Nil)
	}
	return battles, nil
}

func (s *battleService) SubmitPrompt(ctx context.Context, userID, battleID uuid.UUID, prompt string) (*SubmitResult, error) {
	const op = "battles.SubmitPrompt"

	prompt, err := validatePrompt(op, prompt)
	if err != nil {
		return nil, err
	}

	current, err := s.loadBattle(ctx, op, battleID)
	if err != nil {
		return nil, err
	}
	side := current.Side(userID)
	if side == 0 {
		return nil, forbiddenError(op, "you are not a player in this battle")
	}
	if current.Status != models.BattleStatusWaiting && current.Status != models.BattleStatusInProgress {
		return nil, conflictError(op, fmt.Sprintf("battle is %s and no longer accepts prompts", current.Status), nil)
	}
	if current.Status == models.BattleStatusWaiting {
		if err := models.TransitionBattle(current.Status, models.BattleStatusInProgress); err != nil {
			return nil, conflictError(op, "battle no longer accepts prompts", err)
		}
	}

	updated, err := s.battleRepo.SubmitPrompt(ctx, battleID, side, prompt)
	if err != nil {
		if errors.Is(err, repositories.ErrBattleStateConflict) {
			return nil, conflictError(op, "prompt already submitted or battle no longer accepts prompts", err)
		}
		return nil, persistenceError(op, err)
	}
	s.notify(EventBattleUpdated, updated)

	if !updated.BothSubmitted() {
		view := updated.ViewFor(userID)
		return &SubmitResult{Battle: &view, State: SubmitStateWaiting}, nil
	}
	return s.finalize(ctx, op, updated)
}

func (s *battleService) Evaluate(ctx context.Context, userID, battleID uuid.UUID) (*SubmitResult, error) {
	const op = "battles.Evaluate"

	b, err := s.loadBattle(ctx, op, battleID)
	if err != nil {
		return nil, err
	}
	if !b.IsPlayer(userID) {
		return nil, forbiddenError(op, "you are not a player in this battle")
	}
	if b.Status != models.BattleStatusInProgress || !b.BothSubmitted() {
		return nil, conflictError(op, fmt.Sprintf("battle is %s and cannot be evaluated now", b.Status), nil)
	}
	return s.finalize(ctx, op, b)
}

// finalize claims the battle, generates both responses, asks for a verdict
// and stores the result. Only the caller that wins the claim talks to the model.
func (s *battleService) finalize(ctx context.Context, op string, b *models.Battle) (*SubmitResult, error) {
	if err := models.TransitionBattle(b.Status, models.BattleStatusEvaluating); err != nil {
		return nil, conflictError(op, "battle cannot be evaluated now", err)
	}

	claimed, err := s.battleRepo.ClaimFinalization(ctx, b.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrBattleNotClaimable) {
			// Финализацию уже выполняет другой запрос.
			latest, lerr := s.loadBattle(ctx, op, b.ID)
			if lerr != nil {
				return nil, lerr
			}
			state := SubmitStateEvaluating
			if latest.Status == models.BattleStatusCompleted {
				state = SubmitStateCompleted
			}
			return &SubmitResult{Battle: latest, State: state}, nil
		}
		return nil, persistenceError(op, err)
	}
	s.notify(EventBattleUpdated, claimed)

	topic, err := s.topicRepo.GetByID(ctx, claimed.TopicID)
	if err != nil {
		return nil, s.release(ctx, claimed, persistenceError(op, err))
	}
	claimed.Topic = topic
	brief := topic.Brief()

	var response1, response2 string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.judge.Generate(gctx, brief, derefString(claimed.Player1Prompt))
		response1 = text
		return err
	})
	g.Go(func() error {
		text, err := s.judge.Generate(gctx, brief, derefString(claimed.Player2Prompt))
		response2 = text
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.release(ctx, claimed, modelError(op, err))
	}

	verdict, err := s.judge.CompareBattle(ctx, brief, response1, response2)
	if err != nil {
		return nil, s.release(ctx, claimed, modelError(op, err))
	}

	var first judge.Side
	switch claimed.FirstSubmitter() {
	case 1:
		first = judge.SidePlayer1
	case 2:
		first = judge.SidePlayer2
	}
	winnerSide := verdict.ResolveWinner(first)
	winnerID := claimed.Player1ID
	if winnerSide == judge.SidePlayer2 {
		winnerID = claimed.Player2ID
	}

	verdict.Winner = winnerSide
	detail, err := json.Marshal(verdict)
	if err != nil {
		return nil, s.release(ctx, claimed, persistenceError(op, err))
	}
	eval := &models.Evaluation{
		BattleID:       claimed.ID,
		EvaluationText: verdict.Summary,
		WinnerID:       winnerID,
		Player1Score:   verdict.Player1.Total(),
		Player2Score:   verdict.Player2.Total(),
		Detail:         detail,
	}

	if err := models.TransitionBattle(claimed.Status, models.BattleStatusCompleted); err != nil {
		return nil, s.release(ctx, claimed, conflictError(op, "battle cannot be completed", err))
	}
	err = s.tx.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.battleRepo.Complete(ctx, exec, claimed.ID, response1, response2, winnerID); err != nil {
			return err
		}
		return s.evalRepo.Create(ctx, exec, eval)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrBattleNotClaimable), errors.Is(err, repositories.ErrEvaluationExists):
			// Захват был снят (например, по таймауту), результат не записан.
			return nil, conflictError(op, "battle was finalized elsewhere", err)
		default:
			return nil, s.release(ctx, claimed, persistenceError(op, err))
		}
	}

	claimed.Status = models.BattleStatusCompleted
	claimed.Player1Response = &response1
	claimed.Player2Response = &response2
	claimed.WinnerID = &winnerID
	claimed.LastError = nil
	claimed.Evaluation = eval

	if s.ranking != nil {
		if err := s.ranking.Invalidate(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("failed to invalidate ranking cache", "error", err)
		}
	}
	s.notify(EventBattleCompleted, claimed)
	s.log.Info("battle completed", "battle_id", claimed.ID, "winner_id", winnerID,
		"player1_score", eval.Player1Score, "player2_score", eval.Player2Score)

	return &SubmitResult{Battle: claimed, State: SubmitStateCompleted}, nil
}

// release returns the claim so the battle can be retried and passes cause through.
func (s *battleService) release(ctx context.Context, b *models.Battle, cause error) error {
	reason := string(KindOf(cause))
	if reason == "" {
		reason = "finalization failed"
	}
	s.log.Warn("battle finalization failed", "battle_id", b.ID, "kind", reason, "error", cause)

	next := models.BattleStatusInProgress
	if b.Attempts+1 >= s.cfg.MaxEvaluationAttempts {
		next = models.BattleStatusError
	}
	if err := models.TransitionBattle(b.Status, next); err != nil {
		s.log.Error("unexpected battle status on release", "battle_id", b.ID, "status", b.Status, "error", err)
		return cause
	}

	released, err := s.battleRepo.ReleaseFinalization(context.WithoutCancel(ctx), b.ID, reason, s.cfg.MaxEvaluationAttempts)
	if err != nil {
		s.log.Error("failed to release battle claim", "battle_id", b.ID, "error", err)
		return cause
	}
	if released.Status == models.BattleStatusError {
		s.notify(EventBattleFailed, released)
	} else {
		s.notify(EventBattleUpdated, released)
	}
	return cause
}

func (s *battleService) SweepStale(ctx context.Context, olderThan time.Time) (int, error) {
	const op = "battles.SweepStale"

	stale, err := s.battleRepo.ListStaleEvaluating(ctx, olderThan, 100)
	if err != nil {
		return 0, persistenceError(op, err)
	}
	released := 0
	for i := range stale {
		b := &stale[i]
		updated, err := s.battleRepo.ReleaseFinalization(ctx, b.ID, "evaluation timed out", s.cfg.MaxEvaluationAttempts)
		if err != nil {
			if errors.Is(err, repositories.ErrBattleStateConflict) {
				continue
			}
			return released, persistenceError(op, err)
		}
		released++
		if updated.Status == models.BattleStatusError {
			s.notify(EventBattleFailed, updated)
		} else {
			s.notify(EventBattleUpdated, updated)
		}
	}
	if released > 0 {
		s.log.Info("released stale battle evaluations", "count", released)
	}
	return released, nil
}

func (s *battleService) loadBattle(ctx context.Context, op string, id uuid.UUID) (*models.Battle, error) {
	b, err := s.battleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrBattleNotFound) {
			return nil, notFoundError(op, "battle not found", err)
		}
		return nil, persistenceError(op, err)
	}
	return b, nil
}

func (s *battleService) notify(eventType string, b *models.Battle) {
	if s.notifier == nil || b == nil {
		return
	}
	view := b.ViewFor(uuid.Nil)
	s.notifier.NotifyBattle(eventType, &view)
}
