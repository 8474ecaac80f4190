package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dosada05/prompt-battle/judge"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/repositories"
	"github.com/google/uuid"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) SearchByUsername(_ context.Context, q string, _ int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(q)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateAvatarKey(_ context.Context, id uuid.UUID, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = key
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakeTopicRepo struct {
	mu     sync.Mutex
	topics map[uuid.UUID]*models.Topic
	slugs  map[string]bool
}

func newFakeTopicRepo() *fakeTopicRepo {
	return &fakeTopicRepo{topics: map[uuid.UUID]*models.Topic{}, slugs: map[string]bool{}}
}

func (r *fakeTopicRepo) Create(_ context.Context, t *models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugs[t.Slug] {
		return repositories.ErrTopicSlugConflict
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	cp := *t
	r.topics[t.ID] = &cp
	r.slugs[t.Slug] = true
	return nil
}

func (r *fakeTopicRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[id]
	if !ok {
		return nil, repositories.ErrTopicNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTopicRepo) List(_ context.Context, f repositories.ListTopicsFilter) ([]models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Topic{}
	for _, t := range r.topics {
		if f.ActiveOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTopicRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[id]
	if !ok {
		return repositories.ErrTopicNotFound
	}
	t.IsActive = active
	return nil
}

// fakeBattleRepo mirrors the conditional updates of the SQL repository.
type fakeBattleRepo struct {
	mu      sync.Mutex
	battles map[uuid.UUID]*models.Battle
}

func newFakeBattleRepo() *fakeBattleRepo {
	return &fakeBattleRepo{battles: map[uuid.UUID]*models.Battle{}}
}

func (r *fakeBattleRepo) Create(_ context.Context, b *models.Battle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uuid.New()
	b.Status = models.BattleStatusWaiting
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.battles[b.ID] = &cp
	return nil
}

func (r *fakeBattleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[id]
	if !ok {
		return nil, repositories.ErrBattleNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBattleRepo) List(_ context.Context, f repositories.ListBattlesFilter) ([]models.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Battle{}
	for _, b := range r.battles {
		if f.PlayerID != nil && !b.IsPlayer(*f.PlayerID) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBattleRepo) SubmitPrompt(_ context.Context, id uuid.UUID, side int, prompt string) (*models.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[id]
	if !ok || (b.Status != models.BattleStatusWaiting && b.Status != models.BattleStatusInProgress) {
		return nil, repositories.ErrBattleStateConflict
	}
	now := time.Now()
	p := prompt
	switch side {
	case 1:
		if b.Player1Prompt != nil {
			return nil, repositories.ErrBattleStateConflict
		}
		b.Player1Prompt, b.Player1SubmittedAt = &p, &now
	case 2:
		if b.Player2Prompt != nil {
			return nil, repositories.ErrBattleStateConflict
		}
		b.Player2Prompt, b.Player2SubmittedAt = &p, &now
	}
	if b.Status == models.BattleStatusWaiting {
		b.Status = models.BattleStatusInProgress
	}
	b.UpdatedAt = now
	cp := *b
	return &cp, nil
}

func (r *fakeBattleRepo) ClaimFinalization(_ context.Context, id uuid.UUID) (*models.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[id]
	if !ok || b.Status != models.BattleStatusInProgress || !b.BothSubmitted() {
		return nil, repositories.ErrBattleNotClaimable
	}
	b.Status = models.BattleStatusEvaluating
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *fakeBattleRepo) ReleaseFinalization(_ context.Context, id uuid.UUID, reason string, maxAttempts int) (*models.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[id]
	if !ok || b.Status != models.BattleStatusEvaluating {
		return nil, repositories.ErrBattleStateConflict
	}
	b.Attempts++
	b.LastError = &reason
	if b.Attempts >= maxAttempts {
		b.Status = models.BattleStatusError
	} else {
		b.Status = models.BattleStatusInProgress
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBattleRepo) Complete(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, r1, r2 string, winner uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[id]
	if !ok || b.Status != models.BattleStatusEvaluating {
		return repositories.ErrBattleNotClaimable
	}
	b.Player1Response, b.Player2Response = &r1, &r2
	b.WinnerID = &winner
	b.Status = models.BattleStatusCompleted
	return nil
}

func (r *fakeBattleRepo) ListStaleEvaluating(_ context.Context, olderThan time.Time, _ int) ([]models.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Battle{}
	for _, b := range r.battles {
		if b.Status == models.BattleStatusEvaluating && b.UpdatedAt.Before(olderThan) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBattleRepo) put(b *models.Battle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.battles[b.ID] = &cp
}

type fakeEvalRepo struct {
	mu    sync.Mutex
	evals map[uuid.UUID]*models.Evaluation
}

func newFakeEvalRepo() *fakeEvalRepo {
	return &fakeEvalRepo{evals: map[uuid.UUID]*models.Evaluation{}}
}

func (r *fakeEvalRepo) Create(_ context.Context, _ repositories.SQLExecutor, e *models.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.evals[e.BattleID]; ok {
		return repositories.ErrEvaluationExists
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	cp := *e
	r.evals[e.BattleID] = &cp
	return nil
}

func (r *fakeEvalRepo) GetByBattleID(_ context.Context, id uuid.UUID) (*models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.evals[id]
	if !ok {
		return nil, repositories.ErrEvaluationNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEvalRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.evals)
}

type fakeSoloRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.SoloBattle
}

func newFakeSoloRepo() *fakeSoloRepo {
	return &fakeSoloRepo{items: map[uuid.UUID]*models.SoloBattle{}}
}

func (r *fakeSoloRepo) Create(_ context.Context, sb *models.SoloBattle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sb.ID = uuid.New()
	sb.CreatedAt = time.Now()
	cp := *sb
	r.items[sb.ID] = &cp
	return nil
}

func (r *fakeSoloRepo) GetByID(_ context.Context, id uuid.UUID) (*models.SoloBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sb, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrSoloBattleNotFound
	}
	cp := *sb
	return &cp, nil
}

func (r *fakeSoloRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]models.SoloBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.SoloBattle{}
	for _, sb := range r.items {
		if sb.UserID == userID {
			out = append(out, *sb)
		}
	}
	return out, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// fakeJudge returns canned verdicts and counts calls.
type fakeJudge struct {
	generateErr error
	compareErr  error
	verdict     *judge.BattleVerdict
	solo        *judge.SoloVerdict
	suggestion  *judge.TopicSuggestion

	// gate, when set, blocks CompareBattle until closed.
	gate chan struct{}

	generateCalls atomic.Int32
	compareCalls  atomic.Int32
}

func (j *fakeJudge) Generate(_ context.Context, topic, prompt string) (string, error) {
	j.generateCalls.Add(1)
	if j.generateErr != nil {
		return "", j.generateErr
	}
	return "answer to: " + prompt, nil
}

func (j *fakeJudge) CompareBattle(ctx context.Context, _, _, _ string) (*judge.BattleVerdict, error) {
	j.compareCalls.Add(1)
	if j.gate != nil {
		select {
		case <-j.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if j.compareErr != nil {
		return nil, j.compareErr
	}
	v := *j.verdict
	return &v, nil
}

func (j *fakeJudge) ScoreSolo(_ context.Context, _, _, _ string) (*judge.SoloVerdict, error) {
	if j.compareErr != nil {
		return nil, j.compareErr
	}
	v := *j.solo
	return &v, nil
}

func (j *fakeJudge) SuggestTopic(context.Context) (*judge.TopicSuggestion, error) {
	if j.compareErr != nil {
		return nil, j.compareErr
	}
	s := *j.suggestion
	return &s, nil
}

type recordedEvent struct {
	Type   string
	Status models.BattleStatus
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *fakeNotifier) NotifyBattle(eventType string, b *models.Battle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Type: eventType, Status: b.Status})
}

func (n *fakeNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeInvalidator struct{ calls atomic.Int32 }

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls.Add(1)
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(id uuid.UUID, _ string) (string, error) { return "token-" + id.String(), nil }
