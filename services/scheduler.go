package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/go-co-op/gocron/v2"
)

type SchedulerConfig struct {
	SweepInterval        time.Duration
	StaleEvaluationAfter time.Duration
	RankingRefreshEvery  time.Duration
}

// Scheduler runs background maintenance: releasing stuck evaluations and
// warming the leaderboard cache.
type Scheduler struct {
	sched   gocron.Scheduler
	battles BattleService
	ranking RankingService
	cfg     SchedulerConfig
	log     *logger.Logger
	now     func() time.Time
}

func NewScheduler(battles BattleService, ranking RankingService, cfg SchedulerConfig, log *logger.Logger) (*Scheduler, error) {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	if cfg.StaleEvaluationAfter <= 0 {
		cfg.StaleEvaluationAfter = 5 * time.Minute
	}
	if cfg.RankingRefreshEvery <= 0 {
		cfg.RankingRefreshEvery = 5 * time.Minute
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	s := &Scheduler{
		sched:   sched,
		battles: battles,
		ranking: ranking,
		cfg:     cfg,
		log:     log.With("service", "Scheduler"),
		now:     time.Now,
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(s.sweepStale),
		gocron.WithName("sweep-stale-evaluations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("failed to register sweep job: %w", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.RankingRefreshEvery),
		gocron.NewTask(s.refreshRanking),
		gocron.WithName("refresh-ranking"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("failed to register ranking job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.log.Info("scheduler started", "sweep_interval", s.cfg.SweepInterval, "stale_after", s.cfg.StaleEvaluationAfter)
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) sweepStale() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SweepInterval)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.StaleEvaluationAfter)
	if _, err := s.battles.SweepStale(ctx, cutoff); err != nil {
		s.log.Error("stale evaluation sweep failed", "error", err)
	}
}

func (s *Scheduler) refreshRanking() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.ranking.Refresh(ctx); err != nil {
		s.log.Error("ranking refresh failed", "error", err)
	}
}
