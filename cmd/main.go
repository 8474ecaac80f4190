package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/prompt-battle/config"
	"github.com/Dosada05/prompt-battle/db"
	"github.com/Dosada05/prompt-battle/handlers"
	"github.com/Dosada05/prompt-battle/judge"
	"github.com/Dosada05/prompt-battle/llm"
	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/middleware"
	"github.com/Dosada05/prompt-battle/realtime"
	"github.com/Dosada05/prompt-battle/repositories"
	api "github.com/Dosada05/prompt-battle/routes"
	"github.com/Dosada05/prompt-battle/services"
	"github.com/Dosada05/prompt-battle/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "prompt-battle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Настройка логгера
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log.Info("configuration loaded", "port", cfg.ServerPort, "log_mode", cfg.LogMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(ctx, cfg.DatabaseURL, 5*time.Second, db.DefaultPool)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Error("failed to close database connection", "error", err)
		} else {
			log.Info("database connection closed")
		}
	}()
	log.Info("database connection established")

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, dbConn); err != nil {
			return err
		}
		log.Info("database schema applied")
	}

	// Redis (кеш рейтинга) опционален
	rdb, err := db.ConnectRedis(ctx, cfg.RedisURL, 5*time.Second)
	if err != nil {
		return err
	}
	rankingCache := repositories.NewNoopRankingCache()
	if rdb != nil {
		defer rdb.Close()
		rankingCache = repositories.NewRedisRankingCache(rdb, cfg.RankingCacheTTL)
		log.Info("redis ranking cache enabled")
	}

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader := storage.NewDisabledUploader()
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("init Cloudflare R2 uploader: %w", err)
		}
		log.Info("Cloudflare R2 uploader initialized")
	} else {
		log.Warn("R2 is not configured, avatar uploads are disabled")
	}

	// Клиент языковой модели и судья
	llmClient, err := llm.NewClient(llm.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}
	j, err := judge.New(llmClient, judge.Options{
		GenerateModel: cfg.OpenAIModel,
		JudgeModel:    cfg.OpenAIJudgeModel,
	}, log)
	if err != nil {
		return err
	}

	tokens, err := middleware.NewTokenManager(cfg.JWTSecretKey, cfg.JWTTTL)
	if err != nil {
		return err
	}

	// Инициализация WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := realtime.NewHub(log)
	go wsHub.Run(hubCtx)

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	topicRepo := repositories.NewPostgresTopicRepository(dbConn)
	battleRepo := repositories.NewPostgresBattleRepository(dbConn)
	evalRepo := repositories.NewPostgresEvaluationRepository(dbConn)
	soloRepo := repositories.NewPostgresSoloBattleRepository(dbConn)
	rankingRepo := repositories.NewPostgresRankingRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, tokens, log)
	userService := services.NewUserService(userRepo, uploader, log)
	topicService := services.NewTopicService(topicRepo, j, log)
	rankingService := services.NewRankingService(rankingRepo, rankingCache, uploader, log)
	battleService := services.NewBattleService(
		battleRepo,
		topicRepo,
		userRepo,
		evalRepo,
		txRunner,
		j,
		wsHub,
		rankingService,
		services.BattleServiceConfig{MaxEvaluationAttempts: cfg.MaxEvaluationAttempts},
		log,
	)
	soloService := services.NewSoloService(soloRepo, topicRepo, j, log)
	generateService := services.NewGenerateService(j)

	// Планировщик: снятие зависших оценок и прогрев рейтинга
	scheduler, err := services.NewScheduler(battleService, rankingService, services.SchedulerConfig{
		SweepInterval:        cfg.SweepInterval,
		StaleEvaluationAfter: cfg.StaleEvaluationAfter,
		RankingRefreshEvery:  cfg.RankingRefreshEvery,
	}, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Error("scheduler shutdown failed", "error", err)
		}
	}()

	// Инициализация обработчиков HTTP
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, log),
		User:      handlers.NewUserHandler(userService, log),
		Topic:     handlers.NewTopicHandler(topicService, log),
		Battle:    handlers.NewBattleHandler(battleService, log),
		Solo:      handlers.NewSoloHandler(soloService, log),
		Generate:  handlers.NewGenerateHandler(generateService, log),
		Ranking:   handlers.NewRankingHandler(rankingService, log),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, log),
		Health:    handlers.NewHealthHandler(dbConn, log),
	}, tokens, log, api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		// Финализация битвы делает три запроса к модели.
		RequestTimeout: 3*cfg.OpenAITimeout + 15*time.Second,
	})
	log.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3*cfg.OpenAITimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting server", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			if closeErr := server.Close(); closeErr != nil {
				log.Error("failed to force close server", "error", closeErr)
			}
			return err
		}
		log.Info("server shutdown complete")
	}
	return nil
}
