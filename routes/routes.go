package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/prompt-battle/docs"
	"github.com/Dosada05/prompt-battle/handlers"
	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Topic     *handlers.TopicHandler
	Battle    *handlers.BattleHandler
	Solo      *handlers.SoloHandler
	Generate  *handlers.GenerateHandler
	Ranking   *handlers.RankingHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(r chi.Router, h Handlers, tokens *middleware.TokenManager, log *logger.Logger, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)

	authenticate := middleware.Authenticate(tokens)

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/swagger/doc.json", docs.Handler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Websocket не проходит через таймаут запроса.
	r.Get("/ws/battles/{id}", h.WebSocket.ServeWs)

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.User.Search)
			r.Get("/me", h.User.Me)
			r.Post("/me/avatar", h.User.UploadAvatar)
			r.Get("/{id}", h.User.GetUserByID)
		})

		r.Route("/topics", func(r chi.Router) {
			r.Get("/", h.Topic.List)
			r.Get("/{id}", h.Topic.Get)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", h.Topic.Create)
				r.Post("/generate", h.Topic.Generate)
				r.Patch("/{id}/active", h.Topic.SetActive)
			})
		})

		r.Route("/battles", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Battle.List)
			r.Post("/", h.Battle.Create)
			r.Get("/{id}", h.Battle.Get)
			r.Post("/{id}/prompt", h.Battle.SubmitPrompt)
			r.Post("/{id}/evaluate", h.Battle.Evaluate)
		})

		r.With(authenticate).Post("/generate", h.Generate.Generate)

		r.Route("/solo", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/evaluate", h.Solo.Evaluate)
			r.Get("/", h.Solo.List)
			r.Get("/{id}", h.Solo.Get)
		})

		r.Get("/ranking", h.Ranking.Leaderboard)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
