package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/handler/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/handler/contact"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/metrics"
	middlewarePkg "github.com/akash-shanmuganathan/portfolio/backend/internal/middleware"
	chatService "github.com/akash-shanmuganathan/portfolio/backend/internal/service/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/corpus"
	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Config    config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Assistant chat.Assistant
	Sessions  chatService.Store
	Corpus    corpus.Source
	Mailer    contact.Mailer
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	responder := utils.NewErrorResponder(logger, !deps.Config.Server.Production())

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger, deps.Metrics))
	r.Use(middlewarePkg.Recoverer(responder))
	r.Use(middlewarePkg.CORS(deps.Config.Server.AllowedOrigins))

	chatHandler := chat.New(deps.Assistant, deps.Sessions, deps.Corpus, responder, deps.Metrics, logger)
	contactHandler := contact.New(deps.Mailer, responder, deps.Metrics)

	chatLimiter := middlewarePkg.NewRateLimiter(deps.Config.RateLimit.ChatPerMinute)
	contactLimiter := middlewarePkg.NewRateLimiter(deps.Config.RateLimit.ContactPerMinute)

	// 子路由在挂载时继承这两个处理器
	r.NotFound(responder.Wrap(func(http.ResponseWriter, *http.Request) error {
		return &utils.APIError{Status: http.StatusNotFound, Message: "not found"}
	}))
	r.MethodNotAllowed(responder.Wrap(func(http.ResponseWriter, *http.Request) error {
		return &utils.APIError{Status: http.StatusMethodNotAllowed, Message: "method not allowed"}
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)

		api.Group(func(g chi.Router) {
			g.Use(chatLimiter.Middleware)
			chatHandler.RegisterRoutes(g)
		})

		api.Group(func(g chi.Router) {
			g.Use(contactLimiter.Middleware)
			contactHandler.RegisterRoutes(g)
		})
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	mountClient(r, deps.Config.Server.StaticDir, logger)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Server is running"})
}
