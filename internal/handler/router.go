package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mindful-mate/backend/internal/handler/analysis"
	"github.com/zhouzirui/mindful-mate/backend/internal/handler/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/handler/health"
	"github.com/zhouzirui/mindful-mate/backend/internal/handler/therapy"
	middlewarePkg "github.com/zhouzirui/mindful-mate/backend/internal/middleware"
	chatService "github.com/zhouzirui/mindful-mate/backend/internal/service/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/technique"
)

// Deps 路由依赖的服务。
type Deps struct {
	Chat      *chatService.Service
	Model     health.Pinger
	Sessions  health.SessionCounter
	Technique *technique.Catalog
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	if deps.Technique == nil {
		deps.Technique = technique.Default()
	}

	r.Route("/api", func(api chi.Router) {
		health.New(deps.Model, deps.Sessions).RegisterRoutes(api)
		therapy.New(deps.Technique).RegisterRoutes(api)

		chat.New(deps.Chat).RegisterRoutes(api)
		chat.NewWebSocketHandler(deps.Chat).RegisterWebSocketRoutes(api)
		analysis.New(deps.Chat).RegisterRoutes(api)
	})

	return r
}
