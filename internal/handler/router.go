package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/lease-desk/internal/handler/attachment"
	"github.com/zhouzirui/lease-desk/internal/handler/chat"
	"github.com/zhouzirui/lease-desk/internal/handler/live"
	"github.com/zhouzirui/lease-desk/internal/handler/quickaction"
	"github.com/zhouzirui/lease-desk/internal/handler/requests"
	"github.com/zhouzirui/lease-desk/internal/handler/speech"
	"github.com/zhouzirui/lease-desk/internal/logger"
	middlewarePkg "github.com/zhouzirui/lease-desk/internal/middleware"
	quickactionModel "github.com/zhouzirui/lease-desk/internal/model/quickaction"
	"github.com/zhouzirui/lease-desk/internal/service/coordinator"
	requestService "github.com/zhouzirui/lease-desk/internal/service/requests"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// Deps are the services exposed over HTTP. Speech and Requests may be nil.
type Deps struct {
	Coordinator  *coordinator.Coordinator
	QuickActions quickactionModel.Store
	Board        *requestService.Board
	Requests     requests.Fetcher
	Session      requestService.Query
	Speech       speech.Synthesizer
	Hub          *live.Hub
	WaitTimeout  time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.For(logger.Handler)))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})

		chat.New(deps.Coordinator, deps.WaitTimeout).RegisterRoutes(api)
		attachment.New(deps.Coordinator.Attachments()).RegisterRoutes(api)

		if deps.QuickActions != nil {
			quickaction.New(deps.QuickActions).RegisterRoutes(api)
		}
		if deps.Board != nil {
			requests.New(deps.Board, deps.Requests, deps.Session).RegisterRoutes(api)
		}
		if deps.Speech != nil {
			speech.New(deps.Speech).RegisterRoutes(api)
		}
		if deps.Hub != nil {
			live.New(deps.Hub, liveBridge{coord: deps.Coordinator}).RegisterRoutes(api)
		}
	})

	return r
}

// liveBridge lets WebSocket clients drive the coordinator.
type liveBridge struct {
	coord *coordinator.Coordinator
}

func (b liveBridge) SubmitText(text string) (bool, error) {
	_, ok := b.coord.Submit(text)
	return ok, nil
}

func (b liveBridge) SpeakMessage(ctx context.Context, messageID string) error {
	return b.coord.Speak(ctx, messageID)
}
