package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
	"wanderplan/services"

	"github.com/gin-gonic/gin"
)

const (
	GroqKeyHeader = "X-GROQ-API-KEY"
	SerpKeyHeader = "X-SERP-API-KEY"
)

type Deps struct {
	Sessions    *services.SessionStore
	Credentials services.CredentialStore
	Fallback    services.StaticCredentials
	Controller  *services.Controller
	Chat        *services.Chat
	GroqPlanner *services.TripPlanner
	Flights     services.FlightSearcher
	Logger      *slog.Logger
}

type Handler struct {
	sessions    *services.SessionStore
	credentials services.CredentialStore
	fallback    services.StaticCredentials
	controller  *services.Controller
	chat        *services.Chat
	groqPlanner *services.TripPlanner
	flights     services.FlightSearcher
	logger      *slog.Logger
}

func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions:    d.Sessions,
		credentials: d.Credentials,
		fallback:    d.Fallback,
		controller:  d.Controller,
		chat:        d.Chat,
		groqPlanner: d.GroqPlanner,
		flights:     d.Flights,
		logger:      logger,
	}
}

// Register mounts every route under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/generate-trip-plan", h.GenerateTripPlan)
		api.POST("/flights/search", h.SearchFlights)

		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.GET("/sessions/:id/settings", h.GetSettings)
		api.PUT("/sessions/:id/settings", h.SaveSettings)
		api.POST("/sessions/:id/trip", h.SubmitTrip)
		api.POST("/sessions/:id/chat", h.Chat)
		api.GET("/sessions/:id/plan.pdf", h.DownloadPlan)
	}
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storeStatus := "ok"
	if h.credentials == nil {
		storeStatus = "not initialized"
	} else if err := h.credentials.Ping(ctx); err != nil {
		storeStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"service":          "WanderPlan API",
		"credential_store": storeStatus,
		"sessions":         h.sessions.Len(),
	})
}

// session resolves :id or writes a 404. A session missing from memory is
// resumed when the credential store still holds its keys, e.g. after a
// restart.
func (h *Handler) session(c *gin.Context) (*services.Session, bool) {
	id := c.Param("id")
	if s, ok := h.sessions.Get(id); ok {
		return s, true
	}

	if h.credentials != nil {
		saved, err := h.credentials.HasCredentials(c.Request.Context(), id)
		if err != nil {
			h.logger.ErrorContext(c.Request.Context(), "Failed to look up session", slog.String("session_id", id), slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return nil, false
		}
		if saved {
			if s, ok := h.sessions.Resume(id); ok {
				h.logger.InfoContext(c.Request.Context(), "Session resumed", slog.String("session_id", id))
				return s, true
			}
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	return nil, false
}

func (h *Handler) sessionCredentials(sessionID string) services.CredentialProvider {
	return services.SessionCredentials{
		Store:     h.credentials,
		SessionID: sessionID,
		Fallback:  h.fallback,
	}
}
