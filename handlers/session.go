package handlers

import (
	"net/http"
	"wanderplan/services"

	"github.com/gin-gonic/gin"
)

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type SettingsResponse struct {
	Keys map[string]bool `json:"keys"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	h.logger.InfoContext(c.Request.Context(), "Session created", "session_id", s.ID())
	c.JSON(http.StatusCreated, CreateSessionResponse{SessionID: s.ID()})
}

func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// GetSettings reports which keys are usable. Key values never leave the
// server.
func (h *Handler) GetSettings(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.writeSettings(c, s)
}

// SaveSettings is the settings form: given keys overwrite stored ones.
func (h *Handler) SaveSettings(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req services.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.credentials.SetCredentials(c.Request.Context(), s.ID(), req.Values()); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Failed to save settings", "session_id", s.ID(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	h.writeSettings(c, s)
}

func (h *Handler) writeSettings(c *gin.Context, s *services.Session) {
	creds := h.sessionCredentials(s.ID())
	keys := make(map[string]bool, len(services.CredentialKeys))
	for _, name := range services.CredentialKeys {
		key, err := creds.APIKey(c.Request.Context(), name)
		if err != nil {
			h.logger.ErrorContext(c.Request.Context(), "Failed to read settings", "session_id", s.ID(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settings"})
			return
		}
		keys[name] = key != ""
	}
	c.JSON(http.StatusOK, SettingsResponse{Keys: keys})
}
