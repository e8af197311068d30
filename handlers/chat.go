package handlers

import (
	"errors"
	"net/http"
	"wanderplan/services"

	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	Message string `json:"message"`
}

// Chat asks one follow-up about the session's plan. Vendor failures come back
// as an apology in the transcript, not as an error status.
func (h *Handler) Chat(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	view, err := h.chat.Ask(c.Request.Context(), s, h.sessionCredentials(s.ID()), req.Message)
	switch {
	case errors.Is(err, services.ErrNoPlan):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Generate a trip plan before asking questions", State: view})
	case errors.Is(err, services.ErrBusy):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Please wait for the current reply", State: view})
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), State: view})
	default:
		c.JSON(http.StatusOK, view)
	}
}
