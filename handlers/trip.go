package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"wanderplan/services"

	"github.com/gin-gonic/gin"
)

type PlanResponse struct {
	Plan string `json:"plan"`
}

type ErrorResponse struct {
	Error string             `json:"error"`
	State services.ViewState `json:"state"`
}

// GenerateTripPlan is the stateless endpoint: the caller brings its own GROQ
// key in the X-GROQ-API-KEY header.
func (h *Handler) GenerateTripPlan(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(GroqKeyHeader))
	if key == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "GROQ API key is required"})
		return
	}

	// Only 401 and 500 are part of this endpoint's contract, so a body that
	// does not decode is a failed generation.
	var req services.TripDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(c.Request.Context(), "Undecodable trip plan request", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate trip plan"})
		return
	}

	creds := services.StaticCredentials{services.GroqAPIKey: key}
	plan, err := h.groqPlanner.Plan(c.Request.Context(), creds, req)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Trip plan generation failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate trip plan"})
		return
	}

	c.JSON(http.StatusOK, PlanResponse{Plan: plan})
}

// SubmitTrip runs the trip form for a session and returns the new view.
func (h *Handler) SubmitTrip(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req services.TripDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	view, err := h.controller.Submit(c.Request.Context(), s, h.sessionCredentials(s.ID()), req)
	if err != nil {
		c.JSON(submitStatus(err), ErrorResponse{Error: services.NotificationFor(err), State: view})
		return
	}
	c.JSON(http.StatusOK, view)
}

func submitStatus(err error) int {
	var invalid *services.ValidationError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
