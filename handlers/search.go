package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"wanderplan/services"

	"github.com/gin-gonic/gin"
)

type SearchRequest struct {
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Date        string `json:"date" binding:"required"`
}

type SearchResponse struct {
	Flights []services.Flight `json:"flights"`
}

// SearchFlights is a standalone flight lookup. The key comes from the
// X-SERP-API-KEY header, or from the session named in X-Session-ID.
func (h *Handler) SearchFlights(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	req.Source = strings.ToUpper(strings.TrimSpace(req.Source))
	req.Destination = strings.ToUpper(strings.TrimSpace(req.Destination))

	// Validate airport code length
	if len(req.Source) != 3 || len(req.Destination) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Airport codes must be exactly 3 characters (e.g. LHR, JFK)"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	key, err := h.serpKey(c)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Failed to read SerpAPI key", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settings"})
		return
	}

	flights, err := h.flights.Search(c.Request.Context(), services.FlightQuery{
		Source:      req.Source,
		Destination: req.Destination,
		Date:        req.Date,
	}, key)
	if err != nil {
		if errors.Is(err, services.ErrMissingCredential) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": services.NotificationFor(err)})
			return
		}
		h.logger.WarnContext(c.Request.Context(), "Flight search failed", slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Flight search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, SearchResponse{Flights: flights})
}

func (h *Handler) serpKey(c *gin.Context) (string, error) {
	if key := strings.TrimSpace(c.GetHeader(SerpKeyHeader)); key != "" {
		return key, nil
	}
	if id := strings.TrimSpace(c.GetHeader("X-Session-ID")); id != "" && h.credentials != nil {
		return h.sessionCredentials(id).APIKey(c.Request.Context(), services.SerpAPIKey)
	}
	return h.fallback.APIKey(c.Request.Context(), services.SerpAPIKey)
}
