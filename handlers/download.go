package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"wanderplan/services"

	"github.com/gin-gonic/gin"
)

// DownloadPlan renders the session's current plan and flights as a PDF.
func (h *Handler) DownloadPlan(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	view := s.Snapshot()
	pdfBytes, err := services.GeneratePlanPDF(services.PlanPDFData{
		Plan:        view.Plan,
		Flights:     view.Flights,
		GeneratedAt: time.Now().UTC(),
	})
	if errors.Is(err, services.ErrNoPlan) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No trip plan to download yet"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "PDF generation failed",
			slog.String("session_id", s.ID()), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	filename := fmt.Sprintf("wanderplan-%s.pdf", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
