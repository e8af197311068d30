package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePlanPDF(t *testing.T) {
	out, err := GeneratePlanPDF(PlanPDFData{
		Plan:        "## Transportation\n- Take the **RER B** into town\n\n## Dining\nCafé de Flore for breakfast.",
		Flights:     sampleFlights(2),
		GeneratedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGeneratePlanPDF_NoPlan(t *testing.T) {
	_, err := GeneratePlanPDF(PlanPDFData{Plan: "  \n"})
	assert.ErrorIs(t, err, ErrNoPlan)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd.", truncate("abcdefgh", 5))
}
