package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type PlanPDFData struct {
	Plan        string
	Flights     []Flight
	GeneratedAt time.Time
}

// GeneratePlanPDF renders the plan and flight table to PDF bytes. Markdown
// headers become section bars; everything else is wrapped text.
func GeneratePlanPDF(data PlanPDFData) ([]byte, error) {
	if strings.TrimSpace(data.Plan) == "" {
		return nil, ErrNoPlan
	}
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now().UTC()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// ── Footer ───────────────────────────────────────────────
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8,
			fmt.Sprintf("Generated by WanderPlan - not a booking confirmation - page %d", pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "WanderPlan", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "AI Travel Plan - generated "+data.GeneratedAt.Format("02 Jan 2006, 15:04 UTC"), "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.Ln(2)
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+tr(title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	// ── Flights ──────────────────────────────────────────────
	if len(data.Flights) > 0 {
		sectionHeader("Flights")
		widths := []float64{42, 34, 34, 22, 16, 22}
		headers := []string{"Airline", "Departure", "Arrival", "Duration", "Stops", "Price"}

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, f := range data.Flights {
			cells := []string{
				f.Airline.Name,
				f.Departure.Time + " " + f.DepartureAirport.Code,
				f.Arrival.Time + " " + f.ArrivalAirport.Code,
				f.Duration,
				StopsLabel(f.Stops),
				fmt.Sprintf("%s %.2f", f.Price.Currency, f.Price.Amount),
			}
			for i, c := range cells {
				pdf.CellFormat(widths[i], 7, truncate(tr(c), 26), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	// ── Plan ─────────────────────────────────────────────────
	for _, line := range strings.Split(data.Plan, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			pdf.Ln(2)
		case strings.HasPrefix(trimmed, "#"):
			sectionHeader(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(40, 40, 40)
			pdf.SetX(24)
			pdf.MultiCell(166, 5, tr("- "+stripEmphasis(trimmed[2:])), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(40, 40, 40)
			pdf.MultiCell(170, 5, tr(stripEmphasis(trimmed)), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("PDF render failed: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("PDF output is empty")
	}
	return buf.Bytes(), nil
}

func stripEmphasis(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "."
}
