package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TripDetails is one submission of the trip form. Everything is kept as the
// user typed it.
type TripDetails struct {
	Source         string `json:"source"`
	Destination    string `json:"destination"`
	Dates          string `json:"dates"`
	Budget         string `json:"budget"`
	Travelers      string `json:"travelers"`
	Interests      string `json:"interests"`
	IncludeFlights bool   `json:"include_flights"`
}

// Validate checks the required form fields, in form order.
func (d TripDetails) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"source", d.Source},
		{"destination", d.Destination},
		{"dates", d.Dates},
		{"budget", d.Budget},
		{"travelers", d.Travelers},
		{"interests", d.Interests},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}

// PlanSections are the headings every generated plan is asked to contain.
var PlanSections = []string{
	"Transportation",
	"Accommodation",
	"Day-by-Day Activities",
	"Dining",
	"Budget Breakdown",
	"Local Tips",
	"Weather & Packing",
	"Safety",
}

// BuildTripPrompt renders the trip into the generation prompt. Same input,
// same prompt.
func BuildTripPrompt(d TripDetails) string {
	var b strings.Builder

	b.WriteString("You are a knowledgeable travel agent with expertise in creating personalized travel itineraries.\n")
	b.WriteString("Create a detailed travel plan based on the following information:\n\n")
	fmt.Fprintf(&b, "Departure City: %s\n", d.Source)
	fmt.Fprintf(&b, "Destination: %s\n", d.Destination)
	fmt.Fprintf(&b, "Travel Dates: %s\n", d.Dates)
	fmt.Fprintf(&b, "Budget: $%s\n", d.Budget)
	fmt.Fprintf(&b, "Number of Travelers: %s\n", d.Travelers)
	fmt.Fprintf(&b, "Interests: %s\n\n", d.Interests)

	b.WriteString("Please provide a comprehensive travel plan. Use a markdown \"## \" header for each of these sections, in this order:\n")
	for i, s := range PlanSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nUnder each header use short paragraphs and bullet points. ")
	b.WriteString("Keep accommodation and dining suggestions within the budget, base activities on the interests, ")
	b.WriteString("and tie weather and packing advice to the travel dates.\n")

	return b.String()
}

// ─── Trip Planner ─────────────────────────────────────────────────────────────

type TripPlanner struct {
	generator TextGenerator
	logger    *slog.Logger
}

func NewTripPlanner(generator TextGenerator, logger *slog.Logger) *TripPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripPlanner{generator: generator, logger: logger}
}

func (p *TripPlanner) Generator() TextGenerator {
	return p.generator
}

// Plan fails with a GenerationError wrapping ErrMissingCredential before any
// network call when the vendor key is unset.
func (p *TripPlanner) Plan(ctx context.Context, creds CredentialProvider, d TripDetails) (string, error) {
	key, err := requireKey(ctx, creds, p.generator.KeyName())
	if err != nil {
		return "", &GenerationError{Vendor: p.generator.Name(), Kind: err}
	}

	start := time.Now()
	plan, err := p.generator.Generate(ctx, key, BuildTripPrompt(d))
	if err != nil {
		p.logger.ErrorContext(ctx, "Trip plan generation failed",
			slog.String("vendor", p.generator.Name()),
			slog.Any("error", err))
		return "", err
	}

	p.logger.InfoContext(ctx, "Trip plan generated",
		slog.String("vendor", p.generator.Name()),
		slog.String("destination", d.Destination),
		slog.Duration("latency", time.Since(start)))
	return plan, nil
}
