package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const (
	msgPlanSuccess = "Trip plan generated successfully!"
	msgPlanFailed  = "Failed to generate trip plan. Please try again."
	maxSummaryRows = 3
)

var isoDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Controller runs trip form submissions against a session:
// idle → submitting → idle, whether the submission succeeds or not.
type Controller struct {
	planner *TripPlanner
	flights FlightSearcher
	logger  *slog.Logger
}

func NewController(planner *TripPlanner, flights FlightSearcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{planner: planner, flights: flights, logger: logger}
}

// Submit validates the form and the keys before any network call, then
// searches flights (if asked) and generates the plan, in that order. A failed
// flight search is reported but does not stop the plan.
func (c *Controller) Submit(ctx context.Context, s *Session, creds CredentialProvider, d TripDetails) (ViewState, error) {
	if err := d.Validate(); err != nil {
		s.notify("error", NotificationFor(err))
		return s.Snapshot(), err
	}

	if _, err := requireKey(ctx, creds, c.planner.Generator().KeyName()); err != nil {
		s.notify("error", NotificationFor(err))
		return s.Snapshot(), err
	}

	var serpKey string
	if d.IncludeFlights {
		key, err := requireKey(ctx, creds, SerpAPIKey)
		if err != nil {
			s.notify("error", NotificationFor(err))
			return s.Snapshot(), err
		}
		serpKey = key
	}

	if err := s.beginSubmit(); err != nil {
		return s.Snapshot(), err
	}

	var (
		flights   []Flight
		flightErr error
	)
	if d.IncludeFlights && c.flights != nil {
		flights, flightErr = c.flights.Search(ctx, FlightQuery{
			Source:      d.Source,
			Destination: d.Destination,
			Date:        SearchDate(d.Dates),
		}, serpKey)
		if flightErr != nil {
			c.logger.WarnContext(ctx, "Flight search failed, continuing with plan",
				slog.String("session_id", s.ID()),
				slog.Any("error", flightErr))
		}
	}

	plan, err := c.planner.Plan(ctx, creds, d)
	if err != nil {
		s.failSubmit(&Notification{Level: "error", Message: NotificationFor(err)})
		return s.Snapshot(), err
	}

	if len(flights) > 0 {
		plan = FlightSummary(flights) + "\n" + plan
	}

	note := &Notification{Level: "success", Message: msgPlanSuccess}
	if flightErr != nil {
		note = &Notification{Level: "warning", Message: "Trip plan generated, but the flight search failed: " + flightErrorText(flightErr)}
	}
	s.finishSubmit(plan, flights, note)

	c.logger.InfoContext(ctx, "Trip form submitted",
		slog.String("session_id", s.ID()),
		slog.Int("flights", len(flights)))
	return s.Snapshot(), nil
}

// SearchDate pulls a YYYY-MM-DD date out of the free-text dates field, or
// returns the field as typed.
func SearchDate(dates string) string {
	if m := isoDate.FindString(dates); m != "" {
		return m
	}
	return strings.TrimSpace(dates)
}

// FlightSummary is the short markdown block folded in front of the plan.
func FlightSummary(flights []Flight) string {
	var b strings.Builder
	b.WriteString("## Flight Options\n\n")
	for i, f := range flights {
		if i >= maxSummaryRows {
			break
		}
		fmt.Fprintf(&b, "- %s: %s %s → %s %s, %s, %s, %s %.2f\n",
			f.Airline.Name,
			f.DepartureAirport.Code, f.Departure.Time,
			f.ArrivalAirport.Code, f.Arrival.Time,
			f.Duration, StopsLabel(f.Stops),
			f.Price.Currency, f.Price.Amount)
	}
	return b.String()
}

func StopsLabel(stops int) string {
	switch {
	case stops <= 0:
		return "Direct"
	case stops == 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", stops)
	}
}

// NotificationFor turns any failure into the text shown to the user. Only a
// missing key is told apart, by naming the key.
func NotificationFor(err error) string {
	var missing *MissingCredentialError
	if errors.As(err, &missing) {
		return fmt.Sprintf("Please set your %s API key in settings first", vendorLabel(missing.Key))
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return "Please fill in the " + invalid.Field + " field"
	}
	if errors.Is(err, ErrBusy) {
		return "Your trip plan is still being generated."
	}
	return msgPlanFailed
}

func vendorLabel(key string) string {
	switch key {
	case GeminiAPIKey:
		return "Gemini"
	case GroqAPIKey:
		return "GROQ"
	case SerpAPIKey:
		return "SerpAPI"
	default:
		return key
	}
}

func flightErrorText(err error) string {
	var fe *FlightSearchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return "please try again later"
}
