package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ─── Types ────────────────────────────────────────────────────────────────────

type Airport struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type FlightTime struct {
	Time string `json:"time"`
	Date string `json:"date"`
}

type Airline struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Flight struct {
	DepartureAirport Airport    `json:"departure_airport"`
	ArrivalAirport   Airport    `json:"arrival_airport"`
	Departure        FlightTime `json:"departure"`
	Arrival          FlightTime `json:"arrival"`
	Airline          Airline    `json:"airline"`
	Price            Price      `json:"price"`
	Duration         string     `json:"duration"`
	Stops            int        `json:"stops"`
}

// FlightQuery is the search the vendor response answers. Date is YYYY-MM-DD.
type FlightQuery struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Currency    string `json:"currency,omitempty"`
}

const (
	placeholderText    = "N/A"
	placeholderAirline = "Unknown Airline"
	defaultCurrency    = "USD"
)

// ─── Normalization ────────────────────────────────────────────────────────────

// FlightAdapter turns one vendor response shape into Flight records.
// Normalize never fails: absent or mistyped fields degrade to placeholders.
type FlightAdapter interface {
	Name() string
	Match(payload map[string]json.RawMessage) bool
	Normalize(payload map[string]json.RawMessage, q FlightQuery) []Flight
}

var flightAdapters = []FlightAdapter{
	bestFlightsAdapter{},
	flatFlightsAdapter{},
}

// NormalizeFlights picks the first adapter that recognizes the payload. A body
// that is not a JSON object is a malformed response; a recognized-nothing
// object yields no flights.
func NormalizeFlights(body []byte, q FlightQuery) ([]Flight, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVendorResponse, err)
	}

	for _, a := range flightAdapters {
		if a.Match(payload) {
			return a.Normalize(payload, q), nil
		}
	}
	return []Flight{}, nil
}

// bestFlightsAdapter handles the SerpAPI Google Flights shape:
// {best_flights: [{flights: [segment...], price, total_duration, layovers}], other_flights: [...]}.
type bestFlightsAdapter struct{}

type serpItinerary struct {
	Flights       lenientList[serpSegment]     `json:"flights"`
	Price         flexNumber                   `json:"price"`
	TotalDuration flexNumber                   `json:"total_duration"`
	Layovers      lenientList[json.RawMessage] `json:"layovers"`
	AirlineLogo   flexString                   `json:"airline_logo"`
}

type serpSegment struct {
	DepartureAirport flexAirport `json:"departure_airport"`
	ArrivalAirport   flexAirport `json:"arrival_airport"`
	Airline          flexAirline `json:"airline"`
	AirlineLogo      flexString  `json:"airline_logo"`
}

func (bestFlightsAdapter) Name() string { return "best_flights" }

func (bestFlightsAdapter) Match(payload map[string]json.RawMessage) bool {
	_, best := payload["best_flights"]
	_, other := payload["other_flights"]
	return best || other
}

func (bestFlightsAdapter) Normalize(payload map[string]json.RawMessage, q FlightQuery) []Flight {
	var itineraries []serpItinerary
	for _, key := range []string{"best_flights", "other_flights"} {
		var list lenientList[serpItinerary]
		if raw, ok := payload[key]; ok {
			_ = json.Unmarshal(raw, &list)
		}
		itineraries = append(itineraries, list...)
	}

	flights := make([]Flight, 0, len(itineraries))
	for _, it := range itineraries {
		var seg serpSegment
		if len(it.Flights) > 0 {
			seg = it.Flights[0]
		}

		logo := seg.Airline.Logo
		if logo == "" {
			logo = string(seg.AirlineLogo)
		}
		if logo == "" {
			logo = string(it.AirlineLogo)
		}

		duration := placeholderText
		if it.TotalDuration.Valid {
			duration = formatMinutes(int(it.TotalDuration.Value))
		}

		flights = append(flights, Flight{
			DepartureAirport: seg.DepartureAirport.airport(),
			ArrivalAirport:   seg.ArrivalAirport.airport(),
			Departure:        FlightTime{Time: orPlaceholder(seg.DepartureAirport.Time), Date: q.Date},
			Arrival:          FlightTime{Time: orPlaceholder(seg.ArrivalAirport.Time), Date: q.Date},
			Airline:          Airline{Name: orDefault(seg.Airline.Name, placeholderAirline), Logo: logo},
			Price:            Price{Amount: it.Price.amount(), Currency: q.currency()},
			Duration:         duration,
			Stops:            len(it.Layovers),
		})
	}
	return flights
}

// flatFlightsAdapter handles the flattened {flights: [...]} shape where
// prices arrive as display strings such as "$1,234.50".
type flatFlightsAdapter struct{}

type flatFlight struct {
	DepartureAirport flexAirport  `json:"departure_airport"`
	ArrivalAirport   flexAirport  `json:"arrival_airport"`
	DepartureTime    flexString   `json:"departure_time"`
	ArrivalTime      flexString   `json:"arrival_time"`
	Airline          flexAirline  `json:"airline"`
	AirlineLogo      flexString   `json:"airline_logo"`
	Price            flexNumber   `json:"price"`
	Currency         flexString   `json:"currency"`
	Duration         flexDuration `json:"duration"`
	Stops            flexNumber   `json:"stops"`
}

func (flatFlightsAdapter) Name() string { return "flights" }

func (flatFlightsAdapter) Match(payload map[string]json.RawMessage) bool {
	_, ok := payload["flights"]
	return ok
}

func (flatFlightsAdapter) Normalize(payload map[string]json.RawMessage, q FlightQuery) []Flight {
	var list lenientList[flatFlight]
	_ = json.Unmarshal(payload["flights"], &list)

	flights := make([]Flight, 0, len(list))
	for _, f := range list {
		depTime := string(f.DepartureTime)
		if depTime == "" {
			depTime = f.DepartureAirport.Time
		}
		arrTime := string(f.ArrivalTime)
		if arrTime == "" {
			arrTime = f.ArrivalAirport.Time
		}

		logo := f.Airline.Logo
		if logo == "" {
			logo = string(f.AirlineLogo)
		}

		stops := 0
		if f.Stops.Valid && f.Stops.Value > 0 {
			stops = int(f.Stops.Value)
		}

		flights = append(flights, Flight{
			DepartureAirport: f.DepartureAirport.airport(),
			ArrivalAirport:   f.ArrivalAirport.airport(),
			Departure:        FlightTime{Time: orPlaceholder(depTime), Date: q.Date},
			Arrival:          FlightTime{Time: orPlaceholder(arrTime), Date: q.Date},
			Airline:          Airline{Name: orDefault(f.Airline.Name, placeholderAirline), Logo: logo},
			Price:            Price{Amount: f.Price.amount(), Currency: orDefault(string(f.Currency), q.currency())},
			Duration:         orPlaceholder(string(f.Duration)),
			Stops:            stops,
		})
	}
	return flights
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func (q FlightQuery) currency() string {
	return orDefault(q.Currency, defaultCurrency)
}

func formatMinutes(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// ParsePrice keeps only digits and dots before converting, so "$1,234.50"
// reads as 1234.5. Anything unparseable is 0.
func ParsePrice(s string) float64 {
	v, ok := parseNumber(s)
	if !ok {
		return 0
	}
	return finiteNonNegative(v)
}

// parseNumber reports false when no number survives stripping.
func parseNumber(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func finiteNonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func orPlaceholder(s string) string {
	return orDefault(s, placeholderText)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// ─── Lenient JSON ─────────────────────────────────────────────────────────────

func isNull(b []byte) bool {
	return strings.TrimSpace(string(b)) == "null"
}

// The types below never return an error from UnmarshalJSON so one odd field
// cannot sink a whole vendor payload.

// lenientList decodes the elements of a JSON array it can and drops the rest.
// Anything that is not an array decodes as an empty list.
type lenientList[T any] []T

func (l *lenientList[T]) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*l = nil
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

type flexNumber struct {
	Value float64
	Valid bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	*n = flexNumber{}
	if isNull(b) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = flexNumber{Value: f, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if v, ok := parseNumber(s); ok {
		*n = flexNumber{Value: v, Valid: true}
	}
	return nil
}

func (n flexNumber) amount() float64 {
	if !n.Valid {
		return 0
	}
	return finiteNonNegative(n.Value)
}

type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*s = flexString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*s = ""
	return nil
}

// flexDuration accepts either a display string or a number of minutes.
type flexDuration string

func (d *flexDuration) UnmarshalJSON(b []byte) error {
	*d = ""
	if isNull(b) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = flexDuration(formatMinutes(int(f)))
		return nil
	}
	var s flexString
	_ = s.UnmarshalJSON(b)
	*d = flexDuration(s)
	return nil
}

// flexAirport accepts {name, id|code, time} or a bare airport code.
type flexAirport struct {
	Name string
	Code string
	Time string
}

func (a *flexAirport) UnmarshalJSON(b []byte) error {
	*a = flexAirport{}
	var code string
	if err := json.Unmarshal(b, &code); err == nil {
		a.Code = code
		return nil
	}
	var obj struct {
		Name flexString `json:"name"`
		ID   flexString `json:"id"`
		Code flexString `json:"code"`
		Time flexString `json:"time"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil
	}
	a.Name = string(obj.Name)
	a.Code = orDefault(string(obj.ID), string(obj.Code))
	a.Time = string(obj.Time)
	return nil
}

func (a flexAirport) airport() Airport {
	return Airport{Name: orPlaceholder(a.Name), Code: orPlaceholder(a.Code)}
}

// flexAirline accepts {name, logo} or a bare airline name.
type flexAirline struct {
	Name string
	Logo string
}

func (a *flexAirline) UnmarshalJSON(b []byte) error {
	*a = flexAirline{}
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		a.Name = name
		return nil
	}
	var obj struct {
		Name flexString `json:"name"`
		Logo flexString `json:"logo"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil
	}
	a.Name = string(obj.Name)
	a.Logo = string(obj.Logo)
	return nil
}
