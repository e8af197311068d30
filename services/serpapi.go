package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FlightSearcher runs one flight search with the caller's vendor key.
type FlightSearcher interface {
	Search(ctx context.Context, q FlightQuery, apiKey string) ([]Flight, error)
}

type SerpAPIConfig struct {
	BaseURL  string
	RelayURL string
	UseRelay bool
	Currency string
	Timeout  time.Duration
}

// ─── SerpAPI Client ───────────────────────────────────────────────────────────

type SerpAPIClient struct {
	baseURL    string
	relayURL   string
	useRelay   bool
	currency   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSerpAPIClient(cfg SerpAPIConfig, logger *slog.Logger) *SerpAPIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://serpapi.com"
	}
	if cfg.RelayURL == "" {
		cfg.RelayURL = "https://api.allorigins.win/get"
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SerpAPIClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		relayURL: cfg.RelayURL,
		useRelay: cfg.UseRelay,
		currency: cfg.Currency,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// searchURL builds the Google Flights engine query. Airport codes are
// upper-cased; the date is passed through as YYYY-MM-DD.
func (c *SerpAPIClient) searchURL(q FlightQuery, apiKey string) string {
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("departure_id", strings.ToUpper(strings.TrimSpace(q.Source)))
	params.Set("arrival_id", strings.ToUpper(strings.TrimSpace(q.Destination)))
	params.Set("outbound_date", strings.TrimSpace(q.Date))
	params.Set("currency", q.currency())
	params.Set("hl", "en")
	params.Set("type", "2")
	params.Set("api_key", apiKey)

	target := c.baseURL + "/search.json?" + params.Encode()
	if !c.useRelay {
		return target
	}
	return c.relayURL + "?url=" + url.QueryEscape(target)
}

// Search performs a single request. No retries, no caching.
func (c *SerpAPIClient) Search(ctx context.Context, q FlightQuery, apiKey string) ([]Flight, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &FlightSearchError{Kind: &MissingCredentialError{Key: SerpAPIKey}}
	}
	if q.Currency == "" {
		q.Currency = c.currency
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(q, apiKey), nil)
	if err != nil {
		return nil, &FlightSearchError{Kind: ErrNetworkFailure, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FlightSearchError{Kind: ErrNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FlightSearchError{Kind: ErrNetworkFailure, Err: err}
	}

	if c.useRelay && resp.StatusCode == http.StatusOK {
		if body, err = unwrapRelay(body); err != nil {
			return nil, &FlightSearchError{Kind: ErrMalformedVendorResponse, Err: err}
		}
	}

	if msg := vendorErrorMessage(body); resp.StatusCode < 200 || resp.StatusCode >= 300 || msg != "" {
		c.logger.WarnContext(ctx, "SerpAPI search failed",
			slog.Int("status", resp.StatusCode),
			slog.String("vendor_error", msg))
		return nil, &FlightSearchError{
			Kind:    ErrVendorRequestFailed,
			Message: msg,
			Err:     fmt.Errorf("serpapi status %d", resp.StatusCode),
		}
	}

	flights, err := NormalizeFlights(body, q)
	if err != nil {
		return nil, &FlightSearchError{Kind: ErrMalformedVendorResponse, Err: err}
	}

	c.logger.InfoContext(ctx, "SerpAPI search complete",
		slog.String("route", q.Source+"-"+q.Destination),
		slog.Int("flights", len(flights)))
	return flights, nil
}

// unwrapRelay pulls the vendor payload out of the allorigins
// {contents: "<json-string>"} envelope.
func unwrapRelay(body []byte) ([]byte, error) {
	var envelope struct {
		Contents *string `json:"contents"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse relay envelope: %w", err)
	}
	if envelope.Contents == nil {
		return nil, errors.New("relay envelope has no contents")
	}
	return []byte(*envelope.Contents), nil
}

// vendorErrorMessage returns the "error" string SerpAPI puts in failed
// responses, which can arrive with a 200 status.
func vendorErrorMessage(body []byte) string {
	var e struct {
		Error flexString `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return string(e.Error)
}
