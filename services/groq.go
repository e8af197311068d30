package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type GroqConfig struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// ─── Groq ─────────────────────────────────────────────────────────────────────

// GroqGenerator talks to Groq's OpenAI-compatible chat completions endpoint.
type GroqGenerator struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewGroqGenerator(cfg GroqConfig, logger *slog.Logger) *GroqGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GroqGenerator{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (g *GroqGenerator) Name() string    { return "groq" }
func (g *GroqGenerator) KeyName() string { return GroqAPIKey }

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type groqResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *GroqGenerator) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", &GenerationError{Vendor: g.Name(), Kind: &MissingCredentialError{Key: GroqAPIKey}}
	}

	jsonBody, err := json.Marshal(groqRequest{
		Model:       g.model,
		Messages:    []groqMessage{{Role: "user", Content: prompt}},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrNetworkFailure, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/openai/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrNetworkFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrNetworkFailure, Err: err}
	}

	var parsed groqResponse
	parseErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := ""
		if parseErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		g.logger.WarnContext(ctx, "Groq request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("vendor_error", msg))
		return "", &GenerationError{
			Vendor:  g.Name(),
			Kind:    ErrVendorRequestFailed,
			Message: msg,
			Err:     fmt.Errorf("groq status %d", resp.StatusCode),
		}
	}

	if parseErr != nil {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrMalformedVendorResponse, Err: parseErr}
	}
	if len(parsed.Choices) == 0 {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrMalformedVendorResponse, Message: "response has no choices"}
	}

	return parsed.Choices[0].Message.Content, nil
}
