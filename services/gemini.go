package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// TextGenerator is a single-shot completion vendor. KeyName is the
// credential the vendor needs.
type TextGenerator interface {
	Name() string
	KeyName() string
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

type GeminiConfig struct {
	BaseURL    string
	APIVersion string
	Model      string
	Timeout    time.Duration
}

// ─── Gemini ───────────────────────────────────────────────────────────────────

type GeminiGenerator struct {
	baseURL    string
	apiVersion string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGeminiGenerator(cfg GeminiConfig, logger *slog.Logger) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiGenerator{
		baseURL:    cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		model:      cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (g *GeminiGenerator) Name() string    { return "gemini" }
func (g *GeminiGenerator) KeyName() string { return GeminiAPIKey }

// Generate returns the first candidate's first text part verbatim. The key is
// user-supplied per call, so a client is built per request.
func (g *GeminiGenerator) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", &GenerationError{Vendor: g.Name(), Kind: &MissingCredentialError{Key: GeminiAPIKey}}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    g.baseURL,
			APIVersion: g.apiVersion,
		},
	})
	if err != nil {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrNetworkFailure, Err: err}
	}

	result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.logger.WarnContext(ctx, "Gemini request failed",
				slog.Int("status", apiErr.Code),
				slog.String("vendor_error", apiErr.Message))
			return "", &GenerationError{Vendor: g.Name(), Kind: ErrVendorRequestFailed, Message: apiErr.Message, Err: err}
		}
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrNetworkFailure, Err: err}
	}

	if len(result.Candidates) == 0 || result.Candidates[0] == nil ||
		result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 ||
		result.Candidates[0].Content.Parts[0] == nil {
		return "", &GenerationError{Vendor: g.Name(), Kind: ErrMalformedVendorResponse, Message: "response has no candidates"}
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
