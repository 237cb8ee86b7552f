package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"
)

// Generator is the generative content gateway: a prompt in, free-form text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// contentModel is the part of *genai.Models the gateway uses.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	models contentModel
	model  string
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{models: client.Models, model: cfg.Model}, nil
}

// Generate returns the reply text as the model produced it, empty included.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

// UnavailableGenerator stands in when no model is configured; every call fails.
type UnavailableGenerator struct {
	Reason string
}

func (u UnavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", errors.New(u.Reason)
}

// LimitedGenerator bounds how long a generation may take and how many run at
// once. Zero values disable the respective limit.
type LimitedGenerator struct {
	inner   Generator
	timeout time.Duration
	slots   *semaphore.Weighted
	logger  *zap.Logger
}

func NewLimitedGenerator(inner Generator, maxConcurrent int, timeout time.Duration, logger *zap.Logger) *LimitedGenerator {
	lg := &LimitedGenerator{inner: inner, timeout: timeout, logger: logger}
	if maxConcurrent > 0 {
		lg.slots = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return lg
}

func (g *LimitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if g.slots != nil {
		if err := g.slots.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("waiting for a generation slot: %w", err)
		}
		defer g.slots.Release(1)
	}

	start := time.Now()
	text, err := g.inner.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("generation failed",
			zap.Int("prompt_chars", len(prompt)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}
	g.logger.Debug("generation completed",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return text, nil
}
