package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/services"
)

// GeminiClient wraps the Gemini API behind a circuit breaker and rate
// limiter. It implements services.Generator; a nil *GeminiClient is a
// valid "not configured" collaborator.
type GeminiClient struct {
	apiKey      string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	client      *genai.Client
}

// NewGeminiClient builds the client. An empty API key returns (nil, nil):
// running without a generative collaborator is an expected configuration,
// not an error.
func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name,
				"from", from.String(), "to", to.String())
		},
	})

	// Free tier RPM with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(10*0.9/60.0), 2)

	return &GeminiClient{
		apiKey:      apiKey,
		breaker:     breaker,
		rateLimiter: rateLimiter,
		client:      client,
	}, nil
}

// Available reports whether the collaborator can be called at all. The
// assembler checks this before building a prompt.
func (gc *GeminiClient) Available() bool {
	return gc != nil && gc.client != nil
}

// Generate produces prose from the assembled context. Errors (breaker
// open, timeout, quota) are returned to the caller, which falls back to
// deterministic assembly rather than retrying.
func (gc *GeminiClient) Generate(ctx context.Context, prompt string, style services.AnswerStyle) (string, error) {
	if !gc.Available() {
		return "", errors.New("gemini client not configured")
	}

	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("gemini.prompt_chars", len(prompt)),
		attribute.String("gemini.style", string(style)),
		attribute.String("gemini.model", "gemini-2.0-flash"),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel("gemini-2.0-flash")
		model.SetMaxOutputTokens(1024)
		if style == services.StyleElaborated {
			model.SetTemperature(0.7)
		} else {
			model.SetTemperature(0.3)
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return resp, nil
	})

	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
		}
		return "", err
	}

	text := extractText(result.(*genai.GenerateContentResponse))
	if text == "" {
		return "", errors.New("gemini returned no text candidates")
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return text, nil
}

// extractText flattens the first candidate's text parts.
func extractText(resp *genai.GenerateContentResponse) string {
	total := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				total += string(text)
			}
		}
		if total != "" {
			break
		}
	}
	return total
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc != nil && gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
