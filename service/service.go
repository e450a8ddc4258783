package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
	"github.com/voyage-finance/voyage-llm-forwarder/config"
	"github.com/voyage-finance/voyage-llm-forwarder/models"
	"go.uber.org/zap"
)

const maxRawDetail = 200

// GenerationParams are the fixed sampling parameters sent with every prompt.
type GenerationParams struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

type Service struct {
	Client      *resty.Client
	Logger      *zap.Logger
	EndpointURL string
	Params      GenerationParams
}

// New builds a Service with one resty client shared by every invocation.
func New(cfg *config.Config, logger *zap.Logger) *Service {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetLogger(logger.Sugar())
	return &Service{
		Client:      client,
		Logger:      logger,
		EndpointURL: cfg.EndpointURL,
		Params: GenerationParams{
			MaxNewTokens: cfg.MaxNewTokens,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
		},
	}
}

func (s *Service) NewGenerationRequest(prompt string) models.GenerationRequest {
	return models.GenerationRequest{
		Prompt:       prompt,
		MaxNewTokens: s.Params.MaxNewTokens,
		Temperature:  s.Params.Temperature,
		TopP:         s.Params.TopP,
	}
}

// Generate posts prompt to the generation endpoint and returns the generated text.
// Failures are *RemoteServiceError or *RemoteProtocolError.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(s.NewGenerationRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	s.Logger.Info("sending request to generation endpoint",
		zap.String("url", s.EndpointURL),
		zap.ByteString("payload", payload))

	resp, err := s.Client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.EndpointURL)
	if err != nil {
		s.Logger.Error("error connecting to generation endpoint", zap.Error(err))
		return "", &RemoteServiceError{Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		detail := errorDetail(resp)
		s.Logger.Error("generation endpoint returned an error",
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("body", body),
			zap.String("detail", detail))
		return "", &RemoteServiceError{
			StatusCode: resp.StatusCode(),
			Detail:     detail,
			Err:        fmt.Errorf("status %s", resp.Status()),
		}
	}

	s.Logger.Info("generation endpoint response",
		zap.ByteString("body", body),
		zap.String("size", humanize.Bytes(uint64(len(body)))),
		zap.Duration("elapsed", resp.Time()))

	var result models.GenerationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &RemoteProtocolError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if result.GeneratedText == "" {
		s.Logger.Error("generated_text not found in generation endpoint response")
		return "", &RemoteProtocolError{}
	}
	return result.GeneratedText, nil
}

// errorDetail picks the most specific message from a non-200 response:
// the detail field, then the raw body, then the status line.
func errorDetail(resp *resty.Response) string {
	body := resp.Body()

	var ed models.ErrorDetail
	if err := json.Unmarshal(body, &ed); err == nil && len(ed.Detail) > 0 && string(ed.Detail) != "null" {
		var s string
		if err := json.Unmarshal(ed.Detail, &s); err == nil {
			if s != "" {
				return s
			}
		} else {
			var buf bytes.Buffer
			if err := json.Compact(&buf, ed.Detail); err == nil {
				return buf.String()
			}
		}
	}

	if raw := strings.TrimSpace(string(body)); raw != "" {
		if r := []rune(raw); len(r) > maxRawDetail {
			return string(r[:maxRawDetail]) + "..."
		}
		return raw
	}
	if status := resp.Status(); status != "" {
		return status
	}
	return fmt.Sprintf("status %d", resp.StatusCode())
}
