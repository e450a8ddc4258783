package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/thedevsaddam/govalidator"
	"github.com/voyage-finance/voyage-llm-forwarder/models"
	"go.uber.org/zap"
)

// MockGenerate imitates the generation endpoint so the forwarder can run without a model.
func MockGenerate(logger *zap.Logger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req models.GenerationRequest
		rules := govalidator.MapData{
			"prompt": []string{"required"},
		}
		opts := govalidator.Options{
			Request: r,
			Data:    &req,
			Rules:   rules,
		}
		if e := govalidator.New(opts).ValidateJSON(); len(e) != 0 {
			writeJSON(rw, http.StatusUnprocessableEntity, map[string]interface{}{"detail": e})
			return
		}

		logger.Info("mock generation", zap.String("prompt", req.Prompt), zap.Int("max_new_tokens", req.MaxNewTokens))
		writeJSON(rw, http.StatusOK, models.GenerationResult{GeneratedText: mockReply(req.Prompt)})
	}
}

func mockReply(prompt string) string {
	return fmt.Sprintf("[mock] %s", strings.TrimSpace(prompt))
}
