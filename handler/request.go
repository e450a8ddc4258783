package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/thedevsaddam/govalidator"
	"github.com/voyage-finance/voyage-llm-forwarder/models"
)

var chatRules = govalidator.MapData{
	"message": []string{"required"},
}

// ParseChatRequest decodes and validates the JSON document carried in an event body.
func ParseChatRequest(body string) (*models.ChatRequest, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &BadInputError{Reason: "request body is missing"}
	}

	if !json.Valid([]byte(body)) {
		return nil, &BadInputError{Reason: "malformed JSON body"}
	}
	// Keys are matched exactly; the typed decode below folds case.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, &BadInputError{Reason: "request body must be a JSON object"}
	}
	if _, ok := fields["message"]; !ok {
		return nil, &BadInputError{Reason: "The message field is required"}
	}

	r, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return nil, &BadInputError{Reason: err.Error()}
	}
	r.Header.Set("Content-Type", "application/json")

	var req models.ChatRequest
	opts := govalidator.Options{
		Request: r,
		Data:    &req,
		Rules:   chatRules,
	}
	if e := govalidator.New(opts).ValidateJSON(); len(e) != 0 {
		return nil, &BadInputError{Reason: formatValidation(e)}
	}

	req.Message, req.ConversationHistory = "", nil
	if err := json.Unmarshal(fields["message"], &req.Message); err != nil || req.Message == "" {
		return nil, &BadInputError{Reason: "The message field is required"}
	}
	if raw, ok := fields["conversationHistory"]; ok {
		if err := json.Unmarshal(raw, &req.ConversationHistory); err != nil {
			return nil, &BadInputError{Reason: "conversationHistory: " + err.Error()}
		}
	}

	for i, turn := range req.ConversationHistory {
		if turn.Role == "" {
			return nil, &BadInputError{Reason: fmt.Sprintf("conversationHistory[%d]: role is required", i)}
		}
	}
	return &req, nil
}

// Claims returns the authorizer claims attached to the event, if any.
func Claims(event events.APIGatewayProxyRequest) (models.Claims, bool) {
	raw, ok := event.RequestContext.Authorizer["claims"]
	if !ok {
		return nil, false
	}
	claims, ok := raw.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return models.Claims(claims), true
}

func formatValidation(e map[string][]string) string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(e[k], ", ")
		if k == "_error" {
			parts = append(parts, "malformed JSON body: "+msg)
			continue
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}
