package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/voyage-finance/voyage-llm-forwarder/handler"
	"go.uber.org/zap"
)

// MaxRequestBodyBytes matches the API Gateway payload limit.
const MaxRequestBodyBytes = 10 * 1024 * 1024

// ClaimsHeader lets local callers simulate an authorizer by sending claims as JSON.
const ClaimsHeader = "X-Forwarder-Claims"

// Chat serves the forwarder over plain HTTP, producing the same envelope as the Lambda.
func Chat(f *handler.Forwarder, logger *zap.Logger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodyBytes+1))
		if err != nil {
			logger.Error("failed to read request body", zap.Error(err))
			WriteEnvelope(rw, handler.Failure(&handler.BadInputError{Reason: "read body: " + err.Error()}))
			return
		}
		if len(body) > MaxRequestBodyBytes {
			WriteEnvelope(rw, handler.Failure(&handler.BadInputError{Reason: "request body too large"}))
			return
		}

		resp, _ := f.Handle(r.Context(), ToEvent(r, body, logger))
		WriteEnvelope(rw, resp)
	}
}

// Preflight answers CORS preflight requests the way API Gateway would.
func Preflight() http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		for k, v := range handler.Headers() {
			rw.Header().Set(k, v)
		}
		rw.WriteHeader(http.StatusOK)
	}
}

func Health() http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ToEvent converts an HTTP request into the API Gateway proxy event the Lambda receives.
func ToEvent(r *http.Request, body []byte, logger *zap.Logger) events.APIGatewayProxyRequest {
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	query := make(map[string]string, len(r.URL.Query()))
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	event := events.APIGatewayProxyRequest{
		Resource:              r.URL.Path,
		Path:                  r.URL.Path,
		HTTPMethod:            r.Method,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  uuid.NewString(),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
			Identity:   events.APIGatewayRequestIdentity{SourceIP: r.RemoteAddr},
		},
	}

	if raw := r.Header.Get(ClaimsHeader); raw != "" {
		var claims map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &claims); err != nil {
			logger.Warn("ignoring malformed claims header", zap.Error(err))
		} else {
			event.RequestContext.Authorizer = map[string]interface{}{"claims": claims}
		}
	}
	return event
}
