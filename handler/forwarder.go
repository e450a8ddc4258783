// Package handler implements the Lambda entry point that forwards a chat message to the
// generation endpoint and wraps the outcome in the API Gateway response envelope.
package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/voyage-finance/voyage-llm-forwarder/models"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Forwarder relays chat messages to a Generator and wraps the outcome in an envelope.
type Forwarder struct {
	generator Generator
	logger    *zap.Logger
}

// NewForwarder returns a Forwarder that logs through logger.
func NewForwarder(generator Generator, logger *zap.Logger) *Forwarder {
	return &Forwarder{generator: generator, logger: logger}
}

// Handle processes one invocation. It never returns a non-nil error and never panics:
// every failure becomes a 500 envelope.
func (f *Forwarder) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	logger := f.logger.With(zap.String("request_id", requestID(ctx, event)))

	defer func() {
		if r := recover(); r != nil {
			fault := &UnexpectedFault{Value: r}
			logger.Error("lambda execution error",
				zap.String("kind", Kind(fault)),
				zap.Error(fault),
				zap.Stack("stack"))
			resp, err = Failure(fault), nil
		}
	}()

	logger.Info("received event", zap.Any("event", event))

	if claims, ok := Claims(event); ok {
		logger.Info("authenticated user", zap.String("user", claims.Identity()))
	}

	req, perr := ParseChatRequest(event.Body)
	if perr != nil {
		return f.fail(logger, perr), nil
	}
	logger.Info("processing message", zap.String("message", req.Message))

	text, gerr := f.generator.Generate(ctx, req.Message)
	if gerr != nil {
		return f.fail(logger, gerr), nil
	}

	history := slices.Clone(req.ConversationHistory)
	history = append(history,
		models.ConversationTurn{Role: models.RoleUser, Content: req.Message},
		models.ConversationTurn{Role: models.RoleAssistant, Content: text},
	)
	return Success(text, history), nil
}

func (f *Forwarder) fail(logger *zap.Logger, err error) events.APIGatewayProxyResponse {
	logger.Error("lambda execution error",
		zap.String("kind", Kind(err)),
		zap.Error(err),
		zap.Stack("stack"))
	return Failure(err)
}

func requestID(ctx context.Context, event events.APIGatewayProxyRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	if event.RequestContext.RequestID != "" {
		return event.RequestContext.RequestID
	}
	return uuid.NewString()
}
