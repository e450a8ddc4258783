package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/voyage-finance/voyage-llm-forwarder/config"
	"github.com/voyage-finance/voyage-llm-forwarder/handler"
	"github.com/voyage-finance/voyage-llm-forwarder/service"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if _, err := config.Init(""); err != nil {
		logger.Fatal("failed to load env files", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.Info("forwarder configured",
		zap.String("endpoint", cfg.EndpointURL),
		zap.String("model_id", cfg.ModelID),
		zap.Duration("timeout", cfg.Timeout))

	forwarder := handler.NewForwarder(service.New(cfg, logger), logger)
	lambda.Start(forwarder.Handle)
}
