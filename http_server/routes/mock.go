package routes

import (
	"github.com/gorilla/mux"
	"github.com/voyage-finance/voyage-llm-forwarder/http_server/controllers"
	"go.uber.org/zap"
)

func MockRoute(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/generate", controllers.MockGenerate(logger)).Methods("POST")
	router.HandleFunc("/healthz", controllers.Health()).Methods("GET")
}
