package routes

import (
	"github.com/gorilla/mux"
	"github.com/voyage-finance/voyage-llm-forwarder/handler"
	"github.com/voyage-finance/voyage-llm-forwarder/http_server/controllers"
	"go.uber.org/zap"
)

func ChatRoute(router *mux.Router, f *handler.Forwarder, logger *zap.Logger) {
	router.HandleFunc("/chat", controllers.Chat(f, logger)).Methods("POST")
	router.HandleFunc("/chat", controllers.Preflight()).Methods("OPTIONS")
	router.HandleFunc("/healthz", controllers.Health()).Methods("GET")
}
