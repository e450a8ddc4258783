package cmd

import (
	"net"

	"github.com/spf13/cobra"
	"github.com/voyage-finance/voyage-llm-forwarder/handler"
	"github.com/voyage-finance/voyage-llm-forwarder/http_server"
	"github.com/voyage-finance/voyage-llm-forwarder/service"
	"go.uber.org/zap"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the forwarder over HTTP at POST /chat",
	RunE: func(cmd *cobra.Command, _ []string) error {
		port := cfg.HTTPPort
		if servePort != "" {
			port = servePort
		}
		l, err := net.Listen("tcp", net.JoinHostPort("", port))
		if err != nil {
			return err
		}
		logger.Info("forwarding to generation endpoint",
			zap.String("endpoint", cfg.EndpointURL),
			zap.String("model_id", cfg.ModelID))

		f := handler.NewForwarder(service.New(cfg, logger), logger)
		return http_server.Serve(cmd.Context(), l, http_server.NewRouter(f, logger), logger)
	},
}

var mockPort string

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a stand-in generation endpoint at POST /generate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := net.Listen("tcp", net.JoinHostPort("", mockPort))
		if err != nil {
			return err
		}
		return http_server.Serve(cmd.Context(), l, http_server.NewMockRouter(logger), logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default HTTP_SERVER_PORT)")
	mockCmd.Flags().StringVar(&mockPort, "port", "8000", "listen port")
	rootCmd.AddCommand(serveCmd, mockCmd)
}
