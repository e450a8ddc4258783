package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/voyage-finance/voyage-llm-forwarder/tunnel"
)

var (
	tunnelPort   int
	tunnelRegion string
	// newOpener builds the tunnel opener; tests swap in a fake.
	newOpener = func(token, region string) tunnel.Opener {
		return tunnel.NgrokOpener{Token: token, Region: region}
	}
)

var tunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Start the inference server and expose it through a public tunnel",
	Long: "Launches INFERENCE_COMMAND once, opens an ngrok tunnel authenticated with NGROK_TOKEN and " +
		"prints the public URL to use as FASTAPI_ENDPOINT_URL. Runs until interrupted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tunnelPort != 0 {
			cfg.InferencePort = tunnelPort
		}
		region := cfg.TunnelRegion
		if tunnelRegion != "" {
			region = tunnelRegion
		}
		if cfg.TunnelToken == "" {
			return tunnel.ErrMissingToken
		}

		s, err := tunnel.Bootstrap(cmd.Context(), tunnel.Options{
			Command: cfg.InferenceArgs(),
			Port:    cfg.InferencePort,
			Opener:  newOpener(cfg.TunnelToken, region),
			Logger:  logger,
			Stdout:  os.Stdout,
			Stderr:  os.Stderr,
			Out:     cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		return s.Wait(cmd.Context())
	},
}

func init() {
	tunnelCmd.Flags().IntVar(&tunnelPort, "port", 0, "inference server port (default INFERENCE_PORT)")
	tunnelCmd.Flags().StringVar(&tunnelRegion, "region", "", "ngrok region (default NGROK_REGION)")
	rootCmd.AddCommand(tunnelCmd)
}
