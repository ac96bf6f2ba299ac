package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Inspect the embedding gateway",
}

var gatewayPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the embedding gateway is reachable",
	Args:  cobra.NoArgs,
	RunE:  runGatewayPing,
}

func init() {
	gatewayCmd.AddCommand(gatewayPingCmd)
	rootCmd.AddCommand(gatewayCmd)
}

func runGatewayPing(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		gw := rt.Gateway()
		if err := gw.Ping(ctx); err != nil {
			return fmt.Errorf("gateway at %s: %w", rt.App.Gateway.BaseURL, err)
		}
		cmd.Printf("Gateway at %s is healthy\n", rt.App.Gateway.BaseURL)
		cmd.Printf("  Model: %s\n", gw.ModelName())
		cmd.Printf("  Dimensions: %d\n", gw.Dimensions())
		return nil
	})
}
