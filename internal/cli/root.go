package cli

import (
	"github.com/azlog-io/azlog/internal/logging"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "azlog",
	Short: "Azure observability provisioning for Cribl Stream",
	Long: `azlog provisions the Azure resources a Cribl Stream deployment ingests
from and writes to: Log Analytics custom tables, data collection rules and
endpoints, storage accounts, virtual networks, flow logs, VPN gateways. It
reconciles declared configuration against what already exists and emits
Cribl destination/collector configuration for the resolved resources.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}
