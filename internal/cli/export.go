package cli

import (
	"fmt"

	"github.com/azlog-io/azlog/internal/config"
	"github.com/azlog-io/azlog/internal/cribl"
	"github.com/spf13/cobra"
)

var exportOutDir string

var exportCmd = &cobra.Command{
	Use:   "export <params.json>",
	Short: "Render Cribl destination and collector config from the ledger",
	Long: `Export reads the deployment ledger written by a previous deploy and
renders Cribl Stream destination and collector JSON for the resolved
resources. It makes no cloud calls and can run long after the deployment.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOutDir, "out", "", "Output directory (default: outputDir from config, else ./cribl)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	backend, err := ledgerBackend(cfg, args[0])
	if err != nil {
		return err
	}
	ledger, err := backend.Read(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	if len(ledger.Entries) == 0 {
		return fmt.Errorf("ledger is empty; run deploy first")
	}

	outDir := exportOutDir
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if outDir == "" {
		outDir = "cribl"
	}

	written, err := cribl.NewExporter(outDir).Export(ledger)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Printf("%swrote%s %s\n", colorGreen, colorReset, path)
	}
	fmt.Printf("Exported %d file(s) to %s\n", len(written), outDir)
	return nil
}
