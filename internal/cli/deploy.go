package cli

import (
	"fmt"
	"time"

	"github.com/azlog-io/azlog/internal/engine"
	"github.com/azlog-io/azlog/internal/provider"
	"github.com/spf13/cobra"

	// Linked-in providers register themselves on import.
	_ "github.com/azlog-io/azlog/providers/azure"
	_ "github.com/azlog-io/azlog/providers/null"
)

var (
	deploySchemaDir   string
	deploySkip        bool
	deployAbort       bool
	deployDryRun      bool
	deployAutoApprove bool
	deployTimeout     time.Duration
)

var deployCmd = &cobra.Command{
	Use:   "deploy <params.json>",
	Short: "Reconcile and deploy the declared Azure resources",
	Long: `Deploy observes every declared resource, decides whether it needs to be
created or updated, and applies the changes in dependency order. Failures
are collected and reported at the end; the run continues past them unless
--abort-on-failure is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVar(&deploySchemaDir, "schema-dir", "", "Directory of per-table schema JSON files")
	deployCmd.Flags().BoolVar(&deploySkip, "skip-existing", false, "Adopt existing resources and apply additive updates instead of failing")
	deployCmd.Flags().BoolVar(&deployAbort, "abort-on-failure", false, "Stop after the first failed resource")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Run against the in-memory provider; no cloud calls")
	deployCmd.Flags().BoolVar(&deployAutoApprove, "auto-approve", false, "Skip interactive confirmation")
	deployCmd.Flags().DurationVar(&deployTimeout, "timeout", 0, "Per-resource operation timeout (default 45m)")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cfg, run, decls, err := loadAll(args[0], deploySchemaDir)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("skip-existing") {
		run.SkipExisting = deploySkip
	}
	if cmd.Flags().Changed("abort-on-failure") {
		run.AbortOnFailure = deployAbort
	}
	if cmd.Flags().Changed("timeout") {
		run.Timeout = deployTimeout
	}

	backend, err := ledgerBackend(cfg, args[0])
	if err != nil {
		return err
	}
	if err := backend.Lock(); err != nil {
		return err
	}
	defer backend.Unlock()

	ctx := cmd.Context()
	ledger, err := backend.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	providerName := "azure"
	if deployDryRun {
		providerName = "null"
	}
	prov, err := provider.NewRegistry().Load(providerName)
	if err != nil {
		return err
	}

	fmt.Printf("Deploying %d resource(s) to resource group %s (%s)\n", len(decls), run.ResourceGroup, run.Location)
	if !deployAutoApprove && !deployDryRun {
		fmt.Print("\nDo you want to continue? (y/n): ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "yes" {
			fmt.Println("Deploy cancelled.")
			return nil
		}
	}

	orch := engine.New(prov)
	orch.Callback = renderEvent
	orch.Overrides = nameOverrides(ledger, run, decls)

	summary, runErr := orch.Run(ctx, run, decls)

	// Persist what succeeded even when the run aborted: partial progress
	// is still progress the next run can pick up.
	ledger.RecordSummary(summary)
	if werr := backend.Write(ctx, ledger); werr != nil {
		return fmt.Errorf("failed to write ledger: %w", werr)
	}

	renderSummary(summary)

	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("deployment finished with %d failure(s)", summary.Failed)
	}
	return nil
}
