package cli

import (
	"context"
	"fmt"

	"github.com/azlog-io/azlog/internal/engine"
	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/naming"
	"github.com/azlog-io/azlog/internal/provider"
	"github.com/azlog-io/azlog/internal/reconcile"
	"github.com/spf13/cobra"
)

var (
	planSchemaDir string
	planDryRun    bool
)

var planCmd = &cobra.Command{
	Use:   "plan <params.json>",
	Short: "Show what deploy would do, without applying anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planSchemaDir, "schema-dir", "", "Directory of per-table schema JSON files")
	planCmd.Flags().BoolVar(&planDryRun, "dry-run", false, "Observe against the in-memory provider; no cloud calls")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, run, decls, err := loadAll(args[0], planSchemaDir)
	if err != nil {
		return err
	}

	backend, err := ledgerBackend(cfg, args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	ledger, err := backend.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	overrides := nameOverrides(ledger, run, decls)

	providerName := "azure"
	if planDryRun {
		providerName = "null"
	}
	prov, err := provider.NewRegistry().Load(providerName)
	if err != nil {
		return err
	}

	counts, err := planAgainst(ctx, prov, run, decls, overrides)
	if err != nil {
		return err
	}

	fmt.Printf("\nPlan: %d to create, %d to update, %d in sync, %d conflict(s).\n",
		counts.creates, counts.updates, counts.noops, counts.conflicts)
	if counts.conflicts > 0 {
		return fmt.Errorf("%d resource(s) conflict; rerun with --skip-existing to adopt them", counts.conflicts)
	}
	return nil
}

type planCounts struct {
	creates, updates, noops, conflicts int
}

// planAgainst observes every declaration and renders the decision deploy
// would make. It is strictly read-only: the foundation is checked, never
// created, and an absent resource group means nothing inside it exists, so
// every declaration plans as a create without touching the cloud further.
func planAgainst(ctx context.Context, prov provider.Interface, run *ir.RunContext, decls []*ir.ResourceDeclaration, overrides map[string]string) (planCounts, error) {
	var counts planCounts

	exists, err := prov.CheckFoundation(ctx, run)
	if err != nil {
		return counts, fmt.Errorf("foundation check failed: %w", err)
	}
	if !exists {
		fmt.Printf("%s+ %-22s %-32s %s%s\n", colorGreen, "resourceGroup", run.ResourceGroup, ir.ActionCreate, colorReset)
	}

	for _, decl := range decls {
		name := overrides[decl.Address()]
		if name == "" {
			candidate, err := naming.BuildName(decl.BaseName, decl.Location, decl.Naming)
			if err != nil {
				return counts, err
			}
			name = candidate.Value
		}

		observed := &ir.ObservedState{Exists: false}
		if exists {
			opCtx, cancel := engine.WithTimeout(ctx, run.Timeout)
			observed, err = prov.Get(opCtx, run, decl, name)
			cancel()
			if err != nil {
				return counts, fmt.Errorf("failed to observe %s: %w", decl.Address(), err)
			}
		}

		decision := reconcile.Reconcile(decl, observed, run.SkipExisting)
		renderDecision(decl, name, decision)
		switch decision.Action {
		case ir.ActionCreate:
			counts.creates++
		case ir.ActionUpdate:
			counts.updates++
		case ir.ActionConflict:
			counts.conflicts++
		default:
			counts.noops++
		}
	}
	return counts, nil
}
