package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/azlog-io/azlog/internal/config"
	"github.com/azlog-io/azlog/internal/engine"
	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/naming"
	"github.com/azlog-io/azlog/internal/state"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// loadAll reads the parameters file and the schema directory and builds the
// run context plus the phase-ordered declaration list.
func loadAll(configPath, schemaDir string) (*config.Config, *ir.RunContext, []*ir.ResourceDeclaration, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	var schemas []*config.TableSchema
	if schemaDir != "" {
		schemas, err = config.LoadSchemaDir(schemaDir)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	run, decls, err := config.Build(cfg, schemas)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, run, engine.SortDeclarations(decls), nil
}

// ledgerBackend picks the configured ledger backend, defaulting to a local
// file next to the parameters file.
func ledgerBackend(cfg *config.Config, configPath string) (state.Backend, error) {
	defaultPath := filepath.Join(filepath.Dir(configPath), ".azlog", "ledger.json")
	return state.NewBackend(cfg.Ledger, defaultPath)
}

// nameOverrides maps declarations to names recorded by a previous run. A
// recorded name wins over a freshly built one so uniqueness suffixes
// survive; a trailing location suffix is rewritten if the run moved
// regions, while custom suffixes are kept as the user wrote them.
func nameOverrides(ledger *state.Ledger, run *ir.RunContext, decls []*ir.ResourceDeclaration) map[string]string {
	overrides := make(map[string]string)
	for _, decl := range decls {
		entry := ledger.Find(decl.Type, decl.BaseName)
		if entry == nil || entry.Name == "" {
			continue
		}
		overrides[decl.Address()] = naming.ReplaceLocationSuffix(entry.Name, run.Location, decl.Naming)
	}
	return overrides
}

// renderEvent prints per-resource progress as the orchestrator works.
func renderEvent(e engine.Event) {
	switch e.Status {
	case "started":
		fmt.Printf("%s%-8s%s %s ...\n", colorCyan, e.Action, colorReset, e.Address)
	case "completed":
		fmt.Printf("%s%-8s%s %s (%s)\n", colorGreen, orDone(e.Action), colorReset, e.Address, e.Duration.Round(time.Millisecond))
	case "failed":
		fmt.Printf("%s%-8s%s %s: %v\n", colorRed, "FAILED", colorReset, e.Address, e.Err)
	case "skipped":
		fmt.Printf("%-8s %s\n", "skipped", e.Address)
	}
}

func orDone(action string) string {
	if action == "" {
		return "done"
	}
	return action
}

// renderDecision prints one planned action in the plan output.
func renderDecision(decl *ir.ResourceDeclaration, name string, decision *ir.Decision) {
	symbol, color := "  ", colorReset
	switch decision.Action {
	case ir.ActionCreate:
		symbol, color = "+ ", colorGreen
	case ir.ActionUpdate:
		symbol, color = "~ ", colorYellow
	case ir.ActionConflict:
		symbol, color = "! ", colorRed
	}

	fmt.Printf("%s%s%-22s %-32s %s%s\n", color, symbol, decl.Address(), name, decision.Action, colorReset)
	if decision.Reason != "" {
		fmt.Printf("%s      %s%s\n", color, decision.Reason, colorReset)
	}
	for k, v := range decision.Diff {
		fmt.Printf("%s      ~ %s = %v%s\n", colorYellow, k, v, colorReset)
	}
}

// renderSummary prints the final per-run accounting.
func renderSummary(summary *ir.DeploymentSummary) {
	fmt.Println("\nDeployment Summary:")
	fmt.Printf("  Declared: %d\n", summary.TotalDeclared)
	fmt.Printf("  %sCreated:  %d%s\n", colorGreen, summary.Created, colorReset)
	fmt.Printf("  Existed:  %d\n", summary.Existed)
	fmt.Printf("  %sUpdated:  %d%s\n", colorYellow, summary.Updated, colorReset)
	fmt.Printf("  %sFailed:   %d%s\n", colorRed, summary.Failed, colorReset)
	fmt.Printf("  Skipped:  %d\n", summary.Skipped)

	if len(summary.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range summary.Errors {
			fmt.Printf("  %s%s: %s%s\n", colorRed, e.Resource, e.Message, colorReset)
		}
	}
}
