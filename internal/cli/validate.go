package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateSchemaDir string

var validateCmd = &cobra.Command{
	Use:   "validate <params.json>",
	Short: "Validate configuration without touching the cloud",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, run, decls, err := loadAll(args[0], validateSchemaDir)
		if err != nil {
			return err
		}
		fmt.Printf("%sOK%s %d declaration(s) for resource group %s (%s)\n",
			colorGreen, colorReset, len(decls), run.ResourceGroup, run.Location)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSchemaDir, "schema-dir", "", "Directory of per-table schema JSON files")
}
