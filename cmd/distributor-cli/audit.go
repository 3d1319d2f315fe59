package main

import (
	"github.com/spf13/cobra"

	"github.com/code-payments/distributor-client/pkg/allocation"
	"github.com/code-payments/distributor-client/pkg/reconcile"
)

func (e *environment) auditCommand() *cobra.Command {
	var (
		csvPath  string
		decimals int32
		treePath string
	)

	cmd := &cobra.Command{
		Use:   "check-api-returns-all-keys",
		Short: "Verify the allocation API against the CSV export and the merkle tree files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := allocation.ReadCSVFile(csvPath, decimals)
			if err != nil {
				return err
			}

			// A nil *TreeIndex must not reach the engine as a non-nil interface.
			var tree reconcile.TreeLookup
			if len(treePath) > 0 {
				index, err := allocation.ReadTreeDirectory(treePath)
				if err != nil {
					return err
				}
				tree = index
			}

			apiClient, err := e.apiClient()
			if err != nil {
				return err
			}

			engine := reconcile.NewEngine(apiClient, e.engineOptions()...)
			if _, err := engine.Run(cmd.Context(), entries, tree); err != nil {
				return err
			}

			e.printf("Verification succesfully completed!\n\nAPI data returned fully matches CSV data and MERKLE_TREE data!\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv-path", "", "CSV export with pubkey and amount columns")
	cmd.Flags().Int32Var(&decimals, "decimals-in-csv", 0, "decimal places of the CSV amounts")
	cmd.Flags().StringVar(&treePath, "merkle-tree-path", "", "directory of merkle tree files")
	_ = cmd.MarkFlagRequired("csv-path")
	_ = cmd.MarkFlagRequired("decimals-in-csv")

	return cmd
}

func (e *environment) engineOptions() []reconcile.Option {
	opts := []reconcile.Option{
		reconcile.WithProgress(func(first, last int) {
			e.printf("Checking users [%d, %d]\n", first, last)
		}),
	}
	return append(opts, e.engineTuning...)
}
