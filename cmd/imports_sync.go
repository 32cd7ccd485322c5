package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/imports"
)

var (
	syncAll    bool
	syncForce  bool
	syncDryRun bool
	syncJSON   bool
)

var importsSyncCmd = &cobra.Command{
	Use:   "sync [name]",
	Short: "Re-sync one import or all imports",
	Long: `Re-sync imported content from its source. Files you have edited
locally are skipped unless --force; --dry-run reports the change set
without writing anything.

A failure in one import does not abort an --all batch; each import
reports its own outcome.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		if syncAll == (len(args) == 1) {
			return errors.New("provide an import name or --all, not both")
		}

		opts := imports.Options{Force: syncForce, DryRun: syncDryRun}

		var results []imports.ImportResult
		if syncAll {
			results, err = imports.SyncAllImports(cmd.Context(), root, opts)
			if err != nil {
				printImportError(err)
				return ErrReported
			}
		} else {
			results = []imports.ImportResult{imports.SyncImport(cmd.Context(), root, args[0], opts)}
		}

		if syncJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
			if anyFailed(results) {
				return ErrReported
			}
			return nil
		}

		succeeded, failed := 0, 0
		for _, res := range results {
			if res.Success {
				succeeded++
				adds, updates, skips := res.Counts()
				label := "Synced"
				if syncDryRun {
					label = "Would sync"
				}
				fmt.Printf("%s %q: %d added, %d updated, %d skipped\n", label, res.Name, adds, updates, skips)
				printChanges(res.Changes)
			} else {
				failed++
				fmt.Printf("Failed %q: %s\n", res.Name, res.Error)
				if res.Hint != "" {
					fmt.Printf("  hint: %s\n", res.Hint)
				}
			}
		}
		if syncAll {
			fmt.Printf("%d succeeded, %d failed\n", succeeded, failed)
		}
		if failed > 0 {
			return ErrReported
		}
		return nil
	},
}

func init() {
	importsCmd.AddCommand(importsSyncCmd)
	importsSyncCmd.Flags().BoolVarP(&syncAll, "all", "a", false, "sync every configured import")
	importsSyncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "overwrite local modifications")
	importsSyncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report changes without writing anything")
	importsSyncCmd.Flags().BoolVar(&syncJSON, "json", false, "print JSON")
}

func anyFailed(results []imports.ImportResult) bool {
	for _, res := range results {
		if !res.Success {
			return true
		}
	}
	return false
}
