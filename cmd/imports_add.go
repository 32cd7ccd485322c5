package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/imports"
)

var (
	addName    string
	addType    string
	addRef     string
	addInclude []string
	addExclude []string
	addLink    bool
	addForce   bool
	addDryRun  bool
	addJSON    bool
)

var importsAddCmd = &cobra.Command{
	Use:   "add <source>",
	Short: "Import an external source into the project",
	Long: `Import a git repository, npm package, or local directory into the
project's managed import directory.

The source type is inferred from the descriptor shape: a git URL or .git
suffix means git, an existing filesystem path means local, and a
package-spec-like string means npm. Use --type to override.

Examples:
  knowns imports add https://github.com/org/docs.git --include 'guides/**'
  knowns imports add @scope/design-tokens --ref 2.1.0
  knowns imports add ../shared-docs --link`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}

		opts := imports.Options{
			Name:    addName,
			Type:    imports.SourceType(addType),
			Ref:     addRef,
			Include: addInclude,
			Exclude: addExclude,
			Link:    addLink,
			Force:   addForce,
			DryRun:  addDryRun,
		}

		result := imports.ImportSource(cmd.Context(), root, args[0], opts)

		if addJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Success {
				return ErrReported
			}
			return nil
		}

		if !result.Success {
			printResultError(result)
			return ErrReported
		}

		adds, updates, skips := result.Counts()
		fmt.Printf("Imported %q from %s (%s)\n", result.Name, result.Source, result.Type)
		printChanges(result.Changes)
		fmt.Printf("%d added, %d updated, %d skipped\n", adds, updates, skips)
		return nil
	},
}

func init() {
	importsCmd.AddCommand(importsAddCmd)
	importsAddCmd.Flags().StringVarP(&addName, "name", "n", "", "import name (default: derived from source)")
	importsAddCmd.Flags().StringVarP(&addType, "type", "t", "", "source type: git, npm, or local (default: inferred)")
	importsAddCmd.Flags().StringVarP(&addRef, "ref", "r", "", "branch, tag, or version to fetch")
	importsAddCmd.Flags().StringSliceVar(&addInclude, "include", nil, "glob patterns to include (default: everything)")
	importsAddCmd.Flags().StringSliceVar(&addExclude, "exclude", nil, "glob patterns to exclude (evaluated after include)")
	importsAddCmd.Flags().BoolVar(&addLink, "link", false, "symlink a local source instead of copying")
	importsAddCmd.Flags().BoolVarP(&addForce, "force", "f", false, "overwrite an existing import with the same name")
	importsAddCmd.Flags().BoolVar(&addDryRun, "dry-run", false, "report changes without writing anything")
	importsAddCmd.Flags().BoolVar(&addJSON, "json", false, "print JSON")
}

func printChanges(changes []imports.FileChange) {
	for _, c := range changes {
		switch c.Action {
		case imports.ActionSkip:
			fmt.Printf("  skip    %s (%s)\n", c.Path, c.SkipReason)
		default:
			fmt.Printf("  %-7s %s\n", c.Action, c.Path)
		}
	}
}
