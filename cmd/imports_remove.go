package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/imports"
)

var (
	removeDeleteFiles bool
	removeYes         bool
	removeJSON        bool
)

var importsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an import by name",
	Long: `Remove an import's registry entry. With --delete-files the
materialized content is deleted too; symlinked imports are unlinked
rather than recursively deleted, so the original local source survives.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		name := strings.TrimSpace(args[0])

		// refuse to prompt on non-tty unless -y
		if !removeYes && !removeJSON {
			if !interactiveStdin(os.Stdin) {
				return errors.New("refusing to prompt on non-interactive stdin; use -y to confirm")
			}
			fmt.Printf("Remove import %q? [y/N]: ", name)
			reader := bufio.NewReader(os.Stdin)
			ans, _ := reader.ReadString('\n')
			ans = strings.ToLower(strings.TrimSpace(ans))
			if ans != "y" && ans != "yes" {
				fmt.Println("aborted")
				return nil
			}
		}

		deleted, err := imports.RemoveImport(root, name, removeDeleteFiles)
		if err != nil {
			printImportError(err)
			return ErrReported
		}

		if removeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"deleted": deleted, "name": name})
		}
		fmt.Println("Removed", name)
		if !removeDeleteFiles {
			fmt.Println("Materialized files were kept; re-run with --delete-files to remove them")
		}
		return nil
	},
}

func init() {
	importsCmd.AddCommand(importsRemoveCmd)
	importsRemoveCmd.Flags().BoolVar(&removeDeleteFiles, "delete-files", false, "also delete materialized content")
	importsRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "assume yes")
	importsRemoveCmd.Flags().BoolVar(&removeJSON, "json", false, "print JSON")
}
