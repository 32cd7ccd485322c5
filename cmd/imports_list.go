package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/imports"
)

var importsListJSON bool

var importsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured imports",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		entries, err := imports.GetImportsWithMetadata(root)
		if err != nil {
			printImportError(err)
			return ErrReported
		}

		// Local-first ordering is a presentation choice, applied here
		// rather than guaranteed by the registry.
		sort.SliceStable(entries, func(i, j int) bool {
			li := entries[i].Config.Type == imports.SourceLocal
			lj := entries[j].Config.Type == imports.SourceLocal
			if li != lj {
				return li
			}
			return entries[i].Config.Name < entries[j].Config.Name
		})

		if importsListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			fmt.Println("No imports configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tSOURCE\tFILES\tLAST SYNC")
		for _, e := range entries {
			files := "-"
			lastSync := "never"
			if e.Metadata != nil {
				if !e.Config.Link {
					files = fmt.Sprintf("%d", len(e.Metadata.Files))
				} else {
					files = "linked"
				}
				lastSync = e.Metadata.LastSync.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Config.Name, e.Config.Type, e.Config.Source, files, lastSync)
		}
		return w.Flush()
	},
}

func init() {
	importsCmd.AddCommand(importsListCmd)
	importsListCmd.Flags().BoolVar(&importsListJSON, "json", false, "print JSON")
}
