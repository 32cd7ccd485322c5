package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/docs"
)

var docsListJSON bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Browse imported documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List markdown documents across imports",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		list, err := docs.List(root)
		if err != nil {
			printImportError(err)
			return ErrReported
		}

		if docsListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}

		if len(list) == 0 {
			fmt.Println("No documents found")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IMPORT\tPATH\tTITLE\tSOURCE")
		for _, d := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Import, d.Path, d.Title, d.Source)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsListCmd.Flags().BoolVar(&docsListJSON, "json", false, "print JSON")
}
