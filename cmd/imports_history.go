package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/history"
	"github.com/knowns/knowns/internal/paths"
)

var (
	historyLimit int
	historyJSON  bool
)

var importsHistoryCmd = &cobra.Command{
	Use:   "history [name]",
	Short: "Show recorded sync runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}

		journal, err := history.Open(paths.HistoryDBPath(root))
		if err != nil {
			return err
		}
		defer func() { _ = journal.Close() }()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		runs, err := journal.List(name, historyLimit)
		if err != nil {
			return err
		}

		if historyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Println("No sync runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tIMPORT\tRESULT\tADDED\tUPDATED\tSKIPPED\tERROR")
		for _, r := range runs {
			result := "ok"
			if !r.Success {
				result = "failed"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.StartedAt.Format(time.RFC3339), r.ImportName, result,
				r.Added, r.Updated, r.Skipped, r.Error)
		}
		return w.Flush()
	},
}

func init() {
	importsCmd.AddCommand(importsHistoryCmd)
	importsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show (0 = all)")
	importsHistoryCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON")
}
