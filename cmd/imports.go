package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/imports"
)

// ErrReported marks errors whose details were already printed by a command;
// main exits non-zero without printing them again.
var ErrReported = errors.New("error already reported")

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Manage imported external content",
}

func init() {
	rootCmd.AddCommand(importsCmd)
}

// printImportError renders the core's error with its hint, when present.
func printImportError(err error) {
	var ie *imports.ImportError
	if errors.As(err, &ie) {
		fmt.Fprintln(os.Stderr, "Error:", ie.Message)
		if ie.Hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", ie.Hint)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// printResultError renders a failed result's message and hint.
func printResultError(res imports.ImportResult) {
	fmt.Fprintln(os.Stderr, "Error:", res.Error)
	if res.Hint != "" {
		fmt.Fprintln(os.Stderr, "Hint:", res.Hint)
	}
}

// interactiveStdin reports whether f is a character device. A failed Stat
// counts as non-interactive.
func interactiveStdin(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
