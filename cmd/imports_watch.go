package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/knowns/knowns/internal/notify"
)

var importsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch materialized imports for changes",
	Long: `Watch the project's import directory and print a line for every
change. Intended for live UIs and tooling that mirror imported content.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}

		watcher, err := notify.NewWatcher(root)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			for ev := range watcher.Events() {
				fmt.Printf("%s\t%s\t%s\n", ev.Kind, ev.Import, ev.Path)
			}
		}()

		err = watcher.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	importsCmd.AddCommand(importsWatchCmd)
}
