package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/viewstate"
)

var (
	listJSON  bool
	listMatch string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes ordered by heading",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		list, err := viewstate.NewListHolder(cmd.Context(), svc, viewstate.WithFilter(listMatch), viewstate.WithKeepAlive(0))
		if err != nil {
			return err
		}
		defer list.Close()

		state, err := loadedList(cmd.Context(), list)
		if err != nil {
			return err
		}

		if listJSON {
			return printJSON(cmd.OutOrStdout(), state.Notes)
		}
		for _, n := range state.Notes {
			printNote(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

// loadedList returns the first list state read from the store.
func loadedList(ctx context.Context, list *viewstate.ListHolder) (viewstate.ListState, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sub, err := list.Subscribe(ctx)
	if err != nil {
		return viewstate.ListState{}, err
	}
	defer sub.Close()

	for {
		state, ok := sub.Next(ctx)
		if !ok {
			return viewstate.ListState{}, fmt.Errorf("failed to load notes: %w", context.Cause(ctx))
		}
		if state.Loaded {
			return state, nil
		}
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Only list headings matching a glob pattern (e.g. 'Pen*')")
}
