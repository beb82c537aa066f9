package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/viewstate"
)

var (
	showJSON bool
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		// The detail stream skips missing notes, so check existence first.
		if _, err := svc.GetNote(cmd.Context(), id); err != nil {
			return err
		}

		detail := viewstate.NewDetailHolder(cmd.Context(), svc, viewstate.NoteArgs(id), viewstate.WithKeepAlive(0))
		defer detail.Close()

		state, err := loadedDetail(cmd.Context(), detail)
		if err != nil {
			return err
		}

		if showJSON {
			return printJSON(cmd.OutOrStdout(), state.Details.ToNote())
		}
		printDetails(cmd, state.Details.ToNote())
		return nil
	},
}

func loadedDetail(ctx context.Context, detail *viewstate.DetailHolder) (viewstate.DetailState, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sub, err := detail.Subscribe(ctx)
	if err != nil {
		return viewstate.DetailState{}, err
	}
	defer sub.Close()

	for {
		state, ok := sub.Next(ctx)
		if !ok {
			return viewstate.DetailState{}, fmt.Errorf("note %d: %w", detail.ID(), core.ErrNotFound)
		}
		if state.Loaded {
			return state, nil
		}
	}
}

func printDetails(cmd *cobra.Command, n core.Note) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# %s\n", n.Heading)
	fmt.Fprintf(w, "id: %d  color: %s\n", n.ID, n.Color.OrDefault())
	if n.Description != "" {
		fmt.Fprintf(w, "\n%s\n", n.Description)
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
