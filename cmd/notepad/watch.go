package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	notelifecycle "github.com/aretw0/notepad/pkg/adapters/lifecycle"
	"github.com/aretw0/notepad/pkg/viewstate"
)

var (
	watchMatch string
)

var watchCmd = &cobra.Command{
	Use:   "watch [id]",
	Short: "Print the note list, or one note, every time it changes",
	Long: `Watch keeps the list (or a single note when an id is given) open and prints
it again on every change, including writes made by other notepad processes.
Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		var src lifecycle.Source
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			detail := viewstate.NewDetailHolder(ctx, svc, viewstate.NoteArgs(id))
			defer detail.Close()

			sub, err := detail.Subscribe(ctx)
			if err != nil {
				return err
			}
			src = notelifecycle.NewSource(sub, describeDetail)
		} else {
			list, err := viewstate.NewListHolder(ctx, svc, viewstate.WithFilter(watchMatch))
			if err != nil {
				return err
			}
			defer list.Close()

			sub, err := list.Subscribe(ctx)
			if err != nil {
				return err
			}
			src = notelifecycle.NewSource(sub, describeList)
		}

		return printEvents(ctx, cmd, src)
	},
}

func printEvents(ctx context.Context, cmd *cobra.Command, src lifecycle.Source) error {
	if err := src.Start(ctx); err != nil {
		return err
	}
	for e := range src.Events() {
		fmt.Fprintln(cmd.OutOrStdout(), e.String())
	}
	return nil
}

func describeList(s viewstate.ListState) string {
	if !s.Loaded {
		return "-- loading"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "-- %d notes", len(s.Notes))
	if len(s.Pending) > 0 {
		fmt.Fprintf(&b, " (%d pending delete)", len(s.Pending))
	}
	for _, n := range s.Notes {
		b.WriteByte('\n')
		printNote(&b, n)
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeDetail(s viewstate.DetailState) string {
	if !s.Loaded {
		return "-- waiting for note"
	}
	n := s.Details.ToNote()
	line := fmt.Sprintf("-- %d %s (%s)", n.ID, n.Heading, n.Color)
	if n.Description != "" {
		line += "\n" + n.Description
	}
	return line
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchMatch, "match", "", "Only show headings matching a glob pattern")
}
