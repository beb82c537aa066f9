package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/viewstate"
)

var (
	deleteYes    bool
	deleteWindow time.Duration
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note, with a window to undo",
	Long: `Delete hides the note and waits for the undo window before removing it.
Press Ctrl+C while waiting to keep the note. Use --yes to delete at once.`,
	Args: cobra.ExactArgs(1),
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

		note, err := svc.GetNote(cmd.Context(), id)
		if err != nil {
			return err
		}

		window := cfg.UndoWindow
		if cmd.Flags().Changed("undo-window") {
			window = deleteWindow
		}

		failed := make(chan error, 1)
		list, err := viewstate.NewListHolder(cmd.Context(), svc,
			viewstate.WithUndoWindow(window),
			viewstate.WithLogger(slog.Default()),
			viewstate.WithErrorHandler(func(err error) {
				select {
				case failed <- err:
				default:
				}
			}),
		)
		if err != nil {
			return err
		}
		defer list.Close()

		if deleteYes {
			list.DeleteNote(note)
			return waitDeleted(cmd, svc, note, failed)
		}

		interrupt, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if !list.RequestDelete(note) {
			return fmt.Errorf("note %d is already pending deletion", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleting %q in %s (Ctrl+C to undo)\n", note.Heading, window)

		timer := time.NewTimer(window)
		defer timer.Stop()
		select {
		case <-interrupt.Done():
			if list.Undo(id) {
				fmt.Fprintf(cmd.OutOrStdout(), "kept note %d\n", id)
				return nil
			}
		case <-timer.C:
		}
		return waitDeleted(cmd, svc, note, failed)
	},
}

// waitDeleted blocks until the note is gone from the store or the delete failed.
func waitDeleted(cmd *cobra.Command, repo core.Repository, note core.Note, failed <-chan error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	sub, err := repo.NoteStream(ctx, note.ID)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case err := <-failed:
			return fmt.Errorf("failed to delete note %d: %w", note.ID, err)
		case n, ok := <-sub.C():
			if !ok {
				return fmt.Errorf("delete of note %d not confirmed: %w", note.ID, context.Cause(ctx))
			}
			if n == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted note %d\n", note.ID)
				return nil
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete immediately without an undo window")
	deleteCmd.Flags().DurationVar(&deleteWindow, "undo-window", viewstate.DefaultUndoWindow, "How long the delete can be undone")
}
