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
	editHeading     string
	editDescription string
	editColor       string
)

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the heading, description or color of a note",
	Long:  `Edit replaces only the fields given as flags; the others keep their stored values.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if !flags.Changed("heading") && !flags.Changed("description") && !flags.Changed("color") {
			return fmt.Errorf("nothing to change: pass --heading, --description or --color")
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if _, err := svc.GetNote(cmd.Context(), id); err != nil {
			return err
		}

		edit := viewstate.NewEditHolder(cmd.Context(), svc, viewstate.NoteArgs(id))
		defer edit.Close()

		waitCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := edit.Await(waitCtx); err != nil {
			return err
		}

		draft := edit.Snapshot().Draft
		if flags.Changed("heading") {
			draft.Heading = editHeading
		}
		if flags.Changed("description") {
			draft.Description = editDescription
		}
		if flags.Changed("color") {
			color, err := core.ParseColor(editColor)
			if err != nil {
				return err
			}
			draft.Color = color
		}

		edit.UpdateField(draft)
		if err := invalidDraft(edit.Snapshot()); err != nil {
			return err
		}
		if _, err := edit.Save(cmd.Context()); err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated note %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editHeading, "heading", "", "New heading")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
	editCmd.Flags().StringVarP(&editColor, "color", "c", "", "New color")
}
