package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/viewstate"
)

var (
	addDescription string
	addColor       string
)

var addCmd = &cobra.Command{
	Use:   "add [heading...]",
	Short: "Create a note",
	Long:  `Create a note. The words after add form the heading.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, err := core.ParseColor(addColor)
		if err != nil {
			return err
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		entry := viewstate.NewEntryHolder(svc)
		defer entry.Close()

		entry.UpdateField(viewstate.NoteDetails{
			Heading:     strings.Join(args, " "),
			Description: addDescription,
			Color:       color,
		})
		if err := invalidDraft(entry.Snapshot()); err != nil {
			return err
		}

		if _, err := entry.Save(cmd.Context()); err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created note %d\n", entry.Snapshot().Draft.ID)
		return nil
	},
}

// invalidDraft explains why a draft cannot be saved.
func invalidDraft(s viewstate.FormState) error {
	if s.Valid {
		return nil
	}
	err := s.Draft.Validate()
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid note: %w", err)
	}

	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "notblank":
			reasons = append(reasons, "heading must not be blank")
		case "max":
			reasons = append(reasons, fmt.Sprintf("heading must be at most %d characters", core.MaxHeadingLength))
		case "notecolor":
			reasons = append(reasons, fmt.Sprintf("color must be one of %v", core.Colors()))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid note: %s", strings.Join(reasons, "; "))
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Note description")
	addCmd.Flags().StringVarP(&addColor, "color", "c", "", "Note color (orange, blue, green, pink, white)")
}
