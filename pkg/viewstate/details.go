package viewstate

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/notepad/pkg/core"
)

// NoteDetails is the editable form of a note held by the entry and edit
// holders.
type NoteDetails struct {
	ID          int64      `json:"id,omitempty"`
	Heading     string     `json:"heading" validate:"notblank,max=100"`
	Description string     `json:"description,omitempty"`
	Color       core.Color `json:"color,omitempty" validate:"omitempty,notecolor"`
}

// ToNote converts the draft to a note. An empty color becomes the default.
func (d NoteDetails) ToNote() core.Note {
	return core.Note{
		ID:          d.ID,
		Heading:     d.Heading,
		Description: d.Description,
		Color:       d.Color.OrDefault(),
	}
}

// FromNote builds a draft from a stored note.
func FromNote(n core.Note) NoteDetails {
	return NoteDetails{
		ID:          n.ID,
		Heading:     n.Heading,
		Description: n.Description,
		Color:       n.Color,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", validateNotBlank)
	v.RegisterValidation("notecolor", validateNoteColor)
	return v
}

// Validate checks the draft. The returned error is a
// validator.ValidationErrors listing every failing field.
func (d NoteDetails) Validate() error {
	return validate.Struct(d)
}

// IsValid reports whether the draft may be persisted.
func (d NoteDetails) IsValid() bool {
	return d.Validate() == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateNoteColor(fl validator.FieldLevel) bool {
	return core.Color(fl.Field().String()).Valid()
}
