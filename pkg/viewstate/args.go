package viewstate

import "fmt"

// NoteIDArg is the navigation argument carrying the note id.
const NoteIDArg = "noteId"

// Args are the navigation arguments handed to a holder when its screen opens.
type Args map[string]any

// NoteArgs returns the arguments for opening the note with id.
func NoteArgs(id int64) Args {
	return Args{NoteIDArg: id}
}

// NoteID returns the note id argument.
func (a Args) NoteID() (int64, bool) {
	switch v := a[NoteIDArg].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}

// requireNoteID panics when the note id is missing. Screens that need a note
// are never opened without one, so its absence is a programming error.
func requireNoteID(a Args) int64 {
	id, ok := a.NoteID()
	if !ok {
		panic(fmt.Sprintf("viewstate: required navigation argument %q missing or not an integer (got %T)", NoteIDArg, a[NoteIDArg]))
	}
	return id
}
