// Package notepad is the composition root of the notepad data layer.
//
// It wires the SQLite store (pkg/adapters/sqlite) behind the Repository
// contract (pkg/core) and hands the resulting service to the view-state
// holders (pkg/viewstate) that back each screen:
//
//   - ListHolder: every note ordered by heading, with delete-and-undo.
//   - EntryHolder: a validated draft inserted on save.
//   - EditHolder: a draft loaded from an existing note and updated on save.
//   - DetailHolder: a live read-only view of one note.
//
// Every read is a live stream: subscribers receive the current value at once
// and again after each committed write that changes it.
//
// Usage:
//
//	svc, err := notepad.New("./notes.db", notepad.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	entry := viewstate.NewEntryHolder(svc)
//	entry.UpdateField(viewstate.NoteDetails{Heading: "Groceries", Color: core.ColorGreen})
//	saved, err := entry.Save(ctx)
package notepad
