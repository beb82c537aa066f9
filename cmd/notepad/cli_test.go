package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/internal/platform"
	"github.com/aretw0/notepad/pkg/core"
)

// resetFlags restores every flag to its default so commands can run again
// in the same process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes notepad against the database in dir and returns stdout.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--db", filepath.Join(dir, "notes.db")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRunCLI(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	require.NoError(t, err, "notepad %s", strings.Join(args, " "))
	return out
}

func setupCLI(t *testing.T) string {
	t.Helper()
	for _, key := range []string{platform.EnvDatabase, platform.EnvLogLevel, platform.EnvUndoWindow, platform.EnvWatch} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func listNotes(t *testing.T, dir string, args ...string) []core.Note {
	t.Helper()
	var notes []core.Note
	out := mustRunCLI(t, dir, append([]string{"list", "--json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), &notes), out)
	return notes
}

func TestCLI_NoteLifecycle(t *testing.T) {
	dir := setupCLI(t)

	assert.Contains(t, mustRunCLI(t, dir, "add", "Pen", "-d", "5.0", "-c", "green"), "created note 1")
	assert.Contains(t, mustRunCLI(t, dir, "add", "Game", "--color", "Blue"), "created note 2")

	notes := listNotes(t, dir)
	require.Len(t, notes, 2)
	assert.Equal(t, "Game", notes[0].Heading)
	assert.Equal(t, core.ColorBlue, notes[0].Color)
	assert.Equal(t, "Pen", notes[1].Heading)

	t.Run("Show", func(t *testing.T) {
		out := mustRunCLI(t, dir, "show", "1")
		assert.Contains(t, out, "# Pen")
		assert.Contains(t, out, "color: green")
		assert.Contains(t, out, "5.0")

		_, err := runCLI(t, dir, "show", "42")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Edit Keeps Unset Fields", func(t *testing.T) {
		mustRunCLI(t, dir, "edit", "1", "--heading", "Pencil")

		var n core.Note
		require.NoError(t, json.Unmarshal([]byte(mustRunCLI(t, dir, "show", "1", "--json")), &n))
		assert.Equal(t, core.Note{ID: 1, Heading: "Pencil", Description: "5.0", Color: core.ColorGreen}, n)
	})

	t.Run("Match", func(t *testing.T) {
		notes := listNotes(t, dir, "--match", "Pen*")
		require.Len(t, notes, 1)
		assert.Equal(t, "Pencil", notes[0].Heading)
	})

	t.Run("Delete After Window", func(t *testing.T) {
		out := mustRunCLI(t, dir, "delete", "2", "--undo-window", "20ms")
		assert.Contains(t, out, "deleted note 2")
		assert.Len(t, listNotes(t, dir), 1)
	})

	t.Run("Delete Immediately", func(t *testing.T) {
		mustRunCLI(t, dir, "delete", "1", "--yes")
		assert.Empty(t, listNotes(t, dir))
	})
}

func TestCLI_Rejections(t *testing.T) {
	dir := setupCLI(t)

	_, err := runCLI(t, dir, "add", "   ")
	assert.ErrorContains(t, err, "heading must not be blank")

	_, err = runCLI(t, dir, "add", strings.Repeat("x", 101))
	assert.ErrorContains(t, err, "at most 100")

	_, err = runCLI(t, dir, "add", "Game", "-c", "purple")
	assert.ErrorIs(t, err, core.ErrInvalidColor)

	_, err = runCLI(t, dir, "show", "abc")
	assert.ErrorContains(t, err, "invalid note id")

	mustRunCLI(t, dir, "add", "Game")
	_, err = runCLI(t, dir, "edit", "1")
	assert.ErrorContains(t, err, "nothing to change")

	assert.Empty(t, listNotes(t, dir)[0].Description)
}

func TestCLI_ConfigAndStatus(t *testing.T) {
	dir := setupCLI(t)

	out := mustRunCLI(t, dir, "config")
	assert.Contains(t, out, "# source: defaults")
	assert.Contains(t, out, "database: "+filepath.Join(dir, "notes.db"))

	var report struct {
		Version string `json:"version"`
		Service struct {
			StoreType string `json:"store_type"`
			Store     struct {
				Path string `json:"path"`
			} `json:"store"`
		} `json:"service"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRunCLI(t, dir, "status")), &report))
	assert.NotEmpty(t, report.Version)
	assert.Equal(t, "sqlite-store", report.Service.StoreType)
	assert.Equal(t, filepath.Join(dir, "notes.db"), report.Service.Store.Path)
}
