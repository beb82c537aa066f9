package platform

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/notepad/pkg/adapters/sqlite"
)

// DevDirName is the directory under the system temp dir that holds
// sandboxed databases.
const DevDirName = "notepad-dev"

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	tempDir := os.TempDir()
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}

	// go test binaries end in .test
	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}

	return false
}

// ResolveDatabasePath determines the database file to open.
// With forceTemp the file is re-rooted under the temp dir, keeping its base
// name, unless it already lives there (e.g. t.TempDir()). In-memory
// databases are never moved.
func ResolveDatabasePath(userPath string, forceTemp bool) string {
	if userPath == sqlite.MemoryPath {
		return userPath
	}
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	if filepath.IsAbs(clean) {
		rel, err := filepath.Rel(os.TempDir(), clean)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return clean
		}
	}

	name := filepath.Base(clean)
	if userPath == "" || name == "." || name == string(os.PathSeparator) {
		name = "notes.db"
	}
	return filepath.Join(os.TempDir(), DevDirName, name)
}
