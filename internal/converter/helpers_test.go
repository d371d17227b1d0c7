package converter

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePath replaces PATH with a fresh empty directory and returns it.
func fakePath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	return dir
}

// writeTool installs a /bin/sh script named name in dir. Scripts may only use
// shell builtins since PATH points at the fake directory.
func writeTool(t *testing.T, dir, name, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
}

// writeInput creates an input file with the given name.
func writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0o644))
	return path
}

// fakeConverter is an in-memory Converter with scripted behavior.
type fakeConverter struct {
	name      string
	priority  uint8
	available bool
	err       error
	calls     int
}

func (f *fakeConverter) Convert(_ context.Context, _, _ string) error {
	f.calls++
	return f.err
}

func (f *fakeConverter) Available() bool { return f.available }
func (f *fakeConverter) Name() string    { return f.name }
func (f *fakeConverter) Priority() uint8 { return f.priority }
