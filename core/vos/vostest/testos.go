// Package vostest provides a VOS for tests with an in-memory environment and
// file-backed standard streams.
package vostest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/mush/core/vos"
)

// TestOS is a VOS whose environment is isolated from the test process and
// whose standard streams are temporary files. Directory changes are real
// because built-ins must mutate the controlling process; the original
// directory is restored when the test ends.
type TestOS struct {
	*vos.MapEnv
	*vos.VIOAdapter

	// HomeDirs stands in for the account database keyed by uid.
	HomeDirs map[int]string
	// UID is returned by Getuid.
	UID int

	t *testing.T
}

var _ vos.VOS = (*TestOS)(nil)

// New creates a TestOS. stdin holds the contents of standard input.
func New(t *testing.T, stdin string) *TestOS {
	t.Helper()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "stdin"), stdin)
	out := createFile(t, filepath.Join(dir, "stdout"))
	errOut := createFile(t, filepath.Join(dir, "stderr"))

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})

	env := vos.NewMapEnvFromEnvList(os.Environ())
	return &TestOS{
		MapEnv:     env,
		VIOAdapter: vos.NewVIOAdapter(in, out, errOut),
		HomeDirs:   make(map[int]string),
		UID:        os.Getuid(),
		t:          t,
	}
}

// Chdir implements vos.VProc.Chdir.
func (o *TestOS) Chdir(dir string) error {
	return os.Chdir(dir)
}

// Getwd implements vos.VProc.Getwd.
func (o *TestOS) Getwd() (string, error) {
	return os.Getwd()
}

// Getuid implements vos.VProc.Getuid.
func (o *TestOS) Getuid() int {
	return o.UID
}

// LookupHomeDir implements vos.VProc.LookupHomeDir from HomeDirs.
func (o *TestOS) LookupHomeDir(uid int) (string, error) {
	if dir, ok := o.HomeDirs[uid]; ok {
		return dir, nil
	}
	return "", fmt.Errorf("user: unknown userid %d", uid)
}

// StdoutString returns everything written to standard output so far.
func (o *TestOS) StdoutString() string {
	return readAll(o.t, o.Stdout())
}

// StderrString returns everything written to standard error so far.
func (o *TestOS) StderrString() string {
	return readAll(o.t, o.Stderr())
}

func writeFile(t *testing.T, path, contents string) *os.File {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
	fd, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fd.Close() })
	return fd
}

func createFile(t *testing.T, path string) *os.File {
	t.Helper()
	fd, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fd.Close() })
	return fd
}

func readAll(t *testing.T, fd *os.File) string {
	t.Helper()
	contents, err := os.ReadFile(fd.Name())
	if err != nil {
		t.Fatal(err)
	}
	return string(contents)
}
