package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/mush/core/vos/vostest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sameDir asserts the process working directory is dir.
func sameDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListBuiltins(t *testing.T) {
	assert.Equal(t, []string{"cd"}, ListBuiltins())
}

func TestLookupBuiltin(t *testing.T) {
	b, ok := LookupBuiltin("cd")
	require.True(t, ok)
	assert.Equal(t, "cd", b.Name())

	for _, name := range []string{"CD", "cd ", "c", "ls", ""} {
		_, ok := LookupBuiltin(name)
		assert.False(t, ok, "%q must not match a builtin", name)
	}
}

func TestCd(t *testing.T) {
	t.Run("explicit-dir", func(t *testing.T) {
		virtOS := vostest.New(t, "")
		dir := t.TempDir()
		virtOS.Setenv(EnvHome, t.TempDir())

		assert.Equal(t, 0, Cd{}.Main(virtOS, []string{"cd", dir}))
		sameDir(t, dir)
	})

	t.Run("sets-pwd", func(t *testing.T) {
		virtOS := vostest.New(t, "")
		dir := t.TempDir()
		virtOS.Setenv(EnvPwd, "/nowhere")

		assert.Equal(t, 0, Cd{}.Main(virtOS, []string{"cd", dir}))
		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, wd, virtOS.Getenv(EnvPwd))
	})

	t.Run("home-env", func(t *testing.T) {
		virtOS := vostest.New(t, "")
		home := t.TempDir()
		virtOS.Setenv(EnvHome, home)

		assert.Equal(t, 0, Cd{}.Main(virtOS, []string{"cd"}))
		sameDir(t, home)
	})

	t.Run("account-home", func(t *testing.T) {
		virtOS := vostest.New(t, "")
		home := t.TempDir()
		virtOS.Unsetenv(EnvHome)
		virtOS.UID = 4242
		virtOS.HomeDirs[4242] = home

		assert.Equal(t, 0, Cd{}.Main(virtOS, []string{"cd"}))
		sameDir(t, home)
	})

	t.Run("no-home", func(t *testing.T) {
		virtOS := vostest.New(t, "")
		virtOS.Unsetenv(EnvHome)
		virtOS.UID = 4242

		assert.Equal(t, 1, Cd{}.Main(virtOS, []string{"cd"}))
		assert.Contains(t, virtOS.StderrString(), "cd: unable to determine home directory")
	})

	t.Run("missing-dir", func(t *testing.T) {
		virtOS := vostest.New(t, "")
		wd, err := os.Getwd()
		require.NoError(t, err)
		missing := filepath.Join(t.TempDir(), "missing")

		assert.Equal(t, 1, Cd{}.Main(virtOS, []string{"cd", missing}))
		assert.Contains(t, virtOS.StderrString(), "cd: ")
		assert.Contains(t, virtOS.StderrString(), missing)
		sameDir(t, wd)
	})

	t.Run("too-many-args", func(t *testing.T) {
		virtOS := vostest.New(t, "")

		assert.Equal(t, 1, Cd{}.Main(virtOS, []string{"cd", "a", "b"}))
		assert.Equal(t, "cd: too many arguments\n", virtOS.StderrString())
	})

	t.Run("help", func(t *testing.T) {
		virtOS := vostest.New(t, "")

		assert.Equal(t, 0, Cd{}.Main(virtOS, []string{"cd", "--help"}))
		assert.Contains(t, virtOS.StderrString(), "usage: cd [DIR]")
	})
}
