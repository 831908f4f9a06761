package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("reports")
	require.NoError(t, err)

	want := filepath.Join(tmp, "reports")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	second, err := EnsureDir(dir)
	require.NoError(t, err)

	require.Equal(t, dir, first)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("reports", []byte("x"), 0o660))

	_, err := EnsureDir("reports")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"rapport.xlsx":          "rapport.xlsx",
		"../../etc/passwd":      "passwd",
		`..\..\win.ini`:         "win.ini",
		"/abs/report.pdf":       "report.pdf",
		"bad\x00name\n.pdf":     "badname.pdf",
		"..":                    "",
		"":                      "",
		"é_rapport_annuel.xlsx": "é_rapport_annuel.xlsx",
	}
	for in, want := range cases {
		require.Equal(t, want, SafeName(in), "input %q", in)
	}
}

func TestWriteUnique_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()

	p1, err := WriteUnique(dir, "report.pdf", []byte("one"))
	require.NoError(t, err)
	p2, err := WriteUnique(dir, "report.pdf", []byte("two"))
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "report.pdf"), p1)
	require.Equal(t, filepath.Join(dir, "report (1).pdf"), p2)

	b, err := os.ReadFile(p1)
	require.NoError(t, err)
	require.Equal(t, "one", string(b))
}

func TestWriteUnique_MissingDir(t *testing.T) {
	_, err := WriteUnique(filepath.Join(t.TempDir(), "nope"), "x.pdf", []byte("x"))
	require.Error(t, err)
}
