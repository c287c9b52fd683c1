package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.cmd")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	return path
}

func runQtest(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	t.Run("Clean Script", func(t *testing.T) {
		path := writeScript(t, "new", "it a", "show", "rh a", "free")

		code, out, _ := runQtest(t, "", "-f", path)
		require.Equal(t, 0, code)
		require.Contains(t, out, "cmd> new")
		require.Contains(t, out, "q = [a]")
		require.Contains(t, out, "Removed a from queue")
	})

	t.Run("Stdin", func(t *testing.T) {
		code, out, _ := runQtest(t, "new\nih x\nsize\nquit\nih never\n")
		require.Equal(t, 0, code)
		require.Contains(t, out, "Queue size = 1")
		require.NotContains(t, out, "cmd>")
	})

	t.Run("Error Script", func(t *testing.T) {
		path := writeScript(t, "new", "it a", "rh b", "free")

		code, out, _ := runQtest(t, "", "--file", path)
		require.Equal(t, 1, code)
		require.Contains(t, out, "ERROR: Removed value a != expected value b")
	})

	t.Run("Error Limit", func(t *testing.T) {
		path := writeScript(t, "new", "bogus", "it never")

		code, out, _ := runQtest(t, "", "-f", path, "--errorlimit", "1")
		require.Equal(t, 1, code)
		require.Contains(t, out, "Error limit exceeded")
		require.NotContains(t, out, "cmd> it never")
	})

	t.Run("Malloc Failures", func(t *testing.T) {
		path := writeScript(t, "option fail 1000", "new", "new", "ih RAND 50", "sort", "free")

		code, _, _ := runQtest(t, "", "-f", path, "--malloc", "30", "--seed", "7", "-v", "0")
		require.Equal(t, 0, code)
	})

	t.Run("Log File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "qtest.log")

		code, _, _ := runQtest(t, "new\nit a\nshow\n", "-l", logPath)
		require.Equal(t, 0, code)

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		require.Contains(t, string(data), "q = [a]")
	})

	t.Run("Help", func(t *testing.T) {
		code, out, _ := runQtest(t, "", "--help")
		require.Equal(t, 0, code)
		require.Contains(t, out, "Usage:")
	})
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{name: "Unknown Flag", args: []string{"--nosuch"}, stderr: "nosuch"},
		{name: "Extra Argument", args: []string{"extra"}, stderr: "unexpected arguments"},
		{name: "Missing Script", args: []string{"-f", "testdata/missing.cmd"}, stderr: "missing.cmd"},
		{name: "Malloc Out Of Range", args: []string{"--malloc", "200"}, stderr: "fail rate"},
		{name: "Zero Error Limit", args: []string{"--errorlimit", "0"}, stderr: "error limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runQtest(t, "", tt.args...)
			require.Equal(t, 2, code)
			require.Contains(t, stderr, tt.stderr)
		})
	}
}
