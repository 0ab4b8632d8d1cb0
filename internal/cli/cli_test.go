package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var fixture = []byte{0x00, 0xAB, 0x00, 0xFF, 0x14, 0x99}

func writeTarget(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patchme")
	require.NoError(t, os.WriteFile(path, fixture, 0o644))
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), append([]string{"-no-color"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRunPatchesAndWritesDefaultBackup(t *testing.T) {
	path := writeTarget(t)

	code, stdout, stderr := run(t, path, "AB00FF14", "AB11FF14")
	require.Equal(t, ExitOK, code, stderr)
	require.Equal(t, []byte{0x00, 0xAB, 0x11, 0xFF, 0x14, 0x99}, readFile(t, path))
	require.Equal(t, fixture, readFile(t, path+".org"))
	require.Contains(t, stdout, "[info] Format: raw data (6 bytes)")
	require.Contains(t, stdout, "[ok] patched "+path+" at 0x1 (4 -> 4 bytes)")
	require.Contains(t, stdout, "[info] backup written to "+path+".org")
}

func TestRunWithFlagsExplicitBackupAndDiff(t *testing.T) {
	path := writeTarget(t)
	backup := filepath.Join(t.TempDir(), "saved.bin")

	code, stdout, _ := run(t, "-file", path, "-search", "FF14", "-replace", "EEEEEE", "-backup", backup, "-diff")
	require.Equal(t, ExitOK, code)
	require.Equal(t, []byte{0x00, 0xAB, 0x00, 0xEE, 0xEE, 0xEE, 0x99}, readFile(t, path))
	require.Equal(t, fixture, readFile(t, backup))
	require.Contains(t, stdout, "[warn] file size changed from 6 to 7 bytes")
	require.Contains(t, stdout, "before:\n00000000  00 AB 00 FF 14 99")
	require.Contains(t, stdout, "after:\n00000000  00 AB 00 EE EE EE 99")
}

func TestRunPatternNotFound(t *testing.T) {
	path := writeTarget(t)

	code, stdout, _ := run(t, path, "DEADBEEF", "00")
	require.Equal(t, ExitNotPatchable, code)
	require.Contains(t, stdout, "search pattern DEADBEEF not found")
	require.Equal(t, fixture, readFile(t, path))
	require.NoFileExists(t, path+".org")
}

func TestRunInvalidPatternOpensNothing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	code, _, stderr := run(t, missing, "ABC", "AB")
	require.Equal(t, ExitUsage, code)
	require.Contains(t, stderr, "[error] invalid search pattern \"ABC\": odd number of hex digits")
	require.NotContains(t, stderr, "no such file")
}

func TestRunMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	code, _, stderr := run(t, missing, "AB", "CD")
	require.Equal(t, ExitFailure, code)
	require.Contains(t, stderr, "read "+missing)
}

func TestRunDryRunAndCheckDoNotWrite(t *testing.T) {
	path := writeTarget(t)

	code, stdout, _ := run(t, "-dry-run", path, "00", "11")
	require.Equal(t, ExitOK, code)
	require.Contains(t, stdout, "dry run: would replace 1 occurrence(s), first at 0x0")
	require.Contains(t, stdout, "after:\n00000000  11 AB 00 FF 14 99")

	code, stdout, _ = run(t, "-check", "-all", path, "00", "11")
	require.Equal(t, ExitOK, code)
	require.Contains(t, stdout, "search pattern found at 0x0")

	require.Equal(t, fixture, readFile(t, path))
	require.NoFileExists(t, path+".org")
}

func TestRunReplaceAllWithoutBackup(t *testing.T) {
	path := writeTarget(t)

	code, _, _ := run(t, "-all", "-no-backup", path, "00", "11")
	require.Equal(t, ExitOK, code)
	require.Equal(t, []byte{0x11, 0xAB, 0x11, 0xFF, 0x14, 0x99}, readFile(t, path))
	require.NoFileExists(t, path+".org")
}

func TestRunUsesConfigFileAndEnvironment(t *testing.T) {
	path := writeTarget(t)
	cfgPath := filepath.Join(t.TempDir(), "binpatch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backupSuffix: .bak\nlogLevel: info\n"), 0o644))
	t.Setenv("BINPATCH_REPLACE_ALL", "true")

	code, _, stderr := run(t, "-config", cfgPath, path, "00", "22")
	require.Equal(t, ExitOK, code)
	require.Equal(t, []byte{0x22, 0xAB, 0x22, 0xFF, 0x14, 0x99}, readFile(t, path))
	require.Equal(t, fixture, readFile(t, path+".bak"))
	require.Contains(t, stderr, "[INFO] patch applied")
	require.Contains(t, stderr, "run_id=")
}

func TestRunUsageErrors(t *testing.T) {
	path := writeTarget(t)

	cases := [][]string{
		{path, "AB00FF14"},
		{path, "AB", "CD", "extra"},
		{"-log-level", "loud", path, "AB", "CD"},
		{"-dry-run", "-check", path, "AB", "CD"},
		{"-no-backup", "-backup", path + ".saved", path, "AB", "CD"},
		{"-unknown"},
	}
	for _, args := range cases {
		code, _, _ := run(t, args...)
		require.Equal(t, ExitUsage, code, "args %v", args)
	}
	require.Equal(t, fixture, readFile(t, path))
	require.NoFileExists(t, path+".saved")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := writeTarget(t)
	cfgPath := filepath.Join(t.TempDir(), "binpatch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("target: elsewhere\n"), 0o644))

	code, _, stderr := run(t, "-config", cfgPath, path, "AB", "CD")
	require.Equal(t, ExitFailure, code)
	require.Contains(t, stderr, "schema validation")
}

func TestRunCancelledContextWritesNothing(t *testing.T) {
	path := writeTarget(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := Run(ctx, []string{"-no-color", path, "AB00FF14", "AB11FF14"}, &stdout, &stderr)
	require.Equal(t, ExitFailure, code)
	require.Equal(t, fixture, readFile(t, path))
	require.NoFileExists(t, path+".org")
}
