package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

// isolate points every LRAND_* location at a temporary directory and returns the
// --env-file argument for a file that does not exist.
func isolate(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("LRAND_ENVIRONMENT", "dev")
	t.Setenv("LRAND_LOG_LEVEL", "error")
	t.Setenv("LRAND_DATA_DIR", dir)
	t.Setenv("LRAND_REFERENCE_DIR", "reference")
	t.Setenv("LRAND_OUTPUT_FILE", "out.csv.gz")
	t.Setenv("LRAND_DOMAIN_MIN", "1010001")
	t.Setenv("LRAND_DOMAIN_MAX", "1013001")
	t.Setenv("LRAND_CHUNK_LENGTH", "700")
	t.Setenv("LRAND_VARIANT", "exact")
	t.Setenv("LRAND_INCLUDE_WHOLE", "false")

	return dir, "--env-file=" + filepath.Join(dir, "missing.env")
}

func TestHash(t *testing.T) {
	out, err := execute(t, "hash", "123456789", "1277730")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "123456789\texact\t0.2184182969", lines[0])
	assert.Equal(t, "1277730\texact\t0.9999867938\twrapped", lines[1])
}

func TestHashBothVariants(t *testing.T) {
	out, err := execute(t, "hash", "--variant=both", "--whole", "1010001")
	require.NoError(t, err)

	assert.Equal(t,
		"1010001\texact\t0.9046407783\t9046407783\n"+
			"1010001\tapproximate\t0.9046407783\t9046407783\n",
		out)
}

func TestHashRejectsBadInput(t *testing.T) {
	_, err := execute(t, "hash", "abc")
	assert.Error(t, err)

	_, err = execute(t, "hash", "--variant=binary", "1")
	assert.Error(t, err)

	_, err = execute(t, "hash", "10000000000")
	assert.Error(t, err)
}

func TestJitterWithOffset(t *testing.T) {
	out, err := execute(t, "jitter", "--offset=999999", "1010001")
	require.NoError(t, err)
	assert.Equal(t, "102\n", out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestBatchExplicit(t *testing.T) {
	_, envFile := isolate(t)

	out, err := execute(t, "batch", envFile, "--ids=42, 1,127773")
	require.NoError(t, err)

	assert.Equal(t,
		"identifier,L_RAND\n"+
			"42,0.0003287075\n"+
			"1,0.0000078263\n"+
			"127773,0.9999986793\n",
		out)
}

func TestBatchSampledIsSeeded(t *testing.T) {
	_, envFile := isolate(t)

	first, err := execute(t, "batch", envFile, "--low=1", "--high=1000000", "--size=5", "--seed=7", "--whole")
	require.NoError(t, err)
	second, err := execute(t, "batch", envFile, "--low=1", "--high=1000000", "--size=5", "--seed=7", "--whole")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	lines := strings.Split(strings.TrimSpace(first), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "identifier,L_RAND,L_RAND_WHOLE", lines[0])
}

func TestBatchRequiresPool(t *testing.T) {
	_, envFile := isolate(t)

	_, err := execute(t, "batch", envFile)
	assert.Error(t, err)
}

func TestSweepThenAudit(t *testing.T) {
	dir, envFile := isolate(t)

	out, err := execute(t, "sweep", envFile, "--workers=3", "--whole")
	require.NoError(t, err)
	assert.Contains(t, out, "rows:     3000 in 5 chunks")
	assert.FileExists(t, filepath.Join(dir, "reference", "out.csv.gz"))

	out, err = execute(t, "audit", envFile, "--rows=3000")
	require.NoError(t, err)
	assert.Contains(t, out, "rows:        3000")

	_, err = execute(t, "audit", envFile, "--rows=3001")
	assert.Error(t, err)
}

func TestSweepFlagsOverrideConfig(t *testing.T) {
	dir, envFile := isolate(t)

	path := filepath.Join(dir, "custom.csv.gz")
	out, err := execute(t, "sweep", envFile, "--low=1", "--high=101", "--chunk-length=10",
		"--variant=approximate", "--output="+path)
	require.NoError(t, err)
	assert.Contains(t, out, "rows:     100 in 10 chunks")

	out, err = execute(t, "audit", envFile, "--rows=100", path)
	require.NoError(t, err)
	assert.Contains(t, out, "rows:        100")
}

func TestSweepRejectsInvalidDomain(t *testing.T) {
	_, envFile := isolate(t)

	_, err := execute(t, "sweep", envFile, "--low=10", "--high=10")
	assert.Error(t, err)
}
