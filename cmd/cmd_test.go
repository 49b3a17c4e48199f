package cmd

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSizesCommand(t *testing.T) {
	out := execute(t, "sizes", "--log-level", "error")

	assert.Contains(t, out, "SIZE")
	assert.Contains(t, out, "2xlarge")
	assert.True(t, strings.Index(out, "nano") < strings.Index(out, "48xlarge"), "sorted by factor")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "ricoverage dev")
}

func TestTargetCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Region,Engine,Instance class,RI covered amount,Total amount\n"+
			"US East (N. Virginia),MySQL,db.m5.2xlarge,1,2\n"), 0o644))

	out := execute(t, "target", path, "--output", "csv", "--target", "50", "--log-level", "error")

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// one 2xlarge is two base units: 2 covered of 4 total is already 50%
	row := records[1]
	assert.Equal(t, []string{"us-east-1", "MySQL", "db.m5.large", "4", "2", "50.00", "2", "0", "at-target", ""}, row)
}

func TestCoverageHelpDocumentsPercentages(t *testing.T) {
	for _, c := range []string{targetCmd.Long, analyzeCmd.Long} {
		assert.Contains(t, c, `"1%"`)
		assert.Contains(t, c, "above 1 is a percentage")
	}
}
