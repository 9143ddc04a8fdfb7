package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/datatect/internal/cli/config"
	clitestutil "github.com/leapstack-labs/datatect/internal/cli/testutil"
)

func execute(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "ES_") || strings.HasPrefix(name, "DATATECT_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	t.Cleanup(config.ResetConfig)

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"validate", "scan", "strictify", "history", "version", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	for _, flag := range []string{"config", "verbose", "output"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCommand_ValidateThroughRoot(t *testing.T) {
	dir := clitestutil.SetupTestProject(t, map[string]string{
		"good.json": clitestutil.ValidDoc,
		"bad.json":  clitestutil.InvalidDoc,
	})

	out, _, err := execute(t, dir, "validate", "-s", "schema.yaml", "good.json", "bad.json")
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED: good.json")
	assert.Contains(t, out, "ERROR: bad.json")
}

func TestRootCommand_ExplicitConfigFile(t *testing.T) {
	dir := clitestutil.SetupTestProject(t, map[string]string{
		"good.json":     clitestutil.ValidDoc,
		"conf/ci.yaml":  "schema: schema.yaml\noutput: markdown\n",
		"datatect.yaml": "schema: missing.yaml\n",
	})

	out, _, err := execute(t, dir, "--config", "conf/ci.yaml", "validate", "good.json")
	require.NoError(t, err)
	assert.Contains(t, out, "- **PASSED** `good.json`")
	assert.Contains(t, out, "| Passed | Failed | Total |")
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	dir := clitestutil.SetupTestProject(t, map[string]string{
		"good.json":     clitestutil.ValidDoc,
		"datatect.yaml": "schema: schema.yaml\n",
	})

	out, errOut, err := execute(t, dir, "-v", "validate", "good.json")
	require.NoError(t, err)
	assert.Equal(t, "PASSED: good.json\n", out)
	assert.Contains(t, errOut, "using config file")
	assert.Contains(t, errOut, "level=DEBUG")

	_, errOut, err = execute(t, dir, "validate", "good.json")
	require.NoError(t, err)
	assert.Empty(t, errOut)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	dir := clitestutil.SetupTestProject(t, nil)

	_, _, err := execute(t, dir, "-o", "html", "strictify", "-s", "schema.yaml")
	assert.ErrorContains(t, err, "output must be one of")
}

func TestRootCommand_Completion(t *testing.T) {
	out, _, err := execute(t, t.TempDir(), "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "datatect")
}
