package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avillar/storecheck/internal/twin"
)

const passingScenario = `
name: read_product
steps:
  - call: products.get
    identity: anonymous
    params: [2]
    expect:
      status: 200
      fields:
        - path: name
          equals: Smart TV
`

const failingScenario = `
name: wrong_order_expectation
steps:
  - call: orders.get
    identity: client
    params: [2]
    expect:
      status: 200
`

// newCheckFixture serves a fresh twin and writes a config plus the given
// scenario files into a temp directory.
func newCheckFixture(t *testing.T, scenarios map[string]string) (configPath, scenariosDir string) {
	t.Helper()

	srv := httptest.NewServer(twin.NewServer(twin.Seed()).Router())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	configPath = filepath.Join(dir, "storecheck.yaml")
	config := fmt.Sprintf(`
base_url: %s
identities:
  client:
    username: maria@gmail.com
    password: "123456"
  admin:
    username: alex@gmail.com
    password: "123456"
`, srv.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	scenariosDir = filepath.Join(dir, "scenarios")
	require.NoError(t, os.Mkdir(scenariosDir, 0o755))
	for name, doc := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(scenariosDir, name), []byte(doc), 0o644))
	}
	return configPath, scenariosDir
}

func execute(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestCheck_AllPass(t *testing.T) {
	configPath, scenariosDir := newCheckFixture(t, map[string]string{
		"read_product.yaml": passingScenario,
	})

	out, err := execute(t, "check", scenariosDir, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ read_product")
	assert.Contains(t, out, "1 scenario(s) passed")
}

func TestCheck_FailureExitCode(t *testing.T) {
	configPath, scenariosDir := newCheckFixture(t, map[string]string{
		"wrong.yaml": failingScenario,
	})

	out, err := execute(t, "check", scenariosDir, "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_order_expectation")
	assert.Contains(t, out, "status: expected 200, got 403")
}

func TestCheck_JSONEnvelope(t *testing.T) {
	configPath, scenariosDir := newCheckFixture(t, map[string]string{
		"read_product.yaml": passingScenario,
	})

	out, err := execute(t, "check", scenariosDir, "--config", configPath, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(0), data["failed"])
}

func TestCheck_MissingConfig(t *testing.T) {
	_, scenariosDir := newCheckFixture(t, map[string]string{
		"read_product.yaml": passingScenario,
	})

	_, err := execute(t, "check", scenariosDir, "--config", "/nonexistent/storecheck.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheck_FilterMatchesNothing(t *testing.T) {
	configPath, scenariosDir := newCheckFixture(t, map[string]string{
		"read_product.yaml": passingScenario,
	})

	_, err := execute(t, "check", scenariosDir, "--config", configPath, "--filter", "orders_*")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheck_RecordAndTrace(t *testing.T) {
	configPath, scenariosDir := newCheckFixture(t, map[string]string{
		"read_product.yaml": passingScenario,
	})
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, err := execute(t, "check", scenariosDir, "--config", configPath, "--record", dbPath)
	require.NoError(t, err)

	out, err := execute(t, "trace", dbPath, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	runs, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.Equal(t, "read_product", run["scenario"])
	assert.Equal(t, true, run["pass"])

	out, err = execute(t, "trace", dbPath, "--run", run["id"].(string))
	require.NoError(t, err)
	assert.Contains(t, out, "read_product")
	assert.Contains(t, out, "products.get")
}

// TestCheck_ShippedScenarios runs the scenario suite that ships with the
// repository against a fresh twin end to end.
func TestCheck_ShippedScenarios(t *testing.T) {
	srv := httptest.NewServer(twin.NewServer(twin.Seed()).Router())
	t.Cleanup(srv.Close)

	configPath := filepath.Join(t.TempDir(), "storecheck.yaml")
	config := fmt.Sprintf(`
base_url: %s
identities:
  client:
    username: maria@gmail.com
    password: "123456"
  admin:
    username: alex@gmail.com
    password: "123456"
`, srv.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	out, err := execute(t, "check", filepath.Join("..", "..", "scenarios"), "--config", configPath)
	require.NoError(t, err, "output:\n%s", out)
	assert.Contains(t, out, "✓ read_product")
	assert.Contains(t, out, "✓ list_products")
	assert.Contains(t, out, "✓ insert_product")
	assert.Contains(t, out, "✓ insert_validation")
	assert.Contains(t, out, "✓ insert_access")
	assert.Contains(t, out, "✓ delete_product")
	assert.Contains(t, out, "✓ read_order")
	assert.Contains(t, out, "7 scenario(s) passed")
}

func TestTrace_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, "trace", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_Valid(t *testing.T) {
	_, scenariosDir := newCheckFixture(t, map[string]string{
		"read_product.yaml": passingScenario,
	})

	out, err := execute(t, "validate", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 scenario file(s) valid")
}

func TestValidate_SchemaViolation(t *testing.T) {
	_, scenariosDir := newCheckFixture(t, map[string]string{
		"bad.yaml": `
name: bad_identity
steps:
  - call: products.get
    identity: superuser
    params: [1]
    expect:
      status: 200
`,
	})

	out, err := execute(t, "validate", scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "bad.yaml")
}

func TestValidate_UnknownOperation(t *testing.T) {
	_, scenariosDir := newCheckFixture(t, map[string]string{
		"bad.yaml": `
name: bad_operation
steps:
  - call: products.rename
    identity: admin
    expect:
      status: 200
`,
	})

	_, err := execute(t, "validate", scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_EmptyDir(t *testing.T) {
	_, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := execute(t, "check", "anywhere", "--format", "xml")
	require.Error(t, err)
}
