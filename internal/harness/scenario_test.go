package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avillar/storecheck/internal/request"
)

func TestParseScenario_BodyPreservesNullVsAbsent(t *testing.T) {
	withNull := mustParse(t, `
name: null_categories
steps:
  - call: products.insert
    identity: admin
    body:
      name: Produto
      categories: null
    expect:
      status: 422
`)
	body, ok := withNull.Steps[0].Body.(map[string]any)
	require.True(t, ok)
	v, present := body["categories"]
	assert.True(t, present)
	assert.Nil(t, v)

	absent := mustParse(t, `
name: absent_categories
steps:
  - call: products.insert
    identity: admin
    body:
      name: Produto
    expect:
      status: 422
`)
	body, ok = absent.Steps[0].Body.(map[string]any)
	require.True(t, ok)
	_, present = body["categories"]
	assert.False(t, present)
}

func TestParseScenario_UnknownKeyRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
steps:
  - call: products.get
    identity: anonymous
    params: [1]
    expects:
      status: 200
`))
	require.Error(t, err)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadScenario_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "read.yaml")
	doc := `
name: read_product
steps:
  - call: products.get
    identity: anonymous
    params: [2]
    expect:
      status: 200
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "read_product", sc.Name)
	require.Len(t, sc.Steps, 1)
	assert.Equal(t, "products.get", sc.Steps[0].Call)
}

func TestScenarioValidate(t *testing.T) {
	reg := request.DefaultRegistry()

	cases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "empty name",
			doc: `
steps:
  - call: products.get
    identity: anonymous
    params: [1]
    expect:
      status: 200
`,
			wantErr: "name is required",
		},
		{
			name:    "no steps",
			doc:     "name: empty\n",
			wantErr: "at least one step",
		},
		{
			name: "unknown identity",
			doc: `
name: bad_identity
steps:
  - call: products.get
    identity: superuser
    params: [1]
    expect:
      status: 200
`,
			wantErr: "unknown identity",
		},
		{
			name: "corrupt token on anonymous",
			doc: `
name: bad_corrupt
steps:
  - call: products.get
    identity: anonymous
    corrupt_token: true
    params: [1]
    expect:
      status: 401
`,
			wantErr: "corrupt_token requires an authenticated identity",
		},
		{
			name: "status outside contract",
			doc: `
name: bad_status
steps:
  - call: products.get
    identity: anonymous
    params: [1]
    expect:
      status: 500
`,
			wantErr: "not a contract status",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc, err := ParseScenario([]byte(tc.doc))
			require.NoError(t, err)
			err = sc.Validate(reg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
