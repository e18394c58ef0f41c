// # internal/diagnostics/error_test.go
package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyfront/internal/ast"
)

type stubKind struct {
	code     int
	name     string
	messages []string
}

func (k stubKind) Code() int    { return k.code }
func (k stubKind) Name() string { return k.name }
func (k stubKind) Messages(concise bool, define *ast.Define, location ast.Location) []string {
	if concise {
		return k.messages[:1]
	}
	return k.messages
}
func (k stubKind) InferenceInformation(*ast.Define) map[string]any {
	return map[string]any{"annotation": "int"}
}

func sampleError() Error[stubKind] {
	define := &ast.Define{Name: ast.NewReference("m", "Foo", "$local_m?Foo$bar")}
	return Create(
		ast.Location{Path: "/repo/m.py", Start: ast.Position{Line: 12, Column: 4}},
		stubKind{code: 7, name: "Incompatible return type", messages: []string{"first", "second"}},
		define,
	)
}

func TestErrorDescription(t *testing.T) {
	e := sampleError()
	assert.Equal(t, "Incompatible return type [7]: first", e.Description("\n", false, false))
	assert.Equal(t, "Incompatible return type [7]: first\nsecond", e.Description("\n", false, true))
	assert.Equal(t, "Incompatible return type [7]: first; second", e.Description("; ", false, true))
}

func TestErrorKeyBucketsByPathAndLine(t *testing.T) {
	first := sampleError()
	second := Create(
		ast.Location{Path: "/repo/m.py", Start: ast.Position{Line: 12, Column: 30}},
		stubKind{code: 8, name: "Other", messages: []string{"x"}},
		nil,
	)
	assert.Equal(t, first.Key(), second.Key())
	assert.Equal(t, Key{Path: "/repo/m.py", Line: 12}, first.Key())
}

func TestErrorToJSON(t *testing.T) {
	payload := sampleError().ToJSON(false)
	assert.Equal(t, 12, payload["line"])
	assert.Equal(t, 4, payload["column"])
	assert.Equal(t, "/repo/m.py", payload["path"])
	assert.Equal(t, 7, payload["code"])
	assert.Equal(t, "Incompatible return type", payload["name"])
	assert.Equal(t, "bar", payload["define"])
	require.NotNil(t, payload["inference"])
}

func TestErrorsAreMapKeys(t *testing.T) {
	seen := map[Key]bool{}
	e := sampleError()
	seen[e.Key()] = true
	assert.True(t, seen[e.Key()])
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(t.TempDir() + "/errors.db")
	require.NoError(t, err)
	defer cache.Close()

	payloads := []map[string]any{
		sampleError().ToJSON(false),
		Create(ast.Location{Path: "/repo/other.py", Start: ast.Position{Line: 1}},
			stubKind{code: 404, name: "Parsing failure", messages: []string{"bad"}}, nil).ToJSON(false),
	}
	runID, err := cache.SaveRun(2, payloads)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	loaded, err := cache.LoadRun(runID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	paths := []string{loaded[0]["path"].(string), loaded[1]["path"].(string)}
	assert.ElementsMatch(t, []string{"/repo/m.py", "/repo/other.py"}, paths)
}

func TestCacheUnknownRunIsEmpty(t *testing.T) {
	cache, err := OpenCache(t.TempDir() + "/errors.db")
	require.NoError(t, err)
	defer cache.Close()

	loaded, err := cache.LoadRun("does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
