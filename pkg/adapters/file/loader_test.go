package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/rapport/pkg/adapters/file"
	"github.com/aretw0/rapport/pkg/ports"
	"github.com/aretw0/rapport/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphDoc = `
entry: start
home: profile
nodes:
  - id: start
    kind: free_text
    field: source
    next: profile
  - id: profile
    prompt: "Your profile"
`

var _ ports.GraphMeta = (*file.Loader)(nil)

func TestFileLoader_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(graphDoc), 0o644))

	loader, err := file.NewLoader(path)
	require.NoError(t, err)
	tests.GraphLoaderContractTest(t, loader, []string{"start", "profile"})

	assert.Equal(t, "start", loader.EntryNode())
	assert.Equal(t, "profile", loader.HomeNode())
}

func TestFileLoader_Rejects(t *testing.T) {
	_, err := file.ParseGraph([]byte("nodes:\n  - kind: prompt\n"))
	assert.Error(t, err, "node without id")

	_, err = file.ParseGraph([]byte("nodes:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err, "duplicate id")

	_, err = file.NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
