package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const lineNetwork = `
nodes: [{id: 1, name: A}, {id: 2, name: B}]
links:
  - {id: 1, from: 1, to: 2, capacity: 5, length_km: 10}
demands:
  - {id: 1, from: 1, to: 2, offered_traffic: 3}
`

// writeFiles writes name->content pairs into a fresh temp dir and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}
