package scanner_test

import (
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/glehmann/earthlyls/internal/scanner"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"/ws/Earthfile":                  "VERSION 0.8\n",
		"/ws/a/Earthfile":                "VERSION 0.8\nFROM alpine\n",
		"/ws/a/b/Earthfile":              "VERSION 0.7\n",
		"/ws/a/b/README.md":              "not an earthfile",
		"/ws/a/Earthfile.bak":            "VERSION 0.6\n",
		"/ws/.git/Earthfile":             "ignored",
		"/ws/node_modules/pkg/Earthfile": "ignored",
		"/other/Earthfile":               "outside",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}

	var mu sync.Mutex
	found := map[string]string{}
	n := scanner.Scan(fsys, "/ws", scanner.Options{
		Pattern:    "**/Earthfile",
		IgnoreDirs: []string{".git", "node_modules"},
		Workers:    3,
	}, func(path string, document []byte) {
		mu.Lock()
		defer mu.Unlock()
		found[filepath.ToSlash(path)] = string(document)
	})

	paths := make([]string, 0, len(found))
	for p := range found {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"/ws/Earthfile", "/ws/a/Earthfile", "/ws/a/b/Earthfile"}, paths)
	assert.Equal(t, "VERSION 0.8\nFROM alpine\n", found["/ws/a/Earthfile"])
}

func TestScanMissingRoot(t *testing.T) {
	n := scanner.Scan(afero.NewMemMapFs(), "/missing", scanner.Options{Pattern: "**/Earthfile"}, func(string, []byte) {
		t.Fatal("unexpected callback")
	})
	assert.Equal(t, 0, n)
}
