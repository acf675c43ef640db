package render

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func testBindings() Bindings {
	return Bindings{
		"AppName":     "inventory-api",
		"Description": "inventory service",
	}
}

func TestRender_SubstitutesAndPreservesStructure(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeTemplate(t, root, map[string]string{
		"README.md":             "# {{ .AppName }}\n\n{{ .Description }}\n",
		"src/index.js":          "console.log('{{ .AppName }}');\n",
		"deploy/deployment.yml": "metadata:\n  name: {{ .AppName }}\n",
	})

	require.NoError(t, Render(root, dest, testBindings()))

	readme, err := os.ReadFile(filepath.Join(dest, "README.md"))
	require.NoError(t, err)
	require.Equal(t, "# inventory-api\n\ninventory service\n", string(readme))

	index, err := os.ReadFile(filepath.Join(dest, "src", "index.js"))
	require.NoError(t, err)
	require.Contains(t, string(index), "inventory-api")

	manifest, err := os.ReadFile(filepath.Join(dest, "deploy", "deployment.yml"))
	require.NoError(t, err)
	require.NotContains(t, string(manifest), "{{")
}

func TestRender_PreservesFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	root := t.TempDir()
	dest := t.TempDir()
	script := filepath.Join(root, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho {{ .AppName }}\n"), 0o755))

	require.NoError(t, Render(root, dest, testBindings()))

	info, err := os.Stat(filepath.Join(dest, "run.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestRender_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, map[string]string{
		"a.txt":     "{{ .AppName }}",
		"sub/b.txt": "{{ .Description }}",
	})

	first, err := RenderTree(root, testBindings())
	require.NoError(t, err)
	second, err := RenderTree(root, testBindings())
	require.NoError(t, err)

	require.Equal(t, first, second, "same root and bindings must yield byte-identical trees")
}

func TestRender_OverwritesExistingFiles(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeTemplate(t, root, map[string]string{"a.txt": "{{ .AppName }}"})
	require.NoError(t, os.WriteFile(filepath.Join(dest, "a.txt"), []byte("stale"), 0o644))

	require.NoError(t, Render(root, dest, testBindings()))

	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "inventory-api", string(got))
}

func TestRender_MissingBindingIsHardError(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, map[string]string{"a.txt": "{{ .AppName }} {{ .NotBound }}"})

	_, err := RenderTree(root, testBindings())
	require.Error(t, err)

	var unresolved *UnresolvedPlaceholderError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "a.txt", unresolved.Path)
}

func TestRender_LeftoverDelimiterRejected(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, map[string]string{"a.txt": "content with }} stray delimiter"})

	_, err := RenderTree(root, testBindings())
	var unresolved *UnresolvedPlaceholderError
	require.ErrorAs(t, err, &unresolved)
}

func TestRender_MissingRoot(t *testing.T) {
	err := Render(filepath.Join(t.TempDir(), "does-not-exist"), t.TempDir(), testBindings())
	require.ErrorIs(t, err, ErrTemplateMissing)
}

func TestRender_FailureWritesNothing(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeTemplate(t, root, map[string]string{
		"good.txt": "{{ .AppName }}",
		"bad.txt":  "{{ .NotBound }}",
	})

	err := Render(root, dest, testBindings())
	require.Error(t, err)

	entries, readErr := os.ReadDir(dest)
	require.NoError(t, readErr)
	require.Empty(t, entries, "a failed render must not leave partial output")
}

func TestRenderTree_MissingRootError(t *testing.T) {
	_, err := RenderTree("/nonexistent/template/root", testBindings())
	require.True(t, errors.Is(err, ErrTemplateMissing))
}
