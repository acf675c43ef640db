// Package render materializes a parameterized template tree into a rendered
// tree with identical structure. Placeholders are Go text/template actions
// over a flat binding set; an unbound placeholder is a configuration error,
// never a silent blank.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
)

// ErrTemplateMissing indicates the template root does not exist or is not a
// directory.
var ErrTemplateMissing = errors.New("template root missing")

// UnresolvedPlaceholderError reports a placeholder that could not be
// substituted in a template file. It is a hard error: a tree containing one
// is never committed.
type UnresolvedPlaceholderError struct {
	// Path is the file relative to the template root.
	Path string
	// Detail describes the offending placeholder or template failure.
	Detail string
}

// Error implements the error interface.
func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("unresolved placeholder in %q: %s", e.Path, e.Detail)
}

// Bindings maps placeholder names to their substituted values.
type Bindings map[string]string

// File is a single rendered file: relative path, content and original mode.
type File struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

// RenderTree walks templateRoot, substitutes every placeholder in every
// regular file, and returns the rendered files in walk (lexical) order
// without writing anything.
func RenderTree(templateRoot string, bindings Bindings) ([]File, error) {
	info, err := os.Stat(templateRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrTemplateMissing, templateRoot)
	}

	var files []File
	walkErr := filepath.WalkDir(templateRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(templateRoot, path)
		if err != nil {
			return fmt.Errorf("relativize %q: %w", path, err)
		}
		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %q: %w", path, err)
		}
		content, err := renderFile(path, rel, bindings)
		if err != nil {
			return err
		}
		files = append(files, File{Path: rel, Content: content, Mode: fi.Mode().Perm()})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

// Render renders templateRoot into destRoot, creating destination
// directories as needed and overwriting pre-existing files. Relative paths
// and file permissions are preserved. Nothing is written unless the whole
// tree renders cleanly.
func Render(templateRoot, destRoot string, bindings Bindings) error {
	files, err := RenderTree(templateRoot, bindings)
	if err != nil {
		return err
	}

	for _, f := range files {
		target := filepath.Join(destRoot, f.Path)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create directory for %q: %w", f.Path, err)
		}
		if err := os.WriteFile(target, f.Content, f.Mode); err != nil {
			return fmt.Errorf("write %q: %w", f.Path, err)
		}
		// WriteFile does not change the mode of an overwritten file.
		if err := os.Chmod(target, f.Mode); err != nil {
			return fmt.Errorf("chmod %q: %w", f.Path, err)
		}
	}
	return nil
}

// renderFile substitutes placeholders in a single template file.
func renderFile(path, rel string, bindings Bindings) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %q: %w", rel, err)
	}

	tmpl, err := template.New(rel).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, &UnresolvedPlaceholderError{Path: rel, Detail: err.Error()}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, bindings); err != nil {
		return nil, &UnresolvedPlaceholderError{Path: rel, Detail: err.Error()}
	}

	out := buf.Bytes()
	if bytes.Contains(out, []byte("{{")) || bytes.Contains(out, []byte("}}")) {
		return nil, &UnresolvedPlaceholderError{Path: rel, Detail: "literal template delimiter left after substitution"}
	}
	return out, nil
}
