// Package template manages the per-deployment library of campaign
// HTML templates and renders them for one recipient.
package template

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultName is the template assumed when an account has not picked one.
const DefaultName = "mail.html"

const builtinHTML = `<html><body><p>Hello {{.Name}}, check this out!</p></body></html>`

// RenderData is what a campaign template sees.
type RenderData struct {
	Name  string
	Email string
}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns the uploaded template names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Upload stores a new template file. The name is flattened to its base
// so an upload cannot escape the template directory.
func (s *Store) Upload(name string, r io.Reader) error {
	name = filepath.Base(name)
	if !strings.HasSuffix(name, ".html") {
		return fmt.Errorf("only HTML templates are allowed")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create template dir: %w", err)
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create template file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write template file: %w", err)
	}
	return nil
}

// Source returns the raw template text, falling back first to the
// default template file and then to the builtin. It never fails: the
// dispatcher needs something to send even when the library is empty.
func (s *Store) Source(name string) string {
	if name == "" {
		name = DefaultName
	}
	for _, candidate := range []string{name, DefaultName} {
		data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(candidate)))
		if err == nil {
			return string(data)
		}
	}
	return builtinHTML
}

// Render executes the named template for one recipient.
func (s *Store) Render(name, recipientName, email string) (string, error) {
	src := s.Source(name)

	tmpl, err := htmltemplate.New(name).Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, RenderData{Name: recipientName, Email: email}); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}
