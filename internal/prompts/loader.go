// Package prompts holds the text-generation prompt templates. Each JSON file maps a prompt
// key to a text/template body and is embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

// file is one parsed prompt file.
type file struct {
	raw       map[string]string
	templates map[string]*template.Template
}

var (
	filesMu sync.RWMutex
	files   = make(map[string]*file)
)

// Get returns the unrendered template body stored under key in filename (e.g. "assist.json").
func Get(filename, key string) (string, error) {
	f, err := load(filename)
	if err != nil {
		return "", err
	}
	body, ok := f.raw[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return body, nil
}

// GetRendered renders the prompt stored under key in filename with data.
// Every template referenced by data must resolve; missing fields are an error.
func GetRendered(filename, key string, data any) (string, error) {
	f, err := load(filename)
	if err != nil {
		return "", err
	}
	tmpl, ok := f.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return execute(tmpl, data)
}

// Render parses prompt as a template and executes it against data.
// Values are inserted verbatim; prompts are plain text, not HTML.
func Render(prompt string, data any) (string, error) {
	tmpl, err := parse("prompt", prompt)
	if err != nil {
		return "", err
	}
	return execute(tmpl, data)
}

// List returns the prompt keys of filename, sorted.
func List(filename string) ([]string, error) {
	f, err := load(filename)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(f.raw)), nil
}

// ClearCache drops every loaded prompt file.
func ClearCache() {
	filesMu.Lock()
	files = make(map[string]*file)
	filesMu.Unlock()
}

func parse(name, body string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template %s: %w", name, err)
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

// load reads, parses and caches filename. Every template in the file is parsed up front.
func load(filename string) (*file, error) {
	filesMu.RLock()
	f, ok := files[filename]
	filesMu.RUnlock()
	if ok {
		return f, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	f = &file{templates: make(map[string]*template.Template)}
	if err := json.Unmarshal(data, &f.raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	for key, body := range f.raw {
		tmpl, err := parse(key, body)
		if err != nil {
			return nil, err
		}
		f.templates[key] = tmpl
	}

	filesMu.Lock()
	files[filename] = f
	filesMu.Unlock()

	return f, nil
}
