// Package render expands the YAML settings file as a text template so
// values can be sourced from environment variables.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// envTracker records environment variables that were referenced but unset.
type envTracker struct {
	missing map[string]struct{}
}

func (t *envTracker) markMissing(key string) {
	if t.missing == nil {
		t.missing = map[string]struct{}{}
	}
	t.missing[key] = struct{}{}
}

func (t *envTracker) missingKeys() []string {
	out := make([]string, 0, len(t.missing))
	for key := range t.missing {
		out = append(out, key)
	}
	return out
}

// File loads and renders a settings template from disk.
func File(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return Bytes(path, raw)
}

// Bytes renders a settings template from raw bytes. Referencing an
// unset environment variable via env is an error; envOr substitutes a
// default instead.
func Bytes(name string, raw []byte) ([]byte, error) {
	tracker := &envTracker{}
	templateName := name
	if strings.TrimSpace(templateName) == "" {
		templateName = "settings"
	}
	tmpl, err := template.New(templateName).Funcs(funcMap(tracker)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{}); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	if len(tracker.missing) > 0 {
		return nil, fmt.Errorf("missing env vars: %s", strings.Join(tracker.missingKeys(), ", "))
	}
	return buf.Bytes(), nil
}

func funcMap(tracker *envTracker) template.FuncMap {
	return template.FuncMap{
		"env": func(key string) string {
			value, ok := os.LookupEnv(key)
			if !ok {
				tracker.markMissing(key)
			}
			return value
		},
		"envOr": func(key, def string) string {
			if value, ok := os.LookupEnv(key); ok {
				return value
			}
			return def
		},
		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},
		"join":  func(sep string, items []string) string { return strings.Join(items, sep) },
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
