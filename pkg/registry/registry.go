// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LoadRegistry reads a message template registry from a JSON file.
func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TemplateRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse template registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("template registry %s: %w", path, err)
	}
	return &reg, nil
}

// Validate checks every template has a header and languages are unique.
func (r *TemplateRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Templates))
	for _, t := range r.Templates {
		if len(t.Language) != 2 {
			return fmt.Errorf("language %q must be a two letter code", t.Language)
		}
		if t.Header == "" {
			return fmt.Errorf("template %q has no header", t.Language)
		}
		lang := strings.ToLower(t.Language)
		if seen[lang] {
			return fmt.Errorf("duplicate template for language %q", lang)
		}
		seen[lang] = true
	}
	return nil
}

// Upsert adds t or replaces the template with the same language.
func (r *TemplateRegistry) Upsert(t MessageTemplate) {
	t.Language = strings.ToLower(t.Language)
	for i := range r.Templates {
		if strings.EqualFold(r.Templates[i].Language, t.Language) {
			r.Templates[i] = t
			return
		}
	}
	r.Templates = append(r.Templates, t)
}

// Save validates and writes the registry, stamping LastUpdated.
func (r *TemplateRegistry) Save(path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
