package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	"deal_diligence/pkg/core/logger"
)

//go:embed library
var library embed.FS

const libraryRoot = "library"

// LoadFromDirectory registers every prompt under dir into the global
// registry, replacing built-in entries with the same ID. Expected layout:
//
//	dir/
//	  extraction/
//	    statement.json
//	  insights/
//	    memo.json
func LoadFromDirectory(dir string) error {
	r := Get()
	before := r.Count()
	if err := LoadFS(r, os.DirFS(dir), "."); err != nil {
		return fmt.Errorf("failed to load prompts from %s: %w", dir, err)
	}
	logger.Log.WithField("dir", dir).Infof("loaded prompt overrides, %d new IDs", r.Count()-before)
	return nil
}

// LoadFS walks root in fsys and registers every .json file found.
func LoadFS(r *Registry, fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}

		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, root+"/")
		}
		if pt.ID == "" {
			pt.ID = generateIDFromPath(rel)
		}
		if pt.Category == "" {
			pt.Category = detectCategory(rel)
		}
		if _, err := template.New(pt.ID).Parse(pt.UserPromptTmpl); err != nil {
			return fmt.Errorf("prompt %s has a bad template: %w", pt.ID, err)
		}

		return r.Register(&pt)
	})
}

// generateIDFromPath creates a prompt ID from the file path
// e.g., "extraction/statement.json" -> "extraction.statement"
func generateIDFromPath(rel string) string {
	return strings.ReplaceAll(strings.TrimSuffix(rel, ".json"), "/", ".")
}

// detectCategory extracts the category from the folder structure
func detectCategory(rel string) string {
	if i := strings.Index(rel, "/"); i > 0 {
		return rel[:i]
	}
	return "default"
}

// RenderUserPrompt executes the user prompt template. Declared defaults fill
// unset variables; a missing required variable is an error.
func RenderUserPrompt(pt *PromptTemplate, vars Vars) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}

	data := make(Vars, len(vars)+len(pt.Variables))
	for _, v := range pt.Variables {
		if v.Default != "" {
			data[v.Name] = v.Default
		}
	}
	for k, v := range vars {
		data[k] = v
	}
	for _, v := range pt.Variables {
		if _, ok := data[v.Name]; v.Required && !ok {
			return "", fmt.Errorf("missing required variable %s", v.Name)
		}
	}

	tmpl, err := template.New(pt.ID).Option("missingkey=error").Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
