// Package docs resolves markdown documents materialized by the import
// engine. Consumers see provenance only through each import's recorded
// source descriptor, which qualifies cross-references between projects.
package docs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/knowns/knowns/internal/imports"
	"github.com/knowns/knowns/internal/paths"
)

// Doc is one resolvable markdown document under an import.
type Doc struct {
	Import string `json:"import"`
	Source string `json:"source"`
	Path   string `json:"path"`
	Title  string `json:"title"`
}

// matter is the subset of frontmatter fields the resolver cares about.
type matter struct {
	Title string `yaml:"title"`
}

// List enumerates markdown documents across all imports, in registry order
// then path order within each import.
func List(projectRoot string) ([]Doc, error) {
	entries, err := imports.GetImportsWithMetadata(projectRoot)
	if err != nil {
		return nil, err
	}

	var docs []Doc
	for _, entry := range entries {
		root := paths.ImportDir(projectRoot, entry.Config.Name)
		if _, err := os.Stat(root); err != nil {
			continue // never synced, or content removed
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			docs = append(docs, Doc{
				Import: entry.Config.Name,
				Source: entry.Config.Source,
				Path:   filepath.ToSlash(rel),
				Title:  docTitle(path),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan import %s: %w", entry.Config.Name, err)
		}
	}
	return docs, nil
}

// Resolve reads one materialized document by import name and relative path
// and returns its body with frontmatter stripped.
func Resolve(projectRoot, importName, relPath string) (Doc, []byte, error) {
	entries, err := imports.GetImportsWithMetadata(projectRoot)
	if err != nil {
		return Doc{}, nil, err
	}

	var source string
	found := false
	for _, entry := range entries {
		if entry.Config.Name == importName {
			source = entry.Config.Source
			found = true
			break
		}
	}
	if !found {
		return Doc{}, nil, fmt.Errorf("import %q is not configured", importName)
	}

	path := filepath.Join(paths.ImportDir(projectRoot, importName), filepath.FromSlash(relPath))
	f, err := os.Open(path) // #nosec G304 - path is scoped to the import directory
	if err != nil {
		return Doc{}, nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	var fm matter
	body, err := frontmatter.Parse(f, &fm)
	if err != nil {
		return Doc{}, nil, fmt.Errorf("failed to parse document: %w", err)
	}

	doc := Doc{Import: importName, Source: source, Path: relPath, Title: fm.Title}
	if doc.Title == "" {
		doc.Title = titleFromBody(body, relPath)
	}
	return doc, body, nil
}

// docTitle extracts a display title from frontmatter, the first H1, or the
// filename as a last resort.
func docTitle(path string) string {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return strings.TrimSuffix(filepath.Base(path), ".md")
	}
	defer func() { _ = f.Close() }()

	var fm matter
	body, err := frontmatter.Parse(f, &fm)
	if err == nil && fm.Title != "" {
		return fm.Title
	}
	if err != nil {
		return strings.TrimSuffix(filepath.Base(path), ".md")
	}
	return titleFromBody(body, path)
}

func titleFromBody(body []byte, path string) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return strings.TrimSuffix(filepath.Base(path), ".md")
}
