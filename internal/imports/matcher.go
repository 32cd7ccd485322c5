package imports

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// matchFiles walks the staging tree and returns the relative slash paths
// selected by the include/exclude patterns, sorted lexicographically.
// An empty include list selects everything. Exclude is evaluated after
// include and always wins. The .git directory is never a candidate.
func matchFiles(stagingDir string, include, exclude []string) ([]string, error) {
	var matched []string

	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		// Skip sockets, devices, and other irregular entries; symlinks
		// inside the source tree are followed as files by os.Stat later,
		// but here we only take regular files.
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		ok, err := pathSelected(rel, include, exclude)
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matched)
	return matched, nil
}

func pathSelected(rel string, include, exclude []string) (bool, error) {
	included := len(include) == 0
	for _, pat := range include {
		ok, err := doublestar.Match(pat, rel)
		if err != nil {
			return false, err
		}
		if ok {
			included = true
			break
		}
	}
	if !included {
		return false, nil
	}
	for _, pat := range exclude {
		ok, err := doublestar.Match(pat, rel)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// validatePatterns rejects malformed globs up front so a bad pattern fails
// the operation instead of silently matching nothing.
func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return &ImportError{Message: "invalid glob pattern: " + pat}
		}
	}
	return nil
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
