package imports

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/knowns/knowns/internal/paths"
)

// registryData is the persisted shape of the registry file.
type registryData struct {
	Imports []ImportConfig `yaml:"imports"`
}

// Registry manages the collection of configured imports for one project.
// The registry file is read, modified, and rewritten as a whole per
// operation; concurrent invocations against the same project are not safe.
type Registry struct {
	projectRoot string
	filePath    string
	data        *registryData
	mu          sync.RWMutex
}

// OpenRegistry loads the project's import registry, starting empty when the
// file does not exist yet.
func OpenRegistry(projectRoot string) (*Registry, error) {
	r := &Registry{
		projectRoot: projectRoot,
		filePath:    paths.RegistryPath(projectRoot),
		data:        &registryData{},
	}
	if err := r.load(); err != nil {
		return nil, fmt.Errorf("failed to load import registry: %w", err)
	}
	return r, nil
}

func (r *Registry) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			r.data = &registryData{}
			return nil
		}
		return err
	}

	var rd registryData
	if err := yaml.Unmarshal(data, &rd); err != nil {
		return fmt.Errorf("failed to unmarshal registry: %w", err)
	}
	r.data = &rd
	return nil
}

// saveNoLock persists the registry without locking (caller must hold lock).
// The file is written to a temp sibling and atomically renamed into place.
func (r *Registry) saveNoLock() error {
	dir := filepath.Dir(r.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(r.data)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	f, err := os.CreateTemp(dir, ".imports-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	// Best-effort cleanup if we fail
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to fsync registry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close registry file: %w", err)
	}

	if err := os.Rename(tmp, r.filePath); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

// AddAndSave registers an import and persists the registry. A name
// collision fails with ErrDuplicateName unless force, which overwrites the
// existing config in place. On save failure the in-memory change is rolled
// back.
func (r *Registry) AddAndSave(cfg ImportConfig, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := -1
	for i, existing := range r.data.Imports {
		if existing.Name == cfg.Name {
			if !force {
				return fmt.Errorf("%w: %s", ErrDuplicateName, cfg.Name)
			}
			replaced = i
			break
		}
	}

	var prev ImportConfig
	if replaced >= 0 {
		prev = r.data.Imports[replaced]
		r.data.Imports[replaced] = cfg
	} else {
		r.data.Imports = append(r.data.Imports, cfg)
	}

	if err := r.saveNoLock(); err != nil {
		if replaced >= 0 {
			r.data.Imports[replaced] = prev
		} else {
			r.data.Imports = r.data.Imports[:len(r.data.Imports)-1]
		}
		return fmt.Errorf("persist failed: %w", err)
	}
	return nil
}

// RemoveAndSave deletes an import config and persists the registry. On save
// failure the removal is rolled back.
func (r *Registry) RemoveAndSave(name string) (ImportConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, cfg := range r.data.Imports {
		if cfg.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ImportConfig{}, fmt.Errorf("%w: %s", ErrImportNotFound, name)
	}

	removed := r.data.Imports[idx]
	r.data.Imports = append(r.data.Imports[:idx], r.data.Imports[idx+1:]...)

	if err := r.saveNoLock(); err != nil {
		r.data.Imports = append(r.data.Imports[:idx], append([]ImportConfig{removed}, r.data.Imports[idx:]...)...)
		return ImportConfig{}, fmt.Errorf("persist failed: %w", err)
	}
	return removed, nil
}

// Get returns the config for name.
func (r *Registry) Get(name string) (ImportConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cfg := range r.data.Imports {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return ImportConfig{}, fmt.Errorf("%w: %s", ErrImportNotFound, name)
}

// List returns all configs in registry order. Presentation ordering (e.g.
// local-first) is a CLI concern.
func (r *Registry) List() []ImportConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ImportConfig, len(r.data.Imports))
	copy(out, r.data.Imports)
	return out
}

// LoadMetadata reads the per-import manifest. Returns (nil, nil) when the
// import has never completed a sync.
func LoadMetadata(projectRoot, name string) (*ImportMetadata, error) {
	data, err := os.ReadFile(paths.MetadataPath(projectRoot, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read metadata for %s: %w", name, err)
	}

	var meta ImportMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", name, err)
	}
	return &meta, nil
}

// SaveMetadata persists the per-import manifest with the same atomic
// temp-file-and-rename scheme as the registry.
func SaveMetadata(projectRoot string, meta *ImportMetadata) error {
	dir := paths.MetadataDir(projectRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+meta.ImportName+"-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to fsync metadata: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close metadata file: %w", err)
	}
	if err := os.Rename(tmp, paths.MetadataPath(projectRoot, meta.ImportName)); err != nil {
		return fmt.Errorf("failed to replace metadata: %w", err)
	}
	return nil
}

// DeleteMetadata removes the per-import manifest; missing files are fine.
func DeleteMetadata(projectRoot, name string) error {
	err := os.Remove(paths.MetadataPath(projectRoot, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete metadata for %s: %w", name, err)
	}
	return nil
}
