package imports

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/knowns/knowns/internal/limits"
	"github.com/knowns/knowns/internal/logging"
)

// materialize applies a classified change set under destDir and returns the
// refreshed file records. Skip files are left untouched and keep their
// prior record; re-running against an unchanged import performs zero
// writes and zero manifest churn.
func materialize(changes []FileChange, stagingDir, destDir string, meta *ImportMetadata) ([]FileChange, []FileRecord, error) {
	records := make([]FileRecord, 0, len(changes))
	applied := make([]FileChange, 0, len(changes))

	for _, change := range changes {
		if change.Action == ActionSkip {
			if meta != nil {
				if rec, ok := meta.Record(change.Path); ok {
					records = append(records, rec)
				}
			}
			applied = append(applied, change)
			continue
		}

		src := filepath.Join(stagingDir, filepath.FromSlash(change.Path))
		info, err := os.Stat(src)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to stat staged file %s: %w", change.Path, err)
		}
		if info.Size() > limits.MaxImportFile {
			logging.Warn("skipping oversized file", logging.Path(change.Path), "size", info.Size())
			applied = append(applied, FileChange{Path: change.Path, Action: ActionSkip, SkipReason: SkipReasonTooLarge})
			if meta != nil {
				if rec, ok := meta.Record(change.Path); ok {
					records = append(records, rec)
				}
			}
			continue
		}

		dst := filepath.Join(destDir, filepath.FromSlash(change.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory for %s: %w", change.Path, err)
		}
		hash, size, err := copyFile(src, dst)
		if err != nil {
			return nil, nil, err
		}

		records = append(records, FileRecord{
			Path:        change.Path,
			ContentHash: hash,
			Size:        size,
			UpdatedAt:   time.Now().UTC(),
		})
		applied = append(applied, change)
	}

	// A file the source no longer provides keeps its record while the
	// materialized copy remains on disk, so a later re-add still runs the
	// local-modification check. Records of copies deleted locally are
	// dropped.
	if meta != nil {
		seen := make(map[string]struct{}, len(changes))
		for _, change := range changes {
			seen[change.Path] = struct{}{}
		}
		for _, rec := range meta.Files {
			if _, ok := seen[rec.Path]; ok {
				continue
			}
			dst := filepath.Join(destDir, filepath.FromSlash(rec.Path))
			if _, err := os.Lstat(dst); err == nil {
				records = append(records, rec)
			}
		}
	}
	return applied, records, nil
}

// copyFile copies src to dst, hashing the content as it streams.
func copyFile(src, dst string) (hash string, size int64, err error) {
	in, err := os.Open(src) // #nosec G304 - paths come from the matched staging tree
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) // #nosec G304
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	h := newHasher()
	size, err = io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		_ = out.Close()
		return "", 0, fmt.Errorf("failed to copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return h.Hex(), size, nil
}

// materializeLink creates a single symlink from destDir to the source root
// instead of enumerating files. An existing real directory at destDir fails
// with a conflict unless force, in which case it is replaced. An existing
// symlink is repointed idempotently.
func materializeLink(sourceDir, destDir string, force bool) error {
	info, err := os.Lstat(destDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", destDir, err)
	}
	if err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Readlink(destDir); err == nil && target == sourceDir {
				return nil
			}
			if err := os.Remove(destDir); err != nil {
				return fmt.Errorf("failed to remove existing symlink: %w", err)
			}
		} else {
			if !force {
				return fmt.Errorf("%w: %s exists as a real directory", ErrConflict, destDir)
			}
			if err := os.RemoveAll(destDir); err != nil {
				return fmt.Errorf("failed to replace %s: %w", destDir, err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return fmt.Errorf("failed to create imports directory: %w", err)
	}
	if err := os.Symlink(sourceDir, destDir); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	logging.Debug("linked import", logging.Path(destDir), "target", sourceDir)
	return nil
}
