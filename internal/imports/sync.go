package imports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knowns/knowns/internal/logging"
	"github.com/knowns/knowns/internal/paths"
)

// ImportSource registers a new import and runs one full sync cycle. The
// source type is inferred from the descriptor shape unless opts.Type is
// set, and a default name is derived from the source unless opts.Name is
// given.
func ImportSource(ctx context.Context, projectRoot, source string, opts Options) ImportResult {
	typ := opts.Type
	switch typ {
	case "":
		inferred, ok := inferSourceType(projectRoot, source)
		if !ok {
			return failedResult(opts.Name, source, "", wrapError(fmt.Errorf("%w: cannot infer source type of %q", ErrSourceNotFound, source)))
		}
		typ = inferred
	case SourceGit, SourceNpm, SourceLocal:
	default:
		return failedResult(opts.Name, source, typ, &ImportError{
			Message: fmt.Sprintf("unknown source type %q", typ),
			Hint:    "valid types are git, npm, and local",
		})
	}

	name := opts.Name
	if name == "" {
		name = deriveName(source, typ)
	}
	// The name doubles as the destination folder key; keep it a single
	// path segment.
	if !validName.MatchString(name) {
		return failedResult(name, source, typ, &ImportError{
			Message: fmt.Sprintf("invalid import name %q", name),
			Hint:    "names may contain letters, digits, dots, dashes, and underscores",
		})
	}

	cfg := ImportConfig{
		Name:      name,
		Source:    source,
		Type:      typ,
		Ref:       opts.Ref,
		Include:   opts.Include,
		Exclude:   opts.Exclude,
		Link:      opts.Link && typ == SourceLocal,
		CreatedAt: time.Now().UTC(),
	}

	if err := validatePatterns(cfg.Include); err != nil {
		return failedResult(name, source, typ, err)
	}
	if err := validatePatterns(cfg.Exclude); err != nil {
		return failedResult(name, source, typ, err)
	}

	reg, err := OpenRegistry(projectRoot)
	if err != nil {
		return failedResult(name, source, typ, wrapError(err))
	}
	if opts.DryRun {
		// Dry run must not touch the registry either; run the pipeline
		// against the unregistered config.
		return runSync(ctx, projectRoot, cfg, opts)
	}
	if err := reg.AddAndSave(cfg, opts.Force); err != nil {
		return failedResult(name, source, typ, wrapError(err))
	}

	return runSync(ctx, projectRoot, cfg, opts)
}

// SyncImport runs one sync cycle for a configured import.
func SyncImport(ctx context.Context, projectRoot, name string, opts Options) ImportResult {
	reg, err := OpenRegistry(projectRoot)
	if err != nil {
		return failedResult(name, "", "", wrapError(err))
	}
	cfg, err := reg.Get(name)
	if err != nil {
		return failedResult(name, "", "", wrapError(err))
	}
	return runSync(ctx, projectRoot, cfg, opts)
}

// SyncAllImports syncs every configured import sequentially in registry
// order. A failure in one import does not abort the batch; the result
// slice holds one entry per import regardless of individual outcome.
func SyncAllImports(ctx context.Context, projectRoot string, opts Options) ([]ImportResult, error) {
	reg, err := OpenRegistry(projectRoot)
	if err != nil {
		return nil, wrapError(err)
	}

	configs := reg.List()
	results := make([]ImportResult, 0, len(configs))
	for _, cfg := range configs {
		results = append(results, runSync(ctx, projectRoot, cfg, opts))
	}
	return results, nil
}

// RemoveImport deletes the registry entry and, when deleteFiles is set, the
// materialized content. Symlinked imports are unlinked rather than
// recursively deleted so the original local source is never destroyed.
func RemoveImport(projectRoot, name string, deleteFiles bool) (bool, error) {
	reg, err := OpenRegistry(projectRoot)
	if err != nil {
		return false, wrapError(err)
	}
	cfg, err := reg.RemoveAndSave(name)
	if err != nil {
		return false, wrapError(err)
	}

	if deleteFiles {
		dest := paths.ImportDir(projectRoot, name)
		if cfg.Link {
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return false, wrapError(fmt.Errorf("failed to unlink %s: %w", dest, err))
			}
		} else {
			if err := os.RemoveAll(dest); err != nil {
				return false, wrapError(fmt.Errorf("failed to delete %s: %w", dest, err))
			}
		}
	}

	if err := DeleteMetadata(projectRoot, name); err != nil {
		return false, wrapError(err)
	}

	logging.Info("removed import", logging.Import(name), "deleted_files", deleteFiles)
	return true, nil
}

// GetImportsWithMetadata pairs every configured import with its manifest,
// in registry order.
func GetImportsWithMetadata(projectRoot string) ([]ImportWithMetadata, error) {
	reg, err := OpenRegistry(projectRoot)
	if err != nil {
		return nil, wrapError(err)
	}

	configs := reg.List()
	out := make([]ImportWithMetadata, 0, len(configs))
	for _, cfg := range configs {
		meta, err := LoadMetadata(projectRoot, cfg.Name)
		if err != nil {
			return nil, wrapError(err)
		}
		out = append(out, ImportWithMetadata{Config: cfg, Metadata: meta})
	}
	return out, nil
}

// runSync executes the pipeline for one import and journals the outcome.
// Dry runs are not journaled.
func runSync(ctx context.Context, projectRoot string, cfg ImportConfig, opts Options) ImportResult {
	started := time.Now().UTC()
	result := syncPipeline(ctx, projectRoot, cfg, opts)
	if !opts.DryRun {
		recordRun(projectRoot, started, result)
	}
	return result
}

// syncPipeline is one sync cycle:
// fetch -> match -> detect -> (dry-run report | materialize) -> metadata update.
func syncPipeline(ctx context.Context, projectRoot string, cfg ImportConfig, opts Options) ImportResult {
	defer logging.Timer("sync")()
	logging.Debug("starting sync",
		logging.Import(cfg.Name),
		logging.Source(cfg.Source),
		"type", string(cfg.Type),
		"force", opts.Force,
		"dry_run", opts.DryRun,
	)

	result := ImportResult{
		Name:    cfg.Name,
		Source:  cfg.Source,
		Type:    cfg.Type,
		Changes: []FileChange{},
	}

	staged, err := fetchSource(ctx, projectRoot, cfg)
	if err != nil {
		return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
	}
	defer staged.cleanup()

	destDir := paths.ImportDir(projectRoot, cfg.Name)

	// Symlink mode skips matching and hashing entirely; content is live.
	if cfg.Link {
		if opts.DryRun {
			result.Success = true
			return result
		}
		if err := materializeLink(staged.dir, destDir, opts.Force); err != nil {
			return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
		}
		meta := &ImportMetadata{ImportName: cfg.Name, LastSync: time.Now().UTC()}
		if err := SaveMetadata(projectRoot, meta); err != nil {
			return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
		}
		result.Success = true
		return result
	}

	candidates, err := matchFiles(staged.dir, cfg.Include, cfg.Exclude)
	if err != nil {
		return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
	}
	logging.Debug("matched candidates", logging.Import(cfg.Name), logging.Count(len(candidates)))

	meta, err := LoadMetadata(projectRoot, cfg.Name)
	if err != nil {
		return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
	}

	changes, err := detectChanges(candidates, staged.dir, destDir, meta, opts.Force)
	if err != nil {
		return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
	}

	if opts.DryRun {
		result.Success = true
		result.Changes = changes
		return result
	}

	applied, records, err := materialize(changes, staged.dir, destDir, meta)
	if err != nil {
		return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
	}

	result.Success = true
	result.Changes = applied
	adds, updates, skips := result.Counts()

	// Zero writes means zero manifest churn: a fully unchanged import
	// leaves the metadata file untouched.
	unchanged := meta != nil && adds == 0 && updates == 0 && len(records) == len(meta.Files)
	if !unchanged {
		newMeta := &ImportMetadata{
			ImportName: cfg.Name,
			LastSync:   time.Now().UTC(),
			Files:      records,
		}
		if err := SaveMetadata(projectRoot, newMeta); err != nil {
			return failedResult(cfg.Name, cfg.Source, cfg.Type, wrapError(err))
		}
	}

	logging.Info("sync completed",
		logging.Import(cfg.Name),
		"added", adds,
		"updated", updates,
		"skipped", skips,
	)
	return result
}

func failedResult(name, source string, typ SourceType, err error) ImportResult {
	logging.Error("sync failed", logging.Import(name), logging.Err(err))
	res := ImportResult{
		Name:    name,
		Source:  source,
		Type:    typ,
		Changes: []FileChange{},
		Error:   err.Error(),
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		res.Hint = ie.Hint
	}
	return res
}
