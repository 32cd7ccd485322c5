package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/knowns/knowns/internal/limits"
	"github.com/knowns/knowns/internal/logging"
)

// staging is a fetched source tree. cleanup releases any temporary
// directory and must be called on every exit path; for local sources it is
// a no-op because the staging dir is the source itself.
type staging struct {
	dir     string
	cleanup func()
}

// fetchSource resolves a source descriptor into a staging file tree.
func fetchSource(ctx context.Context, projectRoot string, cfg ImportConfig) (*staging, error) {
	defer logging.Timer("fetch")()

	switch cfg.Type {
	case SourceGit:
		return fetchGit(ctx, cfg.Source, cfg.Ref)
	case SourceNpm:
		return fetchNpm(ctx, cfg.Source, cfg.Ref)
	case SourceLocal:
		return fetchLocal(projectRoot, cfg.Source)
	default:
		return nil, fmt.Errorf("%w: unknown source type %q", ErrSourceNotFound, cfg.Type)
	}
}

func fetchGit(ctx context.Context, source, ref string) (*staging, error) {
	dir, err := os.MkdirTemp("", "knowns-git-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	opts := &git.CloneOptions{
		URL:          source,
		Depth:        1,
		SingleBranch: true,
	}
	if ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	}

	logging.Debug("cloning git source", logging.Source(source), "ref", ref)
	_, err = git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil && ref != "" && errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Ref may be a tag rather than a branch.
		opts.ReferenceName = plumbing.NewTagReferenceName(ref)
		_, err = git.PlainCloneContext(ctx, dir, false, opts)
	}
	if err != nil {
		cleanup()
		if errors.Is(err, transport.ErrRepositoryNotFound) || errors.Is(err, transport.ErrAuthenticationRequired) {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, source, err)
		}
		return nil, fmt.Errorf("%w: git clone %s: %v", ErrNetwork, source, err)
	}

	return &staging{dir: dir, cleanup: cleanup}, nil
}

// fetchNpm resolves source@ref through the npm CLI, which this design
// treats as an opaque package fetcher, and unpacks the tarball it produces.
func fetchNpm(ctx context.Context, source, ref string) (*staging, error) {
	spec := source
	if ref != "" {
		spec = source + "@" + ref
	}

	packDir, err := os.MkdirTemp("", "knowns-npm-pack-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(packDir) }()

	logging.Debug("fetching npm package", logging.Source(spec))
	cmd := exec.CommandContext(ctx, "npm", "pack", spec, "--pack-destination", packDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &bytes.Buffer{}
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > limits.ErrorBody {
			msg = msg[:limits.ErrorBody]
		}
		if strings.Contains(msg, "E404") || strings.Contains(msg, "ETARGET") {
			return nil, fmt.Errorf("%w: npm package %s: %s", ErrSourceNotFound, spec, strings.TrimSpace(msg))
		}
		return nil, fmt.Errorf("%w: npm pack %s: %s", ErrNetwork, spec, strings.TrimSpace(msg))
	}

	entries, err := os.ReadDir(packDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack output: %w", err)
	}
	var tarball string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tgz") {
			tarball = filepath.Join(packDir, e.Name())
			break
		}
	}
	if tarball == "" {
		return nil, fmt.Errorf("%w: npm pack produced no tarball for %s", ErrNetwork, spec)
	}

	dir, err := os.MkdirTemp("", "knowns-npm-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	if err := untarPackage(tarball, dir); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: unpack %s: %v", ErrNetwork, spec, err)
	}
	return &staging{dir: dir, cleanup: cleanup}, nil
}

func fetchLocal(projectRoot, source string) (*staging, error) {
	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, source, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	if !dirExists(abs) {
		return nil, fmt.Errorf("%w: local path %s does not exist", ErrSourceNotFound, source)
	}
	// The staging dir is the source path itself; nothing to release.
	return &staging{dir: abs, cleanup: func() {}}, nil
}
