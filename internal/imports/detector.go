package imports

import (
	"path/filepath"
)

// detectChanges classifies each candidate file against the persisted
// manifest and the current on-disk copy in destDir.
//
// Rules, in priority order:
//  1. no prior record for the path -> add
//  2. on-disk hash differs from the record (user edited the copy) and
//     force is false -> skip "Local modifications detected", regardless of
//     whether the fetched content also changed
//  3. fetched hash differs from the record -> update
//  4. fetched hash equals the record -> skip "unchanged"
//
// A recorded file missing from destDir is re-materialized as an add.
func detectChanges(candidates []string, stagingDir, destDir string, meta *ImportMetadata, force bool) ([]FileChange, error) {
	changes := make([]FileChange, 0, len(candidates))

	for _, rel := range candidates {
		change, err := classify(rel, stagingDir, destDir, meta, force)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func classify(rel, stagingDir, destDir string, meta *ImportMetadata, force bool) (FileChange, error) {
	var record FileRecord
	var recorded bool
	if meta != nil {
		record, recorded = meta.Record(rel)
	}
	if !recorded {
		return FileChange{Path: rel, Action: ActionAdd}, nil
	}

	destHash, onDisk, err := hashFile(filepath.Join(destDir, filepath.FromSlash(rel)))
	if err != nil {
		return FileChange{}, err
	}
	if !onDisk {
		// Record exists but the copy is gone; write it back.
		return FileChange{Path: rel, Action: ActionAdd}, nil
	}

	if destHash != record.ContentHash && !force {
		return FileChange{Path: rel, Action: ActionSkip, SkipReason: SkipReasonLocalModifications}, nil
	}

	fetchedHash, ok, err := hashFile(filepath.Join(stagingDir, filepath.FromSlash(rel)))
	if err != nil {
		return FileChange{}, err
	}
	if !ok {
		// Candidate vanished between match and detect; treat as unchanged.
		return FileChange{Path: rel, Action: ActionSkip, SkipReason: SkipReasonUnchanged}, nil
	}

	if fetchedHash != record.ContentHash {
		return FileChange{Path: rel, Action: ActionUpdate}, nil
	}
	if destHash != record.ContentHash {
		// force=true with a local edit but unchanged source: restore the
		// recorded content.
		return FileChange{Path: rel, Action: ActionUpdate}, nil
	}
	return FileChange{Path: rel, Action: ActionSkip, SkipReason: SkipReasonUnchanged}, nil
}
