package imports

import "time"

// SourceType identifies the kind of external source an import pulls from.
type SourceType string

const (
	SourceGit   SourceType = "git"
	SourceNpm   SourceType = "npm"
	SourceLocal SourceType = "local"
)

// ImportConfig describes a registered external source. Name is unique across
// the registry and doubles as the materialized-content folder key.
type ImportConfig struct {
	Name      string     `yaml:"name" json:"name"`
	Source    string     `yaml:"source" json:"source"`
	Type      SourceType `yaml:"type" json:"type"`
	Ref       string     `yaml:"ref,omitempty" json:"ref,omitempty"`
	Include   []string   `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude   []string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Link      bool       `yaml:"link,omitempty" json:"link,omitempty"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
}

// FileRecord captures one materialized file's content as of the last
// successful sync. Paths are slash-separated and relative to the import's
// destination directory.
type FileRecord struct {
	Path        string    `yaml:"path" json:"path"`
	ContentHash string    `yaml:"content_hash" json:"content_hash"`
	Size        int64     `yaml:"size" json:"size"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// ImportMetadata is the per-import manifest. Symlinked imports carry no
// file records; their content is live.
type ImportMetadata struct {
	ImportName string       `yaml:"import_name" json:"import_name"`
	LastSync   time.Time    `yaml:"last_sync" json:"last_sync"`
	Files      []FileRecord `yaml:"files" json:"files"`
}

// Record returns the file record for a relative path, if present.
func (m *ImportMetadata) Record(path string) (FileRecord, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileRecord{}, false
}

// Action classifies what a sync does with one candidate file.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

// Skip reasons surfaced in FileChange.SkipReason.
const (
	SkipReasonLocalModifications = "Local modifications detected"
	SkipReasonUnchanged          = "unchanged"
	SkipReasonTooLarge           = "file exceeds size limit"
)

// FileChange is the per-file outcome of change detection.
type FileChange struct {
	Path       string `yaml:"path" json:"path"`
	Action     Action `yaml:"action" json:"action"`
	SkipReason string `yaml:"skip_reason,omitempty" json:"skip_reason,omitempty"`
}

// ImportResult is the outcome of one import or sync cycle. Partial success
// (some files skipped) still reports Success=true; only whole-operation
// failures clear it.
type ImportResult struct {
	Success bool         `json:"success"`
	Name    string       `json:"name"`
	Source  string       `json:"source"`
	Type    SourceType   `json:"type"`
	Changes []FileChange `json:"changes"`
	Error   string       `json:"error,omitempty"`
	// Hint carries the remedial suggestion of an ImportError, when the
	// failure had one.
	Hint string `json:"hint,omitempty"`
}

// Counts returns the number of add, update, and skip changes.
func (r *ImportResult) Counts() (adds, updates, skips int) {
	for _, c := range r.Changes {
		switch c.Action {
		case ActionAdd:
			adds++
		case ActionUpdate:
			updates++
		case ActionSkip:
			skips++
		}
	}
	return adds, updates, skips
}

// Options configures an import or sync operation.
type Options struct {
	// Name overrides the derived import name (ImportSource only).
	Name string
	// Type overrides source type inference (ImportSource only).
	Type SourceType
	// Ref is the branch, tag, or version to fetch (ImportSource only).
	Ref string
	// Include/Exclude are glob patterns over relative paths.
	Include []string
	Exclude []string
	// Link enables symlink mode for local sources.
	Link bool
	// Force overwrites duplicate names, local modifications, and
	// conflicting destinations.
	Force bool
	// DryRun computes and reports the change set without writing.
	DryRun bool
}

// ImportWithMetadata pairs a config with its manifest for listing.
// Metadata is nil when the import has never completed a sync.
type ImportWithMetadata struct {
	Config   ImportConfig    `json:"config"`
	Metadata *ImportMetadata `json:"metadata,omitempty"`
}
