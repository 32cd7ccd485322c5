package limits

// Size limits applied during import materialization

const (
	// MaxImportFile is the largest file the materializer will copy (50MB).
	// Larger files are skipped with a per-file reason, not a hard failure.
	MaxImportFile = 50 << 20

	// ErrorBody is the maximum size read from failed fetch command output (1KB)
	ErrorBody = 1024
)
