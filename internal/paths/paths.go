package paths

import "path/filepath"

// KnownsDir is the name of the per-project state directory.
const KnownsDir = ".knowns"

func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, KnownsDir)
}

// ImportsDir holds materialized content, one subdirectory per import.
func ImportsDir(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), "imports")
}

func ImportDir(projectRoot, name string) string {
	return filepath.Join(ImportsDir(projectRoot), name)
}

// RegistryPath is the single registry file holding all import configs.
func RegistryPath(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), "imports.yaml")
}

func StateDir(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), "state")
}

func MetadataDir(projectRoot string) string {
	return filepath.Join(StateDir(projectRoot), "imports")
}

// MetadataPath is the per-import manifest record.
func MetadataPath(projectRoot, name string) string {
	return filepath.Join(MetadataDir(projectRoot), name+".yaml")
}

func HistoryDBPath(projectRoot string) string {
	return filepath.Join(StateDir(projectRoot), "history.db")
}
