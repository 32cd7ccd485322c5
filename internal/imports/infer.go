package imports

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	gitURLPattern  = regexp.MustCompile(`^(https?|git|ssh)://`)
	scpLikePattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+:`)
	npmSpecPattern = regexp.MustCompile(`^(@[a-z0-9][\w.-]*/)?[a-z0-9][\w.-]*$`)
	validName      = regexp.MustCompile(`^[\w][\w.-]*$`)
)

// inferSourceType guesses the source kind from the descriptor shape:
// recognizable git URL or .git suffix means git, an existing filesystem
// path means local, and a package-spec-like string means npm.
func inferSourceType(projectRoot, source string) (SourceType, bool) {
	if strings.HasSuffix(source, ".git") || gitURLPattern.MatchString(source) || scpLikePattern.MatchString(source) {
		return SourceGit, true
	}

	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, path)
	}
	if _, err := os.Stat(path); err == nil {
		return SourceLocal, true
	}

	if npmSpecPattern.MatchString(source) {
		return SourceNpm, true
	}
	return "", false
}

// deriveName produces a default import name from the descriptor: the repo
// basename minus .git, the npm package name minus its scope, or the local
// directory basename.
func deriveName(source string, typ SourceType) string {
	switch typ {
	case SourceGit:
		name := source
		if i := strings.LastIndexAny(name, "/:"); i >= 0 {
			name = name[i+1:]
		}
		return strings.TrimSuffix(name, ".git")
	case SourceNpm:
		name := source
		if strings.HasPrefix(name, "@") {
			if i := strings.IndexByte(name, '/'); i >= 0 {
				name = name[i+1:]
			}
		}
		return name
	default:
		return filepath.Base(filepath.Clean(source))
	}
}
