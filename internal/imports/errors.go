package imports

import (
	"errors"
	"fmt"
)

var (
	// ErrImportNotFound indicates the import name doesn't exist in the registry
	ErrImportNotFound = errors.New("import not found")
	// ErrDuplicateName indicates the name is already registered
	ErrDuplicateName = errors.New("import already exists")
	// ErrSourceNotFound indicates the source descriptor cannot be resolved
	ErrSourceNotFound = errors.New("source not found")
	// ErrNetwork indicates a git or npm fetch failed
	ErrNetwork = errors.New("fetch failed")
	// ErrConflict indicates the materialization target exists in an incompatible form
	ErrConflict = errors.New("destination conflict")
)

// ImportError is the single error type crossing into the CLI. Hint, when
// set, suggests a follow-up action to the user.
type ImportError struct {
	Message string
	Hint    string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ImportError) Unwrap() error { return e.Err }

func newImportError(err error, message, hint string) *ImportError {
	return &ImportError{Message: message, Hint: hint, Err: err}
}

// wrapError maps internal sentinel errors to user-facing ImportErrors with
// hints. Errors already wrapped pass through untouched.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		return err
	}
	switch {
	case errors.Is(err, ErrImportNotFound):
		return newImportError(err, "import not found", "run 'knowns imports list' to see configured imports")
	case errors.Is(err, ErrDuplicateName):
		return newImportError(err, "an import with this name already exists", "use --force to overwrite, or --name to pick another name")
	case errors.Is(err, ErrSourceNotFound):
		return newImportError(err, "could not resolve source", "check the source path, URL, or package spec")
	case errors.Is(err, ErrNetwork):
		return newImportError(err, "failed to fetch source", "check network connectivity and source availability")
	case errors.Is(err, ErrConflict):
		return newImportError(err, "destination already exists in an incompatible form", "use --force to replace it")
	default:
		return newImportError(err, "import operation failed", "")
	}
}
