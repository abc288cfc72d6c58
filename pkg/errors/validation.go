package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePath validates a relative file path recorded inside a model, such
// as the location of an external tensor data file. It prevents path
// traversal out of the model's directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// passNameRegex matches pass names such as "lower-gemm".
var passNameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// ValidatePassName checks that name is syntactically a pass name. Whether
// a pass with that name exists is decided by the rewrite registry.
func ValidatePassName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPass, "pass name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidPass, "pass name too long (max 64 characters)")
	}
	if !passNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPass, "invalid pass name: %q", name)
	}
	return nil
}
