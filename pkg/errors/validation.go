package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxComponentIDLength bounds component identifiers.
const maxComponentIDLength = 256

// componentIDRegex matches identifiers registries can store as file names,
// Redis keys and MongoDB ids alike.
var componentIDRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidateComponentID validates a component identifier before it is used as a
// registry lookup key. It rejects names that could escape a manifest
// directory or collide with key prefixes.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateComponentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidComponent, "component id cannot be empty")
	}

	if len(id) > maxComponentIDLength {
		return New(ErrCodeInvalidComponent, "component id too long (max %d characters)", maxComponentIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidComponent, "component id contains invalid characters: %q", id)
		}
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return New(ErrCodeInvalidComponent, "component id contains path characters: %q", id)
	}

	if !componentIDRegex.MatchString(id) {
		return New(ErrCodeInvalidComponent, "invalid component id: %q", id)
	}

	return nil
}

// ValidatePath validates a user-provided file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
