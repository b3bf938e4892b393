package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// templateNameRegex matches valid layout template names.
var templateNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateTemplateName validates a layout template name.
// Template names are lowercase with hyphens, e.g. "research-paper".
func ValidateTemplateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTemplate, "template name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidTemplate, "template name too long (max 64 characters)")
	}

	if !templateNameRegex.MatchString(name) {
		return New(ErrCodeInvalidTemplate, "invalid template name: %q", name)
	}

	return nil
}

// ValidateNodeID validates a scene node identifier.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//
// Node IDs appear in X3D DEF attributes and cache keys, so anything that
// could break XML or filesystem paths is rejected here.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "node ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node ID contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"\x00", // Null byte
		"<",    // XML injection
		">",    // XML injection
		"\"",   // Attribute escape
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "node ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateArtifactName validates a rendered artifact filename.
// It ensures the filename is a simple basename without path components,
// since artifact names become files under the output directory.
func ValidateArtifactName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "artifact name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "artifact name cannot contain path separators")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPath, "artifact name cannot be a hidden file")
	}

	return nil
}

// ValidateSourcePath validates a document path received from a remote
// client (the MCP server accepts paths from editors and agents).
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
//
// Absolute paths are permitted; clients address documents by their real
// location rather than relative to a sandbox root.
func ValidateSourcePath(path string) error {
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
