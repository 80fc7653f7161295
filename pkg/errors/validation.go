package errors

import (
	"strings"
	"unicode"
)

// maxNodeIDLength bounds node and exercise identifiers accepted from callers.
const maxNodeIDLength = 256

// ValidateNodeID validates a node or exercise identifier received from a caller
// (CLI argument, URL path segment). It does not check existence; lookups report
// NOT_FOUND separately.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates a local catalog or output file path.
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

// storeSchemes are the URI schemes accepted for catalog sources and caches.
var storeSchemes = []string{"sqlite://", "mongodb://", "mongodb+srv://", "redis://", "rediss://"}

// ValidateStoreURL validates a store or cache connection URL.
// It ensures the URL uses one of the supported schemes.
func ValidateStoreURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "store URL cannot be empty")
	}

	for _, scheme := range storeSchemes {
		if strings.HasPrefix(rawURL, scheme) {
			if len(rawURL) == len(scheme) {
				return New(ErrCodeInvalidInput, "store URL %q has no location", rawURL)
			}
			return nil
		}
	}

	return New(ErrCodeInvalidInput, "unsupported store URL scheme: %q", rawURL)
}
