package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxCrateNameLength is the limit crates.io enforces on published names.
const maxCrateNameLength = 64

// ValidatePackageName validates a package name for safety.
// It rejects names that could be used for path traversal or injection
// when the name is interpolated into registry URLs or index paths:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// crateNameRegex matches valid crates.io package names.
var crateNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateCrateName validates a crates.io crate name: ASCII alphanumerics,
// '-' and '_', starting with a letter, at most 64 characters.
func ValidateCrateName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if len(name) > maxCrateNameLength {
		return New(ErrCodeInvalidPackage, "crate name too long (max %d characters)", maxCrateNameLength)
	}

	if !crateNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid crate name: %q", name)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
