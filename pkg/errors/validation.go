package errors

import (
	"strings"
	"unicode"
)

// ValidateCellName validates a layout cell (structure) name.
//
// The rules follow the GDSII STRNAME record constraints so that any cell
// registered in the layout pool can be exported without renaming:
//   - No empty names
//   - Maximum length of 32 characters
//   - Only A-Z, a-z, 0-9, underscore, dollar and question mark
func ValidateCellName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "cell name cannot be empty")
	}

	const maxCellNameLength = 32
	if len(name) > maxCellNameLength {
		return New(ErrCodeInvalidInput, "cell name %q too long (max %d characters)", name, maxCellNameLength)
	}

	for _, r := range name {
		if !isCellNameRune(r) {
			return New(ErrCodeInvalidInput, "cell name %q contains invalid character %q", name, r)
		}
	}

	return nil
}

// ValidateTemplateName validates a device template name.
//
// Template names seed cell names ("{template}_{n}"), so they inherit the
// cell-name character set with headroom left for the counter suffix.
func ValidateTemplateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "template name cannot be empty")
	}

	const maxTemplateNameLength = 24
	if len(name) > maxTemplateNameLength {
		return New(ErrCodeInvalidInput, "template name %q too long (max %d characters)", name, maxTemplateNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "template name contains control characters")
		}
		if !isCellNameRune(r) {
			return New(ErrCodeInvalidInput, "template name %q contains invalid character %q", name, r)
		}
	}

	return nil
}

// ValidateParameterName validates a parameter name declared in a schema.
// Parameter names are used as keys in the content hash, so they must be
// simple identifiers without whitespace or control characters.
func ValidateParameterName(name string) error {
	if name == "" {
		return New(ErrCodeParamUnknown, "parameter name cannot be empty")
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidInput, "parameter name %q has surrounding whitespace", name)
	}

	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "parameter name %q contains whitespace or control characters", name)
		}
	}

	return nil
}

func isCellNameRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '$' || r == '?':
		return true
	}
	return false
}
