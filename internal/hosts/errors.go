package hosts

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrInvalidIdentifier is returned for block identifiers that cannot be
	// embedded in a marker line.
	ErrInvalidIdentifier = errors.New("invalid block identifier")
	// ErrPathTranslation is returned when the Windows hosts file cannot be
	// mapped into the WSL filesystem.
	ErrPathTranslation = errors.New("windows path translation failed")
	// ErrElevationUnavailable is returned when no Windows elevation helper
	// can be used.
	ErrElevationUnavailable = errors.New("elevation helper unavailable")
)

// ValidateIdentifier checks that id can be embedded in a marker line.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if i := strings.IndexFunc(id, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}); i >= 0 {
		return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidIdentifier, id)
	}
	return nil
}
