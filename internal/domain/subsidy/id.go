package subsidy

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
)

// ValidateID trims id and checks it can name a single directory.
// Errors wrap domain.ErrInvalidArgument.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: subsidy_id must be a non-empty string", domain.ErrInvalidArgument)
	}
	if err := ValidateSegment(id); err != nil {
		return "", fmt.Errorf("%w: subsidy_id %v", domain.ErrInvalidArgument, err)
	}
	return id, nil
}

// ValidateSegment rejects names that would escape their parent directory.
func ValidateSegment(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("is empty")
	case name == "." || name == "..":
		return fmt.Errorf("must not be %q", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("must not contain path separators")
	}
	return nil
}
