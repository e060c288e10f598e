package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInsufficientData marks a scan whose retained frame count fell below the
// configured minimum. The pipeline reports it on an Excluded result rather
// than returning it.
var ErrInsufficientData = errors.New("insufficient data")

// ReasonInsufficientTimepoints is the exclusion reason reported for
// ErrInsufficientData.
const ReasonInsufficientTimepoints = "insufficient_timepoints"

// ConfigurationError reports an option or input combination the pipeline
// cannot run with. It is raised before any processing starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// Configf builds a ConfigurationError for field.
func Configf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// InsufficientData wraps ErrInsufficientData with the counts that caused it.
func InsufficientData(retained, minimum int) error {
	return errors.Wrapf(ErrInsufficientData, "%d retained frames, minimum %d", retained, minimum)
}
