package domain

import (
	"fmt"
	"strings"
)

// ExtractionError reports that every extraction strategy was exhausted for
// one archive. Archive scoped.
type ExtractionError struct {
	Archive string
	// Causes holds one entry per attempted strategy, in attempt order.
	Causes map[string]error
	// Skipped lists strategies that were unavailable on this host.
	Skipped []string
}

func (e *ExtractionError) Error() string {
	parts := make([]string, 0, len(e.Causes))
	for name, err := range e.Causes {
		parts = append(parts, fmt.Sprintf("%s: %v", name, err))
	}
	msg := fmt.Sprintf("extract %s: all strategies failed", e.Archive)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if len(e.Skipped) > 0 {
		msg += fmt.Sprintf("; unavailable: %s", strings.Join(e.Skipped, ", "))
	}
	return msg
}

// MissingDataError reports that an expected tensor file was not found
// anywhere in the extracted tree. Archive scoped.
type MissingDataError struct {
	File string
	Root string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data file %s under %s", e.File, e.Root)
}

// ShapeMismatchError reports an axis disagreement that survived
// reconciliation, naming the conflicting axis and sizes. Archive scoped.
type ShapeMismatchError struct {
	Axis string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch on %s axis: want %d, got %d", e.Axis, e.Want, e.Got)
}
