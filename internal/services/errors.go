package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRecord      = errors.New("invalid record")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrIdentifierMismatch = errors.New("identifier mismatch")
	ErrMetadataFetch      = errors.New("metadata fetch failure")
	ErrMergeConflict      = errors.New("merge conflict")
	ErrCollaboratorUpdate = errors.New("collaborator update failure")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotFound           = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInvalidRecord
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the whole run. Identifier mismatches
// indicate a defect in the source document and configuration errors mean a
// collaborator could not be constructed; everything else is scoped to one item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIdentifierMismatch) || errors.Is(err, ErrConfiguration)
}

// Outcome maps a per-item error to a short label used in logs and run summaries.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrIdentifierMismatch):
		return "identifier_mismatch"
	case errors.Is(err, ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, ErrMetadataFetch):
		return "metadata_unavailable"
	case errors.Is(err, ErrMergeConflict):
		return "merge_conflict"
	case errors.Is(err, ErrCollaboratorUpdate):
		return "update_failed"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "error"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
