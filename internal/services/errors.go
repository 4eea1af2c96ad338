package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups for identifiers unknown to the source catalog.
	ErrNotFound = errors.New("not found")
	// ErrNetwork marks transient transport failures that are safe to retry.
	ErrNetwork = errors.New("network error")
	// ErrIntegrity marks checksum mismatches; the corrupted artifact has been
	// removed and the failure must never be retried silently.
	ErrIntegrity = errors.New("integrity error")
	// ErrParse marks malformed persisted documents.
	ErrParse = errors.New("parse error")
	// ErrUnknownIdentifier marks tracker mutations against identifiers that
	// have no pipeline record.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrValidation marks input that fails validation before any work happens.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the canonical string tag recorded in a pipeline record's error
// history for the given error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrUnknownIdentifier):
		return "unknown_identifier"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "network"
	}
}

// Retryable reports whether a recorded failure may be re-queued automatically.
// Integrity and validation failures need operator attention first.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrIntegrity), errors.Is(err, ErrValidation), errors.Is(err, ErrParse):
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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
