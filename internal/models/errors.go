package models

import (
	"fmt"
	"strings"
)

// NotFoundError reports that an entity id could not be resolved where one
// was required. Plain gets return (nil, nil) for absence instead.
type NotFoundError struct {
	Kind string // "persona" or "content"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// PreconditionError reports an operation attempted before the state it
// depends on was established.
type PreconditionError struct {
	Op     string
	ID     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.ID, e.Reason)
}

// InvalidArgumentError reports an unknown discriminator value or a missing
// required setting.
type InvalidArgumentError struct {
	Field string
	Value string
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("missing required %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// ThumbnailExtractionError reports that no decodable frame was found in a
// video after the fixed-offset retry.
type ThumbnailExtractionError struct {
	Path string
	Err  error
}

func (e *ThumbnailExtractionError) Error() string {
	return fmt.Sprintf("extract thumbnail from %s: %v", e.Path, e.Err)
}

func (e *ThumbnailExtractionError) Unwrap() error { return e.Err }

// EncodingError reports a nonzero exit from the external video encoder.
// Output carries the encoder's stderr for diagnosis.
type EncodingError struct {
	Output string
	Err    error
}

func (e *EncodingError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("video encode failed: %v", e.Err)
	}
	return fmt.Sprintf("video encode failed: %v: %s", e.Err, out)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// NoContentExportedError reports that every id in an export request was
// unresolvable. Partial exports succeed and are not an error.
type NoContentExportedError struct {
	Requested int
}

func (e *NoContentExportedError) Error() string {
	return fmt.Sprintf("no content exported: all %d requested items were unresolvable", e.Requested)
}
