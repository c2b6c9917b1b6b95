package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "persona p1 not found",
		(&NotFoundError{Kind: "persona", ID: "p1"}).Error())
	assert.Equal(t, "missing required target_video",
		(&InvalidArgumentError{Field: "target_video"}).Error())
	assert.Equal(t, `invalid format: "tiff"`,
		(&InvalidArgumentError{Field: "format", Value: "tiff"}).Error())
	assert.Equal(t, "extract identity features p1: persona has no reference image",
		(&PreconditionError{Op: "extract identity features", ID: "p1", Reason: "persona has no reference image"}).Error())
	assert.Equal(t, "no content exported: all 3 requested items were unresolvable",
		(&NoContentExportedError{Requested: 3}).Error())
}

func TestEncodingErrorIncludesStderr(t *testing.T) {
	cause := errors.New("exit status 1")

	e := &EncodingError{Err: cause}
	assert.Equal(t, "video encode failed: exit status 1", e.Error())

	e = &EncodingError{Err: cause, Output: "x264 [error]: bad input\n"}
	assert.Equal(t, "video encode failed: exit status 1: x264 [error]: bad input", e.Error())
	assert.ErrorIs(t, e, cause)
}

func TestThumbnailExtractionErrorUnwraps(t *testing.T) {
	cause := errors.New("no frames")
	e := &ThumbnailExtractionError{Path: "clip.mp4", Err: cause}
	assert.ErrorIs(t, fmt.Errorf("wrap: %w", e), cause)
}
