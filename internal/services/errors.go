package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAnalysis marks undecodable or corrupt input. Never retried.
	ErrAnalysis = errors.New("analysis error")
	// ErrTimeout marks an external call that exceeded its budget or was
	// terminated gracefully.
	ErrTimeout = errors.New("timeout")
	// ErrResourceExhausted marks an external process killed by the OS.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrService marks a transcription or cleanup service failure.
	ErrService = errors.New("service error")
	// ErrEmptyResult marks a synthesis run that produced nothing to keep.
	ErrEmptyResult = errors.New("empty result")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether a failure is worth another attempt.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAnalysis), errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration), errors.Is(err, ErrEmptyResult):
		return false
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrResourceExhausted), errors.Is(err, ErrTransient):
		return true
	default:
		return false
	}
}

// UserMessage maps an error to an actionable sentence suitable for end users.
// Raw signal names and exit codes stay in the logs.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrResourceExhausted):
		return "The server ran out of memory while processing. Try a shorter video or reduce options."
	case errors.Is(err, ErrTimeout):
		return "Processing took too long. The server may be under load; try again later or use a shorter video."
	case errors.Is(err, ErrEmptyResult):
		return "Nothing would be left after cutting. Lower the aggressiveness or disable some categories."
	case errors.Is(err, ErrAnalysis):
		return "The audio track could not be read. Check that the file is a valid video or audio file."
	case errors.Is(err, ErrService):
		return "A transcription or cleanup service is unavailable. The server may be under load; try again later."
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "The request options are invalid. Review the settings and try again."
	case errors.Is(err, ErrExternalTool):
		return "The media encoder failed on this input. Try re-exporting the video or reduce options."
	default:
		return "Processing failed unexpectedly. Try again later."
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
