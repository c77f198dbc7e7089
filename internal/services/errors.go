package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrExternalTool      = errors.New("external tool error")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrTimeout           = errors.New("timeout")
	ErrTransient         = errors.New("transient failure")
)

// Kind labels the failure class derived from an error's sentinel marker.
type Kind string

const (
	KindResourceExhausted Kind = "resource_exhausted"
	KindExternalTool      Kind = "external_tool"
	KindValidation        Kind = "validation"
	KindConfiguration     Kind = "configuration"
	KindNotFound          Kind = "not_found"
	KindTimeout           Kind = "timeout"
	KindTransient         Kind = "transient"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later severity classification. The marker should be
// one of the exported sentinel errors above.
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

// ErrorDetails describes a stage failure in the shape the workflow manager
// logs and the recovery layer consumes.
type ErrorDetails struct {
	Kind      Kind
	Operation string
	Message   string
	Cause     error
}

// Details extracts structured failure information from a stage error.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindTransient}
	}
	details := ErrorDetails{
		Kind:    classifyKind(err),
		Message: strings.TrimSpace(err.Error()),
		Cause:   errors.Unwrap(err),
	}
	return details
}

func classifyKind(err error) Kind {
	switch {
	case errors.Is(err, ErrResourceExhausted):
		return KindResourceExhausted
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	default:
		return KindTransient
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
