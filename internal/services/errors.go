package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTooShort marks recordings rejected by the minimum length check.
	// Callers may delete the offending source file when configured to.
	ErrTooShort = errors.New("recording too short")
	// ErrJobPrecondition marks jobs run against a bundle missing required
	// state (no audio, no transcript, no summary).
	ErrJobPrecondition = errors.New("job precondition violated")
	// ErrExternalTool marks failures of external binaries such as ffprobe.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks responses rejected by our own checks, such as an
	// empty transcript or an overlong generated bundle name.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures worth retrying on a later pass.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
