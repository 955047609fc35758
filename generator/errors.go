package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPlaceholder means a template was rendered without one of its
	// declared values. Templates and call sites are out of sync.
	ErrMissingPlaceholder = errors.New("missing placeholder")
	// ErrGenerationFailed means the completion backend failed for a stage.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmptyThemeList means every line of the theme response was rejected.
	ErrEmptyThemeList = errors.New("no themes available")
	// ErrMissingInput means a stage was asked to run before its inputs exist.
	ErrMissingInput = errors.New("stage input missing")
	// ErrEmptyTheme is returned when the pipeline is started without a theme.
	ErrEmptyTheme = errors.New("theme is required")
)

// MissingPlaceholderError names the template and the placeholder without a value.
type MissingPlaceholderError struct {
	Template string
	Name     string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("template %s: %s %q", e.Template, ErrMissingPlaceholder, e.Name)
}

func (e *MissingPlaceholderError) Is(target error) bool {
	return target == ErrMissingPlaceholder
}

// GenerationError carries the failing stage and the backend cause.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("stage %s: %s: %v", e.Stage, ErrGenerationFailed, e.Err)
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
