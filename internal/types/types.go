package types

import (
	"errors"
	"fmt"
	"time"
)

// Size is a frame size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

type RenderResult struct {
	Output   string
	Duration time.Duration
}

type ErrorKind string

const (
	InvalidConfig ErrorKind = "invalid_config"
	EmptyInput    ErrorKind = "empty_input"
	InvalidAudio  ErrorKind = "invalid_audio"
)

// ConversionError is the single error type surfaced to callers for input
// problems. Anything else is an unexpected failure.
type ConversionError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ConversionError) Error() string { return e.Msg }

func Errorf(kind ErrorKind, format string, args ...any) error {
	return &ConversionError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

// KindOf returns the conversion error kind, or "" for unexpected errors.
func KindOf(err error) ErrorKind {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
