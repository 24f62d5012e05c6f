package spec

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds reported by Parse.
const (
	KindParse      = "parse"
	KindValidation = "validation"
)

// ParseError reports malformed structured text. Nothing is partially consumed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind returns KindParse.
func (e *ParseError) Kind() string { return KindParse }

// Issue is one violated schema constraint.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError reports well-formed input that violates the schema.
// Issues holds every violation found, in document order.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("validation failed (%d issues): %s", len(e.Issues), strings.Join(parts, "; "))
}

// Kind returns KindValidation.
func (e *ValidationError) Kind() string { return KindValidation }

// ErrorKind classifies an error returned by Parse or ParseFile.
// It returns "" for errors that are neither parse nor validation failures (e.g. I/O).
func ErrorKind(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return KindParse
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	return ""
}
