package render

import (
	"errors"
	"fmt"
)

// Sentinel errors for unterminated blocks, one per block kind.
var (
	ErrUnterminatedIf      = errors.New("unterminated {{#if}} block")
	ErrUnterminatedUnless  = errors.New("unterminated {{#unless}} block")
	ErrUnterminatedEach    = errors.New("unterminated {{#each}} block")
	ErrUnterminatedSection = errors.New("unterminated {{#section}} block")
)

// SyntaxError locates a structural template error.
type SyntaxError struct {
	Block  string // if, unless, each, or the legacy section name
	Name   string // condition or loop source
	Offset int    // byte offset of the opening tag
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: {{#%s %s}} at offset %d", e.Err, e.Block, e.Name, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
