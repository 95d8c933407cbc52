package main

import (
	"fmt"
	"strings"
)

// Pos is a location in the source text. The zero Pos means "no
// position" and is used by whole-program checks (missing main, unused
// import).
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// CompileError is the single error kind produced by every stage:
// lexing, parsing, symbol resolution, type checking, and validation.
// Failures differ only in position and message text.
type CompileError struct {
	Pos     Pos
	Message string
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func errorAt(pos Pos, format string, args ...interface{}) *CompileError {
	return &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// ErrorList collects errors for the passes that aggregate their
// findings before failing (duplicate names, struct cycles) and for the
// lexer/parser.
type ErrorList struct {
	errors []*CompileError
}

func (el *ErrorList) Add(err *CompileError) {
	el.errors = append(el.errors, err)
}

func (el *ErrorList) Addf(pos Pos, format string, args ...interface{}) {
	el.Add(errorAt(pos, format, args...))
}

func (el *ErrorList) HasErrors() bool {
	return len(el.errors) > 0
}

// Err returns the collected errors as a single error, or nil.
func (el *ErrorList) Err() error {
	if !el.HasErrors() {
		return nil
	}
	if len(el.errors) == 1 {
		return el.errors[0]
	}
	return errorAt(el.errors[0].Pos, "%s", el.String())
}

func (el *ErrorList) String() string {
	var sb strings.Builder
	for i, err := range el.errors {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}
