package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReversible is wrapped by errors reporting that an operation has no inverse.
	ErrNotReversible = errors.New("operation is not reversible")
	// ErrNotFound is wrapped by errors reporting a missing table, view or materialized view.
	ErrNotFound = errors.New("object not found")
)

// ParseError reports clause text that could not be parsed.
type ParseError struct {
	Clause string
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s clause %q: %s", e.Clause, e.Text, e.Reason)
}

// UnsupportedOperationError reports a difference that StarRocks cannot apply in place.
type UnsupportedOperationError struct {
	Object    string
	Attribute string
	Reflected string
	Declared  string
	Reason    string
}

func (e *UnsupportedOperationError) Error() string {
	msg := fmt.Sprintf("%s: changing %s from %q to %q is not supported", e.Object, e.Attribute, e.Reflected, e.Declared)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// AmbiguousReflectionError reports a lookup that returned more than one row.
type AmbiguousReflectionError struct {
	Source string
	Schema string
	Name   string
	Rows   int
}

func (e *AmbiguousReflectionError) Error() string {
	return fmt.Sprintf("%s: %d rows found for %s, expected exactly one", e.Source, e.Rows, qualify(e.Schema, e.Name))
}

// IrreversibleOperationError reports an attempt to reverse an operation whose
// prior state was not captured.
type IrreversibleOperationError struct {
	Kind   string
	Target string
	Reason string
}

func (e *IrreversibleOperationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Target, e.Reason)
}

func (e *IrreversibleOperationError) Unwrap() error {
	return ErrNotReversible
}
