package phpreflect

import (
	"errors"
	"fmt"

	"github.com/jward/phpreflect/docblock"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrUnsupported is matched by every *UnsupportedError.
	ErrUnsupported = errors.New("unsupported on this PHP version")
	// ErrMalformedAnnotation is matched when a tag that must be unique
	// appears more than once in a doc comment.
	ErrMalformedAnnotation = docblock.ErrMalformed
	// ErrNoSourceFile is returned when a type built into the runtime is asked
	// for its source-level information, such as its use statements.
	ErrNoSourceFile = errors.New("no source file")
)

// MalformedAnnotationError reports a duplicated unique tag.
type MalformedAnnotationError = docblock.MalformedError

// NotFoundError reports a named lookup that matched nothing. Owner is the
// class searched, empty for top-level lookups.
type NotFoundError struct {
	Kind  string
	Name  string
	Owner string
}

func (e *NotFoundError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("phpreflect: %s %q not found in %s", e.Kind, e.Name, e.Owner)
	}
	return fmt.Sprintf("phpreflect: %s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnsupportedError reports a query that needs a newer PHP version than the
// one the Reflector was built for.
type UnsupportedError struct {
	Feature Feature
	Min     Version
	Current Version
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("phpreflect: %s requires PHP %s or later (running %s)", e.Feature, e.Min, e.Current)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

func notFound(kind, name, owner string) error {
	return &NotFoundError{Kind: kind, Name: name, Owner: owner}
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
