package bank

import (
	"errors"
	"fmt"
)

// Kind classifies a load failure
type Kind int

const (
	NotFound Kind = iota
	Empty
	Malformed
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Empty:
		return "empty"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	ErrNotFound  = errors.New("bank: chapter not found")
	ErrEmpty     = errors.New("bank: chapter has no questions")
	ErrMalformed = errors.New("bank: chapter is malformed")
)

// LoadError reports why a chapter could not be loaded
type LoadError struct {
	Chapter string
	Kind    Kind
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bank: chapter %q %s: %v", e.Chapter, e.Kind, e.Err)
	}
	return fmt.Sprintf("bank: chapter %q %s", e.Chapter, e.Kind)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrEmpty:
		return e.Kind == Empty
	case ErrMalformed:
		return e.Kind == Malformed
	}
	return false
}
