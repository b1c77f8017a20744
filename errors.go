package pdflinenum

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed run
type ErrorKind int

const (
	// KindUnexpected covers every failure other than a missing input file
	KindUnexpected ErrorKind = iota
	// KindInputNotFound means the input PDF does not exist
	KindInputNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputNotFound:
		return "InputNotFound"
	default:
		return "Unexpected"
	}
}

// ErrInputNotFound is returned when the input file does not exist
type ErrInputNotFound struct {
	Path string
}

func (e ErrInputNotFound) Error() string {
	return fmt.Sprintf("input file '%s' not found", e.Path)
}

// UnexpectedError wraps any other failure of a run
type UnexpectedError struct {
	Msg string
	Err error
}

func (e UnexpectedError) Error() string {
	return e.Msg
}

func (e UnexpectedError) Unwrap() error {
	return e.Err
}

// Kind reports which kind of failure err is
func Kind(err error) ErrorKind {
	var notFound ErrInputNotFound
	if errors.As(err, &notFound) {
		return KindInputNotFound
	}
	return KindUnexpected
}

// classify maps err onto one of the two error kinds
func classify(err error) error {
	if err == nil {
		return nil
	}
	var notFound ErrInputNotFound
	if errors.As(err, &notFound) {
		return notFound
	}
	var unexpected UnexpectedError
	if errors.As(err, &unexpected) {
		return unexpected
	}
	return UnexpectedError{Msg: err.Error(), Err: err}
}
