package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches NotFoundError via errors.Is.
	ErrNotFound = errors.New("dataset not found")
	// ErrSchema matches MissingColumnError via errors.Is.
	ErrSchema = errors.New("schema error")
	// ErrEmptyDataset indicates no usable rows remain after cleaning.
	ErrEmptyDataset = errors.New("empty dataset: no usable rows")
)

// NotFoundError indicates the input file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("dataset not found: %s", e.Path) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DecodeError indicates the file could not be decoded with any supported encoding.
type DecodeError struct {
	Path     string
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Encoding != "" {
		return fmt.Sprintf("decode %s as %s: %v", e.Path, e.Encoding, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MissingColumnError names a required column absent from a table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrSchema }

// NullValueError reports a null reaching Split; callers must DropNulls first.
type NullValueError struct {
	Column string
	Row    int
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("null value in column %q at row %d", e.Column, e.Row)
}
