package app

import (
	"errors"
	"io/fs"
)

var (
	// ErrNoImageLoaded is returned by commands that need a source image.
	ErrNoImageLoaded = errors.New("no image loaded")
	// ErrNothingToSave is returned when there is no mesh, result or map yet.
	ErrNothingToSave = errors.New("nothing to save")
)

// IOError is a file read or write failure. Its message is the underlying
// error's message, unchanged.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

// classify wraps filesystem failures in IOError and passes others through.
func classify(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return &IOError{Err: pathErr}
	}
	return err
}
