package saveload

import (
	"errors"
	"fmt"
)

var (
	ErrCorruptFormat      = errors.New("corrupt savegame")
	ErrUnsupportedVersion = errors.New("unsupported savegame version")
	ErrIO                 = errors.New("savegame i/o failure")
	ErrAllocationLimit    = errors.New("savegame allocation limit exceeded")
)

// ChunkError attaches the chunk tag and pass to an engine error.
type ChunkError struct {
	Tag Tag
	Op  string
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %s: %s: %v", e.Tag, e.Op, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// ioError keeps the underlying sink/source error reachable next to ErrIO.
type ioError struct {
	op  string
	err error
}

func (e *ioError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrIO, e.op, e.err)
}

func (e *ioError) Unwrap() []error { return []error{ErrIO, e.err} }

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptFormat, fmt.Sprintf(format, args...))
}

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedVersion, fmt.Sprintf(format, args...))
}

func limitf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAllocationLimit, fmt.Sprintf(format, args...))
}

func wrapChunk(tag Tag, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ChunkError
	if errors.As(err, &ce) {
		return err
	}
	return &ChunkError{Tag: tag, Op: op, Err: err}
}
