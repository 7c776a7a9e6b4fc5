package xmlstream

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordTag is returned when Options.RecordTag is blank after defaults.
	ErrRecordTag = errors.New("record tag must not be empty")

	// ErrNoDTD is returned in strict mode when the document has no usable DTD.
	ErrNoDTD = errors.New("strict mode requires a document type definition")

	// ErrUndeclaredElement is returned in strict mode for an element the DTD
	// does not declare.
	ErrUndeclaredElement = errors.New("element not declared in DTD")
)

// ParseError is a document-level failure. It aborts the whole extraction.
type ParseError struct {
	Line   int
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("xml parse failed at line %d (offset %d): %v", e.Line, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
