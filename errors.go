package deltatree

import "fmt"

// SchemaMismatchError reports that two documents (or a document and a
// patch) are incomparable in a way the model does not define. It is
// reserved for defensive validation and should not occur for well-formed
// input.
type SchemaMismatchError struct {
	Detail string
}

func (e *SchemaMismatchError) Error() string {
	return "schema mismatch: " + e.Detail
}

// ApplyError reports that a patch is inconsistent with the document it is
// being applied to. A patch is only valid against the exact base it was
// diffed from.
type ApplyError struct {
	Path     Path
	Expected string
	Found    string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("cannot apply patch at %s: expected %s, found %s", e.Path, e.Expected, e.Found)
}

func applyErrorf(path Path, expected, foundFormat string, args ...interface{}) error {
	return &ApplyError{Path: path, Expected: expected, Found: fmt.Sprintf(foundFormat, args...)}
}

// CancelledError reports that sequence alignment was aborted through the
// context before a complete patch could be produced.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return "alignment cancelled: " + e.Err.Error()
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}
