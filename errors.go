package union

import (
	"errors"
	"fmt"
)

// SourceError wraps an error raised by a [Source] while it was being
// pulled, tagged with the index of the worker that observed it and the
// ID of the failing source. The merge delivers exactly one SourceError
// to the consumer even when several sources fail; the survivors are
// cancelled as a side effect of the first failure.
type SourceError struct {
	Worker int
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q failed on worker %d: %v", e.Source, e.Worker, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsSourceError reports whether err (or any error in its chain) is a
// [*SourceError].
func IsSourceError(err error) bool {
	if err == nil {
		return false
	}
	var se *SourceError
	return errors.As(err, &se)
}

// SourceOf extracts the failing source's ID and worker index from the
// first [*SourceError] in err's chain. Returns false if none is found.
func SourceOf(err error) (source string, worker int, ok bool) {
	if err == nil {
		return "", 0, false
	}

	var se *SourceError
	if errors.As(err, &se) {
		return se.Source, se.Worker, true
	}
	return "", 0, false
}

// CauseOf unwraps the first [*SourceError] in err's chain and returns
// its underlying cause. If err is not a SourceError, it is returned
// as-is. Returns nil if err is nil.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var se *SourceError
	if errors.As(err, &se) {
		return se.Err
	}

	return err
}
