package sinceupdater

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrConfiguration is returned before any file is touched when the release
	// version, root path or configuration cannot be used.
	ErrConfiguration = errors.Base("configuration error")

	// ErrDiscovery wraps glob failures. It is logged and never returned to callers
	// of Discover, which degrade to an empty file list instead.
	ErrDiscovery = errors.Base("discovery failure")
)

// IOFailure reports a read or write failure for a single file. The batch records
// it and moves on to the next file.
type IOFailure struct {
	Path string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("Error updating %s: %v", e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error {
	return e.Err
}
