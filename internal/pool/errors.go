package pool

import (
	"errors"
	"fmt"
)

// ErrInvalidRelease is the sentinel every *InvalidReleaseError unwraps to.
var ErrInvalidRelease = errors.New("invalid release")

// InvalidReleaseError reports a double release or a release of an instance
// this pool never produced.
type InvalidReleaseError struct {
	Key    string
	ID     uint64
	Reason string
}

func (e *InvalidReleaseError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid release: %s", e.Reason)
	}
	return fmt.Sprintf("invalid release of %s#%d: %s", e.Key, e.ID, e.Reason)
}

func (e *InvalidReleaseError) Unwrap() error { return ErrInvalidRelease }
