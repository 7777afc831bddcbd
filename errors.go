package joingo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/joingo/search"
)

// Error kinds surfaced by the engine. Wrapped causes remain reachable via
// errors.Unwrap.
var (
	// ErrBadRequest classifies request errors: unknown cross-core target,
	// undeclared join field.
	ErrBadRequest = search.ErrBadRequest

	// ErrIndexIO classifies index read/write failures.
	ErrIndexIO = search.ErrIndexIO

	// ErrAborted classifies caller-initiated cancellation.
	ErrAborted = search.ErrAborted

	// ErrClosed is returned for operations on a closed container.
	ErrClosed = errors.New("container closed")

	// ErrCoreExists is returned when creating a core under a taken name.
	ErrCoreExists = errors.New("core already exists")
)

// ErrUnknownCore indicates a core name the container does not know.
type ErrUnknownCore struct {
	Name string
}

func (e *ErrUnknownCore) Error() string {
	return fmt.Sprintf("no such core: %q", e.Name)
}

func (e *ErrUnknownCore) Unwrap() error { return ErrBadRequest }
