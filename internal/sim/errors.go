package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks setup problems: unregistered types or pairs,
	// bodies outside the context, impossible sizes. The simulation never starts.
	ErrConfiguration = errors.New("sim: configuration error")

	// ErrInvariant marks a post-step consistency failure. The engine does not
	// attempt to repair the world; the caller is expected to stop and report.
	ErrInvariant = errors.New("sim: invariant violation")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func invariantErrorf(tick uint64, format string, args ...any) error {
	return fmt.Errorf("%w at tick %d: %s", ErrInvariant, tick, fmt.Sprintf(format, args...))
}
