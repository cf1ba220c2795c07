package warehouse

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable marks any failed read against the warehouse. The
// rollup engine treats it as fatal for the whole report; callers retry
// the full request.
var ErrUnavailable = errors.New("warehouse unavailable")

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		// Keep cancellation visible to errgroup callers.
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
