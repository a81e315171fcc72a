package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/msbr/pkg/config"
)

// DefaultTimeout bounds a single evaluation when Engine.Timeout is zero.
const DefaultTimeout = 5 * time.Second

type evalResult struct {
	config *config.Config
	errors []EvalError
	err    error
}

// wait returns the first of: the evaluation result, the timeout, or ctx
// ending. The evaluating goroutine is not interrupted; ch is buffered so it
// can always deliver and exit.
func wait(ctx context.Context, ch <-chan evalResult, timeout time.Duration) (*config.Config, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.config, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}
