package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

var ErrTimeout = errors.New("github request timed out")

// Actioner runs actions one at a time in the order they were submitted.
type Actioner struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func NewActioner(timeout time.Duration) *Actioner {
	return &Actioner{
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// Do waits for all previously submitted actions to finish and then runs
// action with a context that is cancelled after the actioner's timeout.
// Actions must return once their context is done. An action that fails
// because of the timeout returns ErrTimeout.
func (a *Actioner) Do(ctx context.Context, action func(ctx context.Context) error) error {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer a.sem.Release(1)

	actionCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err := action(actionCtx)
	if err != nil && ctx.Err() == nil && errors.Is(actionCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, a.timeout)
	}
	return err
}
