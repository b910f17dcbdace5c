package shortener

import (
	"context"
	"errors"
	"time"

	"github.com/sundayezeilo/shortlink/internal/errx"
)

// callWithDeadline runs call under a timeout and stops waiting once it
// expires, whether or not call honours its context. A call still running
// at that point finishes in the background and its result is dropped.
//
// The context state is sampled by the goroutine as soon as call returns, so
// a result that completed before the deadline keeps its own classification
// even if the deadline passes before the caller reads it.
func callWithDeadline[T any](ctx context.Context, op string, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v      T
		err    error
		ctxErr error // ctx.Err() at the moment call returned
	}
	done := make(chan result, 1)

	go func() {
		v, err := call(ctx)
		done <- result{v: v, err: err, ctxErr: ctx.Err()}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.v, nil
		}
		return zero, classifyStoreError(op, res.err, res.ctxErr)

	case <-ctx.Done():
		select {
		case res := <-done:
			if res.err == nil {
				return res.v, nil
			}
			return zero, classifyStoreError(op, res.err, res.ctxErr)
		default:
		}
		return zero, classifyStoreError(op, ctx.Err(), ctx.Err())
	}
}

// classifyStoreError tags err given the state of the call's context when
// the call finished: Timeout if the deadline had already passed, otherwise
// the store's own kind, or Storage when it has none.
func classifyStoreError(op string, err, ctxErr error) error {
	switch {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return errx.E(op, errx.Timeout, err)
	case errors.Is(err, context.Canceled):
		return errx.E(op, errx.Storage, err)
	default:
		return errx.E(op, errx.StorageKindOf(err), err)
	}
}
