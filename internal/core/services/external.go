package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// withTimeout bounds an external call. A non-positive timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// externalFailure classifies an error from an external call made under ctx
// as class (domain.ErrEmbeddingFailure or domain.ErrGenerationFailure).
// A missed deadline additionally matches domain.ErrTimeout.
func externalFailure(ctx context.Context, op string, class, err error) error {
	timedOut := !errors.Is(err, domain.ErrTimeout) &&
		(errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded))

	switch {
	case errors.Is(err, class) && timedOut:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTimeout, err)
	case errors.Is(err, class):
		return fmt.Errorf("%s: %w", op, err)
	case timedOut:
		return fmt.Errorf("%s: %w: %w: %w", op, class, domain.ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, class, err)
	}
}
