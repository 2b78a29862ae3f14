package signals

import (
	"context"
	"errors"
)

var errPanic = errors.New("check panicked")

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errPanic):
		return OutcomePanic
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeFailed
	}
}
