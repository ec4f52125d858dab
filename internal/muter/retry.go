package muter

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"

	"github.com/admuter/admuter/pkg/audio"
)

// errNoSession marks an attempt where the controller found no audio session.
var errNoSession = errors.New("audio session not found")

// RetryPolicy bounds a single convergence attempt.
type RetryPolicy struct {
	Attempts int           // total SetMute calls allowed, at least 1
	Delay    time.Duration // wait between failed calls
}

// DefaultRetryPolicy gives the audio mixer about a second to create the session.
var DefaultRetryPolicy = RetryPolicy{Attempts: 5, Delay: 200 * time.Millisecond}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// SetMuteWithRetry calls ctrl.SetMute until it reports success or the policy's
// attempts run out, waiting policy.Delay between failed calls. It returns false
// with a nil error when every attempt found no session. A controller error or a
// cancelled context stops the retries and is returned as is.
func SetMuteWithRetry(ctx context.Context, ctrl audio.Controller, process string, mute bool, policy RetryPolicy) (bool, error) {
	policy = policy.normalized()

	attempt := func() (struct{}, error) {
		ok, err := ctrl.SetMute(ctx, process, mute)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !ok {
			return struct{}{}, errNoSession
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(uint(policy.Attempts)),
	)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNoSession):
		return false, nil
	default:
		return false, err
	}
}
