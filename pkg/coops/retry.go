package coops

import (
	"context"
	"errors"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"
)

// RetryPolicy configures Retrying.
type RetryPolicy struct {
	// MaxAttempts counts the first try. Values below one mean one.
	MaxAttempts int
	Min         time.Duration
	Max         time.Duration
	Factor      float64
	Jitter      bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Min:         500 * time.Millisecond,
		Max:         10 * time.Second,
		Factor:      2,
		Jitter:      true,
	}
}

// Retrying wraps a Fetcher and repeats requests that failed with a transient
// *TransportError, backing off exponentially. Decode errors are returned
// immediately. All CO-OPS requests are reads, so repeating them is safe.
type Retrying struct {
	next   Fetcher
	policy RetryPolicy
	log    *logrus.Entry
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Fetcher, policy RetryPolicy, log *logrus.Entry) *Retrying {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Retrying{
		next:   next,
		policy: policy,
		log:    log.WithField("component", "coops-retry"),
		sleep:  sleepContext,
	}
}

func (r *Retrying) Fetch(ctx context.Context, kind Kind, q Query) (any, error) {
	b := &backoff.Backoff{
		Min:    r.policy.Min,
		Max:    r.policy.Max,
		Factor: r.policy.Factor,
		Jitter: r.policy.Jitter,
	}
	for attempt := 1; ; attempt++ {
		rec, err := r.next.Fetch(ctx, kind, q)
		if err == nil {
			return rec, nil
		}

		var terr *TransportError
		if !errors.As(err, &terr) || !terr.Transient() || attempt >= r.policy.MaxAttempts || ctx.Err() != nil {
			return nil, err
		}

		wait := b.Duration()
		r.log.WithError(err).WithFields(logrus.Fields{
			"kind":    kind.String(),
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("transient CO-OPS failure, retrying")
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
