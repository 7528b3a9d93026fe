package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// Breaker stops calling the provider after repeated network failures.
// Rejections and declined payments are answers, so they never trip it.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreaker(next Gateway, s BreakerSettings, log *logrus.Logger) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrNetwork)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state change")
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Initialize(ctx context.Context, req InitializeRequest) (Initialized, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Initialize(ctx, req)
	})
	if err != nil {
		return Initialized{}, breakerErr("initialize", err)
	}
	return res.(Initialized), nil
}

func (b *Breaker) Verify(ctx context.Context, reference string) (Verification, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Verify(ctx, reference)
	})
	if err != nil {
		return Verification{}, breakerErr("verify", err)
	}
	return res.(Verification), nil
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func breakerErr(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return networkErr(op, err)
	}
	return err
}
