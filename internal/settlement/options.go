package settlement

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	strategy Strategy
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures Deposit and Transfer.
type Option func(*options)

// WithStrategy sets the debt ordering used by Deposit. Transfer ignores it.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		if s != nil {
			o.strategy = s
		}
	}
}

// WithClock sets the time source stamped on debt payments.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		strategy: OldestFirst{},
		now:      func() time.Time { return time.Now().UTC() },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
