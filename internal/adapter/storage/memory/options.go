package memory

import "time"

// Option configures a memory store.
type Option func(*options)

type options struct {
	nowF func() time.Time
}

// WithClock makes the store read time from now instead of time.Now. A store
// sharing a clock with its caller agrees with it on what has expired.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.nowF = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{nowF: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
