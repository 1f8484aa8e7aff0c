package resolver

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-knackobject/pkg/model"
)

// CyclePolicy decides what happens when a record links back to one of its
// ancestors.
type CyclePolicy string

const (
	// CycleTruncate keeps the linked stub but leaves its records empty.
	CycleTruncate CyclePolicy = "truncate"
	// CycleFail aborts the pass with a *CycleError.
	CycleFail CyclePolicy = "fail"
)

const (
	DefaultMaxDepth    = 16
	DefaultConcurrency = 4
	DefaultMaxInFlight = 8
)

// Option customises the resolver.
type Option func(*Resolver)

// WithPairing sets the labels that collapse a child record into a
// label/value pair.
func WithPairing(key, value string) Option {
	return func(r *Resolver) {
		r.pairing = model.Pairing{Key: key, Value: value}
	}
}

// WithMaxDepth caps connection nesting. Negative values disable the cap.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		r.maxDepth = depth
	}
}

// WithConcurrency caps concurrent linked-record resolutions per connection
// field. Values below one resolve linked records one at a time.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		r.concurrency = n
	}
}

// WithMaxInFlight caps concurrent API requests across a whole pass.
func WithMaxInFlight(n int) Option {
	return func(r *Resolver) {
		r.maxInFlight = n
	}
}

// WithCyclePolicy selects the cycle behaviour.
func WithCyclePolicy(policy CyclePolicy) Option {
	return func(r *Resolver) {
		r.cycle = policy
	}
}

// WithLogger injects a zap logger for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}
