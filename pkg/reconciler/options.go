package reconciler

import (
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

type options struct {
	retirer  Retirer
	matchers []Matcher
}

func defaultOptions() *options {
	return &options{
		retirer:  NopRetirer{},
		matchers: DefaultMatchers(),
	}
}

// Option configures a Reconciler.
type Option func(*options) error

// WithRetirer sets how superseded messages are retired.
func WithRetirer(r Retirer) Option {
	return func(o *options) error {
		if r == nil {
			return pkgerrors.NewValidationError("retirer", nil, "cannot be nil")
		}
		o.retirer = r
		return nil
	}
}

// WithMatchers replaces the matcher list. Matchers are consulted by Rank,
// in list order within a rank.
func WithMatchers(matchers ...Matcher) Option {
	return func(o *options) error {
		if len(matchers) == 0 {
			return pkgerrors.NewValidationError("matchers", nil, "at least one matcher is required")
		}
		o.matchers = matchers
		return nil
	}
}
