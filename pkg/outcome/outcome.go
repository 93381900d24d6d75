// Package outcome reports the result of best-effort steps (channel message
// deletion, asset downloads, operator operations) without turning them into
// errors that would abort a run.
package outcome

import "fmt"

// Status is the kind of outcome.
type Status string

const (
	// StatusOK means the step completed.
	StatusOK Status = "ok"
	// StatusSkipped means the step was intentionally not performed.
	StatusSkipped Status = "skipped"
	// StatusFailed means the step was attempted and failed.
	StatusFailed Status = "failed"
)

// Outcome is the result of one best-effort step.
type Outcome struct {
	Status Status `json:"status" yaml:"status"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err    error  `json:"-" yaml:"-"`
}

// OK returns a successful outcome.
func OK() Outcome {
	return Outcome{Status: StatusOK}
}

// Skipped returns a skipped outcome with a reason.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Failed returns a failed outcome carrying err.
func Failed(err error) Outcome {
	o := Outcome{Status: StatusFailed, Err: err}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

// IsOK reports whether the step completed.
func (o Outcome) IsOK() bool {
	return o.Status == StatusOK
}

// IsFailed reports whether the step failed.
func (o Outcome) IsFailed() bool {
	return o.Status == StatusFailed
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Status)
	}
	return fmt.Sprintf("%s: %s", o.Status, o.Reason)
}

// Counts tallies outcomes by status.
func Counts(outcomes ...Outcome) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return counts
}
