// Package continuity chains a sequence of fallible steps that stop at
// the first failure, so a multi-step teardown (write trailing tables,
// sync, close) can be expressed as a flat pipeline instead of a tower
// of if-err-return checks.
package continuity

import "strings"

// Chain accumulates the errors from a sequence of steps run with
// Thenf. Once a step fails, subsequent steps are skipped.
type Chain struct {
	failed errList
}

type errList []error

func (e errList) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "multiple errors: " + strings.Join(msgs, ", ")
}

// New starts a new chain.
func New() *Chain {
	return new(Chain)
}

// Thenf runs f unless a prior step in the chain has already failed.
// name is purely for readability at call sites; it is not surfaced in
// the resulting error.
func (c *Chain) Thenf(name string, f func() error) *Chain {
	if len(c.failed) > 0 {
		return c
	}
	if err := f(); err != nil {
		c.failed = append(c.failed, err)
	}
	return c
}

// Err returns nil if every step succeeded, or the first failure
// otherwise.
func (c *Chain) Err() error {
	if len(c.failed) == 0 {
		return nil
	}
	return c.failed[0]
}
