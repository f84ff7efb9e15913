package sysmon

import "fmt"

// TargetError attributes an error to one target.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target %s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// FailedTargets returns the names of the targets blamed in err, which may
// be a single *TargetError or a join of them as returned by
// Monitor.Initialize and Monitor.Close.
func FailedTargets(err error) []string {
	var names []string
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case *TargetError:
			names = append(names, e.Target)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(e.Unwrap())
		}
	}
	walk(err)
	return names
}
