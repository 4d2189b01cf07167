// Package errcode defines the relay's stable, comparable error taxonomy.
package errcode

// Code is a stable error identifier: a string newtype, comparable,
// allocation-free, and an error in its own right.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (spec.md §7).
const (
	OK Code = "ok"

	ConfigurationInvalid Code = "configuration_invalid"
	Unsupported          Code = "unsupported"
	DuplicateIdentity    Code = "duplicate_identity"
	DanglingEdge         Code = "dangling_edge"
	LifecycleViolation   Code = "lifecycle_violation"
	EndpointFailure      Code = "endpoint_failure"
	ShutdownFailure      Code = "shutdown_failure"

	Error Code = "error" // generic fallback
)

// E wraps a Code with operation context and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := e.Op + ": " + string(e.C)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
