// Package errs collects the error kinds that the quartz kernel raises,
// named after spec section 7 rather than any host language's exception
// hierarchy. Construction-time errors are returned to the builder surface;
// runtime errors propagate up through the processor tree to Simulation.
package errs

import "fmt"

// InvalidPortHostError is raised when a model posts to a port it does not
// own.
type InvalidPortHostError struct {
	Model string
	Port  string
}

func (e *InvalidPortHostError) Error() string {
	return fmt.Sprintf("model %q attempted to post to port %q it does not own", e.Model, e.Port)
}

// NoSuchPortError is raised when a port name does not resolve on a model.
type NoSuchPortError struct {
	Model string
	Port  string
}

func (e *NoSuchPortError) Error() string {
	return fmt.Sprintf("model %q has no port named %q", e.Model, e.Port)
}

// FeedbackCouplingError is raised when a coupling would connect a model's
// own port to itself at the same level.
type FeedbackCouplingError struct {
	Port string
}

func (e *FeedbackCouplingError) Error() string {
	return fmt.Sprintf("port %q cannot be coupled to itself", e.Port)
}

// InvalidCouplingError is raised when a coupling crosses a non-sibling
// boundary, or connects ports of the wrong direction.
type InvalidCouplingError struct {
	Src, Dst string
	Reason   string
}

func (e *InvalidCouplingError) Error() string {
	return fmt.Sprintf("cannot couple %q to %q: %s", e.Src, e.Dst, e.Reason)
}

// UnobservablePortError is raised when an observer attaches to an input
// port, or to a non-atomic model's output port.
type UnobservablePortError struct {
	Port string
}

func (e *UnobservablePortError) Error() string {
	return fmt.Sprintf("port %q is not observable", e.Port)
}

// InvalidStateError is raised when a state value's declared class does not
// match the model slot it is assigned to.
type InvalidStateError struct {
	Model    string
	WantType string
	GotType  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("model %q expects state of type %q, got %q", e.Model, e.WantType, e.GotType)
}

// InvalidProcessorError is raised when a model is driven through a
// processor that does not own it.
type InvalidProcessorError struct {
	Model string
}

func (e *InvalidProcessorError) Error() string {
	return fmt.Sprintf("no processor owns model %q", e.Model)
}

// BadSynchronisationError is raised by Duration arithmetic between two
// fixed-precision durations of differing precision.
type BadSynchronisationError struct {
	LeftPrecision, RightPrecision int
}

func (e *BadSynchronisationError) Error() string {
	return fmt.Sprintf(
		"cannot combine fixed durations at precision %d and %d without rescaling",
		e.LeftPrecision, e.RightPrecision,
	)
}

// ArithmeticError is raised when Duration arithmetic would produce NaN.
type ArithmeticError struct {
	Op string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("duration arithmetic produced NaN in %s", e.Op)
}

// UnknownHandleError is raised when an event set is asked to adjust or
// delete a handle it never received, or never received a Push for.
type UnknownHandleError struct {
	Handle string
}

func (e *UnknownHandleError) Error() string {
	return fmt.Sprintf("event set has no entry for handle %q", e.Handle)
}
