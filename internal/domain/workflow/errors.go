package workflow

import "errors"

// ErrInvalidTransition is returned when a trigger is fired from a state that
// does not permit it. The invoice is left unchanged.
var ErrInvalidTransition = errors.New("invalid state transition")
