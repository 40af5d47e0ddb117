package contract

// FaultError reports a violation of an invariant the rest of the system
// guarantees never occurs, like converting a legacy claim contract or using
// the out-of-bound type sentinel as a value. It is not a recoverable runtime
// condition: callers on the dispatch path treat it as unreachable.
type FaultError struct {
	reason string
}

// NewFault creates an internal logic fault with the given reason.
func NewFault(reason string) FaultError {
	return FaultError{reason: reason}
}

// Error implements error.
func (e FaultError) Error() string {
	return "internal logic fault: " + e.reason
}
