// Package errors provides standardized error handling for telestate.
//
// Errors are classified into three classes: Transient (temporary, retryable),
// Invalid (bad input or denied capability, non-retryable), and Fatal
// (unrecoverable, stop processing). Classification survives wrapping and
// integrates with errors.Is/As.
//
// All wrapping follows the pattern "component.method: action failed: %w":
//
//	if err := sink.Deliver(ev); err != nil {
//	    return errors.WrapTransient(err, "Registry", "dispatch", "listener delivery")
//	}
//
// The registry-specific taxonomy maps the error policy of the core:
//
//   - ErrCapabilityDenied and ErrLocationDenied are hard permission denials,
//     surfaced to the caller of Listen.
//   - ErrInvalidSlot and ErrInvalidSubscription are addressing failures; the
//     affected operation is a silent no-op at the call site.
//   - ErrDeliveryFailed and ErrListenerTerminated are recovered locally by
//     queueing the listener for removal.
package errors
