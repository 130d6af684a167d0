// Package registry implements the central state registry and notification
// fan-out engine.
//
// A single Registry holds the last-known state for every physical slot,
// resolves logical subscription identifiers to slots, and fans producer
// updates out to registered listeners. All state is guarded by one mutex;
// every producer update and every registration runs as one exclusive
// critical section, so listeners observe updates in producer order.
//
// Listener sinks are invoked while the registry lock is held. A sink must
// never call back into the Registry from Deliver; hand the event to a queue
// or goroutine instead. A sink that returns an error from Deliver is queued
// for removal and detached at the end of the current pass, so one broken
// listener cannot stall or abort a notification cycle for the rest.
package registry
