// Package types defines the state vocabulary shared by the registry core and
// its transports: slot and subscription sentinels, state enumerations, event
// kinds with their bitmask representation, and the typed payloads carried by
// notification events.
//
// Payloads are plain value types. Anything carrying location-derived fields
// implements sanitization so the dispatch layer can downgrade events for
// listeners without fine location access.
package types
