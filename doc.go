// Package telestate is a central, in-process state registry and notification
// fan-out engine for multi-slot radio state.
//
// Producers push state changes (call state, service state, signal strength,
// SIM activation, data-connection state, ...) for one or more physical slots.
// Remote listeners subscribe to subsets of that state, filtered by
// identity-based access rules and per-listener location tiers. The registry
// keeps a last-known-state snapshot per slot so newly registered listeners
// can be brought up to date immediately, resolves logical subscription
// identifiers to physical slots (including a runtime-mutable default
// subscription), and guarantees that no single dead or malformed listener can
// stall or abort a notification pass.
//
// # Architecture
//
//	┌─────────────┐   Notify*    ┌───────────────────────────┐
//	│  Producers  ├─────────────►│        registry           │
//	└─────────────┘              │  slot state cache         │
//	                             │  listener table           │
//	┌─────────────┐   Listen     │  dispatch + replay        │
//	│  Listeners  ├─────────────►│                           │
//	└──────▲──────┘              └─────────┬─────────────────┘
//	       │        Deliver                │ Broadcast (legacy)
//	       └───────────────────────────────┤
//	  gateway (WebSocket)           natsbridge (NATS)
//
// The core lives in the registry package. Transports (gateway, natsbridge)
// and observability (metric) are thin adapters around it.
//
// # Packages
//
//   - types: state kinds, event masks, typed payloads, sanitization
//   - registry: slot state store, listener table, dispatch engine, replay
//   - errors: structured error handling with classification
//   - metric: Prometheus metrics
//   - config: configuration loading and validation
//   - natsbridge: legacy system-wide broadcasts over NATS
//   - gateway: WebSocket transport for remote listeners
package telestate
