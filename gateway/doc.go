// Package gateway exposes the state registry to WebSocket clients.
//
// A connected client registers interest with a JSON "listen" command naming
// the event kinds it wants; the gateway translates that into a registry
// registration backed by a per-connection send queue. Events flow back as
// JSON frames. When the connection drops the registration is torn down
// through the registry's termination watch, the same path a crashed
// in-process listener takes.
//
// Slow clients do not stall dispatch: the send queue evicts its oldest
// frame on overflow and the eviction is counted.
package gateway
