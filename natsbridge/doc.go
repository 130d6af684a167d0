// Package natsbridge publishes legacy device-wide broadcasts over NATS.
//
// The registry core delivers events to registered listeners directly; some
// events additionally fan out to the rest of the system as fire-and-forget
// broadcasts. The bridge maps each event kind to a subject under a
// configurable prefix and publishes the event as JSON. Delivery is best
// effort: a failed publish is logged and counted, never retried.
package natsbridge
