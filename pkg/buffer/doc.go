// Package buffer provides a bounded generic FIFO queue with configurable
// overflow behavior. It backs per-connection send queues where a slow
// consumer must not stall the producer.
package buffer
