package natsbridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/telestate/errors"
	"github.com/c360/telestate/metric"
	"github.com/c360/telestate/types"
)

// Config holds NATS bridge configuration.
type Config struct {
	Enabled             bool     `json:"enabled"`
	URLs                []string `json:"urls"`
	Name                string   `json:"name"`
	SubjectPrefix       string   `json:"subject_prefix"`
	MaxReconnects       int      `json:"max_reconnects"`
	ReconnectWaitMillis int      `json:"reconnect_wait_millis"`
	TimeoutMillis       int      `json:"timeout_millis"`
}

// DefaultConfig returns the bridge defaults.
func DefaultConfig() Config {
	return Config{
		URLs:                []string{nats.DefaultURL},
		Name:                "telestate-bridge",
		SubjectPrefix:       "telestate.broadcast",
		MaxReconnects:       -1,
		ReconnectWaitMillis: 2000,
		TimeoutMillis:       5000,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.URLs) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "nats urls")
	}
	if c.SubjectPrefix == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "subject prefix")
	}
	if strings.ContainsAny(c.SubjectPrefix, " \t*>") {
		return errors.WrapInvalid(
			fmt.Errorf("subject prefix %q", c.SubjectPrefix),
			"Config", "Validate", "subject prefix must be a literal subject")
	}
	return nil
}

// broadcastMessage is the wire form of one legacy broadcast.
type broadcastMessage struct {
	Kind    string        `json:"kind"`
	Slot    int           `json:"slot"`
	SubID   int           `json:"subscription_id"`
	Payload types.Payload `json:"payload"`
	Time    time.Time     `json:"time"`
}

// Bridge publishes registry events to NATS. It implements
// registry.Broadcaster.
type Bridge struct {
	cfg     Config
	conn    *nats.Conn
	log     *slog.Logger
	metrics *metric.Metrics
	closed  atomic.Bool
}

// New connects to NATS and returns a ready bridge. Logger and metrics are
// optional.
func New(cfg Config, log *slog.Logger, metrics *metric.Metrics) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "natsbridge")

	b := &Bridge{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(time.Duration(cfg.ReconnectWaitMillis) * time.Millisecond),
		nats.Timeout(time.Duration(cfg.TimeoutMillis) * time.Millisecond),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			b.log.Warn("nats disconnected", "error", err)
			b.recordStatus(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			b.log.Info("nats reconnected", "url", nc.ConnectedUrl())
			b.recordStatus(true)
			if b.metrics != nil {
				b.metrics.RecordNATSReconnect()
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			b.recordStatus(false)
		}),
	}

	conn, err := nats.Connect(strings.Join(cfg.URLs, ","), opts...)
	if err != nil {
		return nil, errors.WrapTransient(err, "Bridge", "New", "nats connect")
	}
	b.conn = conn
	b.recordStatus(true)
	b.log.Info("nats bridge connected", "url", conn.ConnectedUrl())

	return b, nil
}

// Broadcast publishes one event under the configured subject prefix. The
// event kind becomes the final subject token.
func (b *Bridge) Broadcast(ev types.Event) error {
	if b.closed.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Bridge", "Broadcast", "bridge closed")
	}

	msg := broadcastMessage{
		Kind:    ev.Kind().String(),
		Slot:    ev.Slot,
		SubID:   ev.SubID,
		Payload: ev.Payload,
		Time:    time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.WrapInvalid(err, "Bridge", "Broadcast", "marshal event")
	}

	subject := b.cfg.SubjectPrefix + "." + msg.Kind
	if err := b.conn.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Bridge", "Broadcast",
			fmt.Sprintf("publish to %s", subject))
	}

	if b.metrics != nil {
		b.metrics.RecordNATSPublished(subject)
	}
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (b *Bridge) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}

// Close drains the connection. Safe to call more than once.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.recordStatus(false)
	if b.conn == nil {
		return nil
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return errors.WrapTransient(err, "Bridge", "Close", "drain connection")
	}
	return nil
}

func (b *Bridge) recordStatus(connected bool) {
	if b.metrics != nil {
		b.metrics.RecordNATSStatus(connected)
	}
}
