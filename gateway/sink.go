package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/telestate/errors"
	"github.com/c360/telestate/pkg/buffer"
	"github.com/c360/telestate/registry"
	"github.com/c360/telestate/types"
)

// wsSink adapts one connection to the registry's sink contract. The
// registry distinguishes registrations by sink value, so a connection
// holds one sink per listener kind, all feeding the same send queue.
type wsSink struct {
	c *client
}

// Deliver enqueues the event for the write pump. Called with the registry
// lock held, so it must not block; the queue drops its oldest frame when
// full.
func (s *wsSink) Deliver(ev types.Event) error {
	return s.c.enqueue(ev)
}

// WatchTermination ties the registration's lifetime to the connection.
func (s *wsSink) WatchTermination(onTerminated func()) (func(), error) {
	return s.c.watchTermination(onTerminated)
}

var _ registry.Sink = (*wsSink)(nil)
var _ registry.TerminationWatcher = (*wsSink)(nil)

// client is one connected WebSocket peer.
type client struct {
	srv      *Server
	conn     *websocket.Conn
	identity registry.Identity
	queue    *buffer.Queue[types.Event]

	eventsSink *wsSink
	subsSink   *wsSink
	oppSink    *wsSink

	// Serializes frame writes; gorilla connections do not allow
	// concurrent writers.
	writeMu sync.Mutex

	termMu    sync.Mutex
	watchers  map[int]func()
	nextWatch int
	dead      bool

	closeOnce sync.Once
}

func newClient(s *Server, conn *websocket.Conn, id registry.Identity) *client {
	c := &client{
		srv:      s,
		conn:     conn,
		identity: id,
		queue:    buffer.New[types.Event](s.cfg.SendQueueSize, buffer.DropOldest),
		watchers: make(map[int]func()),
	}
	c.eventsSink = &wsSink{c: c}
	c.subsSink = &wsSink{c: c}
	c.oppSink = &wsSink{c: c}
	return c
}

func (c *client) enqueue(ev types.Event) error {
	return c.queue.Put(ev)
}

func (c *client) watchTermination(onTerminated func()) (func(), error) {
	c.termMu.Lock()
	defer c.termMu.Unlock()
	if c.dead {
		return nil, errors.WrapInvalid(errors.ErrListenerTerminated,
			"client", "watchTermination", "connection already closed")
	}
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = onTerminated
	return func() {
		c.termMu.Lock()
		delete(c.watchers, id)
		c.termMu.Unlock()
	}, nil
}

// terminate fires every pending termination watch exactly once.
func (c *client) terminate() {
	c.termMu.Lock()
	if c.dead {
		c.termMu.Unlock()
		return
	}
	c.dead = true
	pending := make([]func(), 0, len(c.watchers))
	for _, fn := range c.watchers {
		pending = append(pending, fn)
	}
	c.watchers = make(map[int]func())
	c.termMu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// run drives the connection until it drops. The read loop owns the
// connection lifetime; the write pump drains the send queue until close.
func (c *client) run() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	c.readLoop()
	c.close()
	wg.Wait()
}

func (c *client) readLoop() {
	pongWait := time.Duration(c.srv.cfg.PongTimeoutMillis) * time.Millisecond
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.sendError("malformed command")
			continue
		}
		c.srv.recordMessage("in", cmd.Op)
		c.handleCommand(cmd)
	}
}

func (c *client) handleCommand(cmd clientCommand) {
	switch cmd.Op {
	case "listen":
		c.handleListen(cmd)
	case "unlisten":
		_, _ = c.srv.reg.Listen(c.identity, c.eventsSink, types.EventNone,
			types.DefaultSubscriptionID, false)
		c.sendControl("unlistened")
	case "listen_subscriptions":
		c.handleSubsListen(cmd, c.subsSink, c.srv.reg.ListenSubscriptionChanges)
	case "listen_opportunistic":
		c.handleSubsListen(cmd, c.oppSink, c.srv.reg.ListenOpportunisticSubscriptionChanges)
	case "ping":
		c.sendControl("pong")
	default:
		c.sendError("unknown op")
	}
}

func (c *client) handleListen(cmd clientCommand) {
	mask, err := parseEventMask(cmd.Events)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	subID := types.DefaultSubscriptionID
	if cmd.SubscriptionID != nil {
		subID = *cmd.SubscriptionID
	}

	if _, err := c.srv.reg.Listen(c.identity, c.eventsSink, mask, subID, cmd.Replay); err != nil {
		c.sendError(err.Error())
		return
	}
	c.sendControl("listening")
}

func (c *client) handleSubsListen(
	cmd clientCommand,
	sink *wsSink,
	listen func(registry.Identity, registry.Sink, bool) (registry.Handle, error),
) {
	if _, err := listen(c.identity, sink, cmd.Replay); err != nil {
		c.sendError(err.Error())
		return
	}
	c.sendControl("listening")
}

// writePump drains the send queue onto the wire. A write failure closes
// the connection; closing the queue ends the pump.
func (c *client) writePump() {
	for {
		ev, ok := c.queue.Next()
		if !ok {
			return
		}
		data, err := marshalEvent(ev)
		if err != nil {
			c.srv.log.Warn("event marshal failed", "kind", ev.Kind().String(), "error", err)
			continue
		}
		if err := c.write(websocket.TextMessage, data); err != nil {
			c.close()
			return
		}
		c.srv.recordMessage("out", "event")
	}
}

func (c *client) sendControl(frameType string) {
	data, err := json.Marshal(controlFrame{Type: frameType})
	if err != nil {
		return
	}
	if err := c.write(websocket.TextMessage, data); err != nil {
		c.close()
		return
	}
	c.srv.recordMessage("out", frameType)
}

func (c *client) sendError(message string) {
	data, err := json.Marshal(controlFrame{Type: "error", Error: message})
	if err != nil {
		return
	}
	if err := c.write(websocket.TextMessage, data); err != nil {
		c.close()
		return
	}
	c.srv.recordMessage("out", "error")
}

func (c *client) ping() error {
	return c.write(websocket.PingMessage, nil)
}

func (c *client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	timeout := time.Duration(c.srv.cfg.WriteTimeoutMillis) * time.Millisecond
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(messageType, data)
}

// close tears the connection down: the queue stops the write pump, the
// termination watches unregister the listeners, and the server forgets
// the client.
func (c *client) close() {
	c.closeOnce.Do(func() {
		c.queue.Close()
		_ = c.conn.Close()
		c.terminate()
		c.srv.removeClient(c)
		if dropped := c.queue.Dropped(); dropped > 0 {
			c.srv.log.Warn("client closed with dropped frames",
				"package", c.identity.Package, "dropped", dropped)
		}
	})
}
