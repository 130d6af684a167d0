package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/telestate/errors"
	"github.com/c360/telestate/metric"
	"github.com/c360/telestate/types"
)

// Broadcaster publishes legacy device-wide broadcasts alongside listener
// dispatch. Implementations must not call back into the Registry.
type Broadcaster interface {
	Broadcast(ev types.Event) error
}

// Config holds registry configuration.
type Config struct {
	SlotCount     int `json:"slot_count"`
	DefaultSubID  int `json:"default_subscription_id"`
	DefaultSlot   int `json:"default_slot"`
	OpLogCapacity int `json:"op_log_capacity"`
}

// DefaultConfig returns a single-slot configuration with no default
// subscription selected yet.
func DefaultConfig() Config {
	return Config{
		SlotCount:     1,
		DefaultSubID:  types.InvalidSubscriptionID,
		DefaultSlot:   types.InvalidSlot,
		OpLogCapacity: 100,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.SlotCount < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("slot count %d", c.SlotCount),
			"Config", "Validate", "slot count must be at least 1")
	}
	if c.DefaultSlot != types.InvalidSlot && (c.DefaultSlot < 0 || c.DefaultSlot >= c.SlotCount) {
		return errors.WrapInvalid(
			fmt.Errorf("default slot %d with %d slots", c.DefaultSlot, c.SlotCount),
			"Config", "Validate", "default slot out of range")
	}
	if c.OpLogCapacity < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("op log capacity %d", c.OpLogCapacity),
			"Config", "Validate", "op log capacity must not be negative")
	}
	return nil
}

// Deps carries the collaborators a Registry uses. All fields are optional:
// a nil Policy admits everything, a nil Logger falls back to slog.Default,
// and nil Metrics or Broadcaster disable those integrations.
type Deps struct {
	Policy      AccessPolicy
	Logger      *slog.Logger
	Metrics     *metric.Metrics
	Broadcaster Broadcaster
}

// Registry is the central state registry and fan-out engine.
type Registry struct {
	mu sync.Mutex

	policy    AccessPolicy
	log       *slog.Logger
	metrics   *metric.Metrics
	broadcast Broadcaster

	slotCount int
	store     *stateStore
	resolver  *subscriptionResolver

	records     []*record
	byHandle    map[Handle]*record
	removeQueue []Handle

	// Set once the corresponding change has been observed; gates replay
	// for subscription-change listeners.
	subsChangedOccurred          bool
	opportunisticChangedOccurred bool

	ops     *opLog
	listens *opLog
}

// New creates a Registry from cfg and deps.
func New(cfg Config, deps Deps) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy := deps.Policy
	if policy == nil {
		policy = AllowAllPolicy{}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := &Registry{
		policy:    policy,
		log:       log.With("component", "registry"),
		metrics:   deps.Metrics,
		broadcast: deps.Broadcaster,
		slotCount: cfg.SlotCount,
		store:     newStateStore(cfg.SlotCount),
		resolver:  newSubscriptionResolver(cfg.DefaultSubID, cfg.DefaultSlot),
		byHandle:  make(map[Handle]*record),
		ops:       newOpLog(cfg.OpLogCapacity),
		listens:   newOpLog(cfg.OpLogCapacity),
	}
	return r, nil
}

// Listen registers sink for the event kinds in events, scoped to subID. Use
// types.DefaultSubscriptionID to track whichever subscription is the current
// default. With replay set, the cached state for every requested kind is
// delivered synchronously before Listen returns.
//
// Re-registering the same sink replaces its interest set in place; the
// original handle stays valid. Registering with an empty mask removes the
// registration. A soft policy denial returns an empty handle and no error;
// the caller is registered for nothing.
func (r *Registry) Listen(
	id Identity, sink Sink, events types.EventMask, subID int, replay bool,
) (Handle, error) {
	if sink == nil {
		return "", errors.WrapInvalid(errors.ErrInvalidData, "Registry", "Listen", "nil sink")
	}

	switch r.policy.CheckListen(id, events) {
	case DecisionDenyHard:
		return "", errors.WrapInvalid(errors.ErrCapabilityDenied, "Registry", "Listen",
			fmt.Sprintf("capability check for %s", id.Package))
	case DecisionDenySoft:
		r.log.Debug("listen soft-denied", "package", id.Package, "uid", id.UID)
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findBySinkLocked(sink)

	if events == types.EventNone {
		if rec != nil {
			r.removeRecordLocked(rec, "unlisten")
		}
		return "", nil
	}

	if rec == nil {
		rec = &record{
			handle:   Handle(uuid.NewString()),
			identity: id,
			sink:     sink,
		}
		if tw, ok := sink.(TerminationWatcher); ok {
			handle := rec.handle
			unwatch, err := tw.WatchTermination(func() {
				_ = r.Unregister(handle)
			})
			if err != nil {
				// Peer already gone; nothing to register.
				r.log.Debug("listener dead at registration", "package", id.Package)
				return "", nil
			}
			rec.unwatch = unwatch
		}
		r.records = append(r.records, rec)
		r.byHandle[rec.handle] = rec
	}

	rec.kind = listenEvents
	rec.events = events
	rec.subID = subID
	rec.slot = r.resolveSlotLocked(subID)

	r.listens.add("listen pkg=%s sub=%d slot=%d events=%#x replay=%v",
		id.Package, subID, rec.slot, uint32(events), replay)
	r.recordListenerGaugeLocked()

	if replay {
		r.replayLocked(rec)
		r.flushRemovalsLocked()
	}

	return rec.handle, nil
}

// ListenSubscriptionChanges registers sink for subscription-set change
// signals. With replay set and a change already observed, one signal is
// delivered immediately.
func (r *Registry) ListenSubscriptionChanges(id Identity, sink Sink, replay bool) (Handle, error) {
	return r.listenSubsChanged(id, sink, replay, false)
}

// ListenOpportunisticSubscriptionChanges is ListenSubscriptionChanges
// restricted to opportunistic subscription changes.
func (r *Registry) ListenOpportunisticSubscriptionChanges(
	id Identity, sink Sink, replay bool,
) (Handle, error) {
	return r.listenSubsChanged(id, sink, replay, true)
}

func (r *Registry) listenSubsChanged(
	id Identity, sink Sink, replay, opportunistic bool,
) (Handle, error) {
	if sink == nil {
		return "", errors.WrapInvalid(errors.ErrInvalidData, "Registry", "ListenSubscriptionChanges", "nil sink")
	}

	mask := types.KindSubscriptionsChanged.Mask()
	if opportunistic {
		mask = types.KindOpportunisticSubscriptionsChanged.Mask()
	}
	switch r.policy.CheckListen(id, mask) {
	case DecisionDenyHard:
		return "", errors.WrapInvalid(errors.ErrCapabilityDenied, "Registry",
			"ListenSubscriptionChanges", fmt.Sprintf("capability check for %s", id.Package))
	case DecisionDenySoft:
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findBySinkLocked(sink)
	if rec == nil {
		rec = &record{
			handle:   Handle(uuid.NewString()),
			identity: id,
			sink:     sink,
			subID:    types.InvalidSubscriptionID,
			slot:     types.InvalidSlot,
		}
		if tw, ok := sink.(TerminationWatcher); ok {
			handle := rec.handle
			unwatch, err := tw.WatchTermination(func() {
				_ = r.Unregister(handle)
			})
			if err != nil {
				return "", nil
			}
			rec.unwatch = unwatch
		}
		r.records = append(r.records, rec)
		r.byHandle[rec.handle] = rec
	}

	rec.kind = listenSubscriptionsChanged
	rec.events = mask
	occurred := r.subsChangedOccurred
	if opportunistic {
		rec.kind = listenOpportunisticSubsChanged
		occurred = r.opportunisticChangedOccurred
	}

	r.listens.add("listen-subs pkg=%s opportunistic=%v replay=%v", id.Package, opportunistic, replay)
	r.recordListenerGaugeLocked()

	if replay && occurred {
		ev := types.Event{Slot: types.InvalidSlot, SubID: types.InvalidSubscriptionID}
		if opportunistic {
			ev.Payload = types.OpportunisticSubscriptionsChange{}
		} else {
			ev.Payload = types.SubscriptionsChange{}
		}
		r.deliverLocked(rec, ev)
		r.flushRemovalsLocked()
	}

	return rec.handle, nil
}

// Unregister removes the registration identified by handle. Removing a
// handle that is no longer present is a no-op: termination teardown and an
// explicit Unregister can race, and whichever runs second must be harmless.
func (r *Registry) Unregister(handle Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byHandle[handle]
	if !ok {
		r.log.Debug("unregister for absent handle", "handle", string(handle))
		return nil
	}
	r.removeRecordLocked(rec, "unregister")
	return nil
}

// SetDefaultSubscription switches the default subscription to (subID, slot).
// Before the switch takes effect, every listener tracking the default
// sentinel is reconciled against the cached state of the new slot so it does
// not miss updates that landed there while it was pointed elsewhere.
func (r *Registry) SetDefaultSubscription(subID, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot != types.InvalidSlot && !r.validSlotLocked(slot) {
		r.dropNotifyLocked("SetDefaultSubscription", "invalid_slot", slot)
		return
	}

	r.ops.add("default-sub old=%d/%d new=%d/%d",
		r.resolver.defaultSubID, r.resolver.defaultSlot, subID, slot)

	for _, rec := range r.records {
		if rec.kind == listenEvents && rec.subID == types.DefaultSubscriptionID {
			r.missedNotifyLocked(rec, slot)
		}
	}
	r.flushRemovalsLocked()

	r.resolver.setDefault(subID, slot)
	for _, rec := range r.records {
		if rec.kind == listenEvents && rec.subID == types.DefaultSubscriptionID {
			rec.slot = slot
		}
	}

	if r.metrics != nil {
		r.metrics.RecordDefaultSubChange()
	}
}

// SetSubscriptionMapping binds subID to a physical slot for resolution at
// registration time. A slot of types.InvalidSlot removes the binding.
// Existing registrations are not re-resolved.
func (r *Registry) SetSubscriptionMapping(subID, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolver.setMapping(subID, slot)
	r.ops.add("sub-mapping sub=%d slot=%d", subID, slot)
}

// SetSlotCount resizes the per-slot state to n slots. Cached state for
// surviving slots is preserved; listeners resolved to a removed slot become
// unresolved until they re-register or the mapping changes.
func (r *Registry) SetSlotCount(n int) error {
	if n < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("slot count %d", n),
			"Registry", "SetSlotCount", "slot count must be at least 1")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ops.add("slot-count old=%d new=%d", r.slotCount, n)
	r.slotCount = n
	r.store.resize(n)

	for _, rec := range r.records {
		if rec.slot >= n {
			rec.slot = types.InvalidSlot
		}
	}
	if r.resolver.defaultSlot >= n {
		r.resolver.defaultSlot = types.InvalidSlot
	}
	return nil
}

func (r *Registry) findBySinkLocked(sink Sink) *record {
	for _, rec := range r.records {
		if rec.sink == sink {
			return rec
		}
	}
	return nil
}

func (r *Registry) resolveSlotLocked(subID int) int {
	slot := r.resolver.slotOf(subID)
	if !r.validSlotLocked(slot) {
		return types.InvalidSlot
	}
	return slot
}

func (r *Registry) validSlotLocked(slot int) bool {
	return slot >= 0 && slot < r.slotCount
}

// deliverLocked hands ev to one record's sink. A failed delivery queues the
// record for removal; actual removal is deferred to flushRemovalsLocked so
// callers can keep iterating the records slice.
func (r *Registry) deliverLocked(rec *record, ev types.Event) {
	kind := ev.Kind()
	if err := rec.sink.Deliver(ev); err != nil {
		r.log.Warn("listener delivery failed",
			"package", rec.identity.Package,
			"event", kind.String(),
			"error", err)
		if r.metrics != nil {
			r.metrics.RecordDeliveryFailure(kind.String())
		}
		r.removeQueue = append(r.removeQueue, rec.handle)
		return
	}
	if r.metrics != nil {
		r.metrics.RecordDispatch(kind.String())
	}
}

// flushRemovalsLocked detaches every record queued by failed deliveries
// during the current pass.
func (r *Registry) flushRemovalsLocked() {
	if len(r.removeQueue) == 0 {
		return
	}
	queue := r.removeQueue
	r.removeQueue = nil
	for _, handle := range queue {
		if rec, ok := r.byHandle[handle]; ok {
			r.removeRecordLocked(rec, "delivery_failure")
		}
	}
}

func (r *Registry) removeRecordLocked(rec *record, reason string) {
	if rec.unwatch != nil {
		rec.unwatch()
		rec.unwatch = nil
	}
	delete(r.byHandle, rec.handle)
	for i, candidate := range r.records {
		if candidate == rec {
			r.records = append(r.records[:i], r.records[i+1:]...)
			break
		}
	}

	r.listens.add("remove pkg=%s reason=%s", rec.identity.Package, reason)
	r.log.Debug("listener removed", "package", rec.identity.Package, "reason", reason)
	if r.metrics != nil {
		r.metrics.RecordListenerRemoved(reason)
	}
	r.recordListenerGaugeLocked()
}

func (r *Registry) recordListenerGaugeLocked() {
	if r.metrics == nil {
		return
	}
	counts := make(map[listenerKind]int)
	for _, rec := range r.records {
		counts[rec.kind]++
	}
	for _, kind := range []listenerKind{listenEvents, listenSubscriptionsChanged, listenOpportunisticSubsChanged} {
		r.metrics.RecordListenerCount(kind.String(), counts[kind])
	}
}

func (r *Registry) dropNotifyLocked(op, reason string, slot int) {
	r.log.Debug("update dropped", "operation", op, "reason", reason, "slot", slot)
	if r.metrics != nil {
		r.metrics.RecordNotifyDropped(op, reason)
	}
}

func (r *Registry) publishLocked(ev types.Event) {
	if r.broadcast == nil {
		return
	}
	if err := r.broadcast.Broadcast(ev); err != nil {
		r.log.Warn("legacy broadcast failed", "event", ev.Kind().String(), "error", err)
	}
}
