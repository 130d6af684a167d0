package registry

import (
	"github.com/c360/telestate/types"
)

// Handle identifies one listener registration. Handles are opaque and unique
// for the lifetime of the process.
type Handle string

// Identity describes the party behind a listener registration. The access
// policy uses it to decide capability and location questions; the registry
// itself only logs it.
type Identity struct {
	Package   string `json:"package"`
	FeatureID string `json:"feature_id,omitempty"`
	UID       int    `json:"uid"`
	PID       int    `json:"pid"`
}

// Sink receives events for one listener. Deliver is called with the registry
// lock held and must not block or call back into the Registry. Sinks are
// compared by identity for idempotent re-registration, so use a pointer type.
type Sink interface {
	Deliver(ev types.Event) error
}

// TerminationWatcher is an optional interface a Sink can implement to let
// the registry observe the death of the remote peer. WatchTermination
// installs onTerminated to run once when the peer goes away and returns a
// function that cancels the watch. An error means the peer is already dead;
// the registration becomes a no-op.
type TerminationWatcher interface {
	WatchTermination(onTerminated func()) (unwatch func(), err error)
}

// LocationTier is the location access level granted to a listener.
type LocationTier int

const (
	// TierNone strips both fine and coarse location from delivered state.
	TierNone LocationTier = iota
	// TierCoarse strips fine location only.
	TierCoarse
	// TierFine delivers location-bearing state unmodified.
	TierFine
)

func (t LocationTier) String() string {
	switch t {
	case TierCoarse:
		return "coarse"
	case TierFine:
		return "fine"
	default:
		return "none"
	}
}

// Decision is the outcome of a registration capability check.
type Decision int

const (
	// DecisionAllow admits the registration.
	DecisionAllow Decision = iota
	// DecisionDenySoft rejects the registration silently: the caller gets
	// no error and no events.
	DecisionDenySoft
	// DecisionDenyHard rejects the registration with an error.
	DecisionDenyHard
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDenySoft:
		return "deny-soft"
	default:
		return "deny-hard"
	}
}

// AccessPolicy answers the capability questions the registry asks.
// CheckListen is consulted once per registration; LocationTier and
// AllowCallLog are consulted on every delivery, so a permission change takes
// effect without re-registration. All methods may be called with the
// registry lock held and must not call back into the Registry.
type AccessPolicy interface {
	// CheckListen decides whether identity may listen for the given kinds.
	CheckListen(id Identity, events types.EventMask) Decision

	// LocationTier returns the location access level for identity.
	LocationTier(id Identity) LocationTier

	// AllowCallLog reports whether identity may see incoming numbers.
	AllowCallLog(id Identity) bool

	// AllowNotify reports whether producers may invoke the named update
	// operation. A false return turns the update into a logged no-op.
	AllowNotify(operation string) bool
}

// AllowAllPolicy is an AccessPolicy that admits everything at the fine
// location tier. It is the default when no policy is configured.
type AllowAllPolicy struct{}

// CheckListen always allows.
func (AllowAllPolicy) CheckListen(Identity, types.EventMask) Decision { return DecisionAllow }

// LocationTier always grants fine location.
func (AllowAllPolicy) LocationTier(Identity) LocationTier { return TierFine }

// AllowCallLog always allows.
func (AllowAllPolicy) AllowCallLog(Identity) bool { return true }

// AllowNotify always allows.
func (AllowAllPolicy) AllowNotify(string) bool { return true }

type listenerKind int

const (
	listenEvents listenerKind = iota
	listenSubscriptionsChanged
	listenOpportunisticSubsChanged
)

func (k listenerKind) String() string {
	switch k {
	case listenSubscriptionsChanged:
		return "subscriptions"
	case listenOpportunisticSubsChanged:
		return "opportunistic_subscriptions"
	default:
		return "events"
	}
}

// record is one listener registration.
type record struct {
	handle   Handle
	identity Identity
	sink     Sink
	unwatch  func()
	kind     listenerKind

	events types.EventMask
	subID  int
	slot   int
}

// matches reports whether this record should receive an event addressed to
// (eventSubID, eventSlot). Slot-scoped events (negative eventSubID) match
// when the event's slot is the current default slot. Listeners registered
// for the default-subscription sentinel track whatever the default
// subscription currently is; all other listeners match their exact
// subscription.
func (r *record) matches(eventSubID, eventSlot, defaultSubID, defaultSlot int) bool {
	if eventSubID < 0 {
		return eventSlot == defaultSlot
	}
	if r.subID == types.DefaultSubscriptionID {
		return eventSubID == defaultSubID
	}
	return r.subID == eventSubID
}

// wants reports whether this record is an event listener interested in kind.
func (r *record) wants(kind types.EventKind) bool {
	return r.kind == listenEvents && r.events.Has(kind)
}
