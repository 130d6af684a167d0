package registry

import (
	"fmt"

	"github.com/c360/telestate/errors"
	"github.com/c360/telestate/types"
)

// SlotSnapshot is a copy of the cached state for one slot.
type SlotSnapshot struct {
	Slot                  int                                          `json:"slot"`
	CallState             types.CallState                              `json:"call_state"`
	ServiceState          types.ServiceState                           `json:"service_state"`
	SignalStrength        types.SignalStrength                         `json:"signal_strength"`
	MessageWaiting        bool                                         `json:"message_waiting"`
	CallForwarding        bool                                         `json:"call_forwarding"`
	DataActivity          types.DataActivity                           `json:"data_activity"`
	DataConnectionState   types.DataState                              `json:"data_connection_state"`
	DataNetworkType       types.NetworkType                            `json:"data_network_type"`
	PreciseDataConnection map[string]types.PreciseDataConnectionState  `json:"precise_data_connection"`
	CellLocation          types.CellLocation                           `json:"cell_location"`
	PreciseCallState      types.PreciseCallState                       `json:"precise_call_state"`
	CallAttributes        types.CallAttributes                         `json:"call_attributes"`
	SrvccState            types.SrvccState                             `json:"srvcc_state"`
	VoiceActivationState  types.SimActivationState                     `json:"voice_activation_state"`
	DataActivationState   types.SimActivationState                     `json:"data_activation_state"`
	UserMobileDataState   bool                                         `json:"user_mobile_data_state"`
}

// SlotState returns a snapshot of the cached state for slot.
func (r *Registry) SlotState(slot int) (SlotSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		return SlotSnapshot{}, errors.WrapInvalid(errors.ErrInvalidSlot, "Registry", "SlotState",
			fmt.Sprintf("slot %d of %d", slot, r.slotCount))
	}

	connections := make(map[string]types.PreciseDataConnectionState,
		len(r.store.preciseDataConnection[slot]))
	for k, v := range r.store.preciseDataConnection[slot] {
		connections[k] = v
	}

	return SlotSnapshot{
		Slot:                  slot,
		CallState:             r.store.callState[slot],
		ServiceState:          r.store.serviceState[slot],
		SignalStrength:        r.store.signalStrength[slot],
		MessageWaiting:        r.store.messageWaiting[slot],
		CallForwarding:        r.store.callForwarding[slot],
		DataActivity:          r.store.dataActivity[slot],
		DataConnectionState:   r.store.dataConnectionState[slot],
		DataNetworkType:       r.store.dataConnectionNetworkType[slot],
		PreciseDataConnection: connections,
		CellLocation:          r.store.cellLocation[slot],
		PreciseCallState:      r.store.preciseCallState[slot],
		CallAttributes:        r.store.callAttributes[slot],
		SrvccState:            r.store.srvccState[slot],
		VoiceActivationState:  r.store.voiceActivationState[slot],
		DataActivationState:   r.store.dataActivationState[slot],
		UserMobileDataState:   r.store.userMobileDataState[slot],
	}, nil
}

// DefaultSubscription returns the current default subscription and its slot.
func (r *Registry) DefaultSubscription() (subID, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolver.defaultSubID, r.resolver.defaultSlot
}

// SlotCount returns the configured number of slots.
func (r *Registry) SlotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotCount
}

// ListenerCount returns the number of registered listeners of all kinds.
func (r *Registry) ListenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// ListenerInfo describes one registration for diagnostics.
type ListenerInfo struct {
	Handle   Handle          `json:"handle"`
	Identity Identity        `json:"identity"`
	Kind     string          `json:"kind"`
	Events   types.EventMask `json:"events"`
	SubID    int             `json:"subscription_id"`
	Slot     int             `json:"slot"`
	Tier     string          `json:"location_tier"`
}

// Listeners returns a snapshot of all current registrations.
func (r *Registry) Listeners() []ListenerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ListenerInfo, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, ListenerInfo{
			Handle:   rec.handle,
			Identity: rec.identity,
			Kind:     rec.kind.String(),
			Events:   rec.events,
			SubID:    rec.subID,
			Slot:     rec.slot,
			Tier:     r.policy.LocationTier(rec.identity).String(),
		})
	}
	return out
}

// RecentOperations returns the diagnostic ring of recent producer updates,
// oldest first.
func (r *Registry) RecentOperations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops.list()
}

// RecentRegistrations returns the diagnostic ring of recent listener
// registrations and removals, oldest first.
func (r *Registry) RecentRegistrations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listens.list()
}
