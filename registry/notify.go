package registry

import (
	"time"

	"github.com/c360/telestate/types"
)

// allowNotify asks the policy whether the named producer operation may run.
// Denied operations are logged no-ops.
func (r *Registry) allowNotify(op string) bool {
	if r.policy.AllowNotify(op) {
		return true
	}
	r.log.Warn("update denied", "operation", op)
	if r.metrics != nil {
		r.metrics.RecordNotifyDropped(op, "denied")
	}
	return false
}

// dispatchLocked fans one payload out to every matching listener and flushes
// deferred removals afterwards.
func (r *Registry) dispatchLocked(op string, subID, slot int, payload types.Payload) {
	r.dispatchEachLocked(op, subID, slot, payload.Kind(), func(*record) (types.Payload, bool) {
		return payload, true
	})
}

// dispatchEachLocked is dispatchLocked with a per-record payload, for events
// that are filtered or downgraded per listener.
func (r *Registry) dispatchEachLocked(
	op string, subID, slot int, kind types.EventKind,
	payload func(rec *record) (types.Payload, bool),
) {
	start := time.Now()
	for _, rec := range r.records {
		if !rec.wants(kind) {
			continue
		}
		if !rec.matches(subID, slot, r.resolver.defaultSubID, r.resolver.defaultSlot) {
			continue
		}
		p, ok := payload(rec)
		if !ok {
			continue
		}
		r.deliverLocked(rec, types.Event{Slot: slot, SubID: subID, Payload: p})
	}
	r.flushRemovalsLocked()
	if r.metrics != nil {
		r.metrics.RecordDispatchDuration(op, time.Since(start))
	}
}

// dispatchAllLocked delivers a payload to every event listener interested in
// its kind, ignoring subscription matching. Used for device-wide events.
func (r *Registry) dispatchAllLocked(op string, slot int, payload types.Payload) {
	start := time.Now()
	kind := payload.Kind()
	for _, rec := range r.records {
		if !rec.wants(kind) {
			continue
		}
		r.deliverLocked(rec, types.Event{
			Slot:    slot,
			SubID:   types.InvalidSubscriptionID,
			Payload: payload,
		})
	}
	r.flushRemovalsLocked()
	if r.metrics != nil {
		r.metrics.RecordDispatchDuration(op, time.Since(start))
	}
}

// NotifyCallState reports the coarse call state for one subscription. Only
// listeners registered for exactly that subscription receive it; listeners
// on the default sentinel are served by NotifyCallStateForAllSubs.
func (r *Registry) NotifyCallState(subID, slot int, state types.CallState, incomingNumber string) {
	const op = "NotifyCallState"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.callState[slot] = state
	r.store.callIncomingNumber[slot] = incomingNumber
	r.ops.add("call-state sub=%d slot=%d state=%s", subID, slot, state)

	r.dispatchEachLocked(op, subID, slot, types.KindCallState,
		func(rec *record) (types.Payload, bool) {
			if rec.subID != subID || rec.subID == types.DefaultSubscriptionID {
				return nil, false
			}
			p := types.CallStateChange{State: state}
			if r.policy.AllowCallLog(rec.identity) {
				p.IncomingNumber = incomingNumber
			}
			return p, true
		})

	r.publishLocked(types.Event{
		Slot:    slot,
		SubID:   subID,
		Payload: types.CallStateChange{State: state},
	})
}

// NotifyCallStateForAllSubs reports the device-wide call state. It reaches
// only listeners registered with the default-subscription sentinel and does
// not touch the per-slot cache.
func (r *Registry) NotifyCallStateForAllSubs(state types.CallState, incomingNumber string) {
	const op = "NotifyCallStateForAllSubs"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ops.add("call-state-all state=%s", state)

	start := time.Now()
	for _, rec := range r.records {
		if !rec.wants(types.KindCallState) || rec.subID != types.DefaultSubscriptionID {
			continue
		}
		p := types.CallStateChange{State: state}
		if r.policy.AllowCallLog(rec.identity) {
			p.IncomingNumber = incomingNumber
		}
		r.deliverLocked(rec, types.Event{
			Slot:    types.InvalidSlot,
			SubID:   types.InvalidSubscriptionID,
			Payload: p,
		})
	}
	r.flushRemovalsLocked()
	if r.metrics != nil {
		r.metrics.RecordDispatchDuration(op, time.Since(start))
	}

	r.publishLocked(types.Event{
		Slot:    types.InvalidSlot,
		SubID:   types.InvalidSubscriptionID,
		Payload: types.CallStateChange{State: state},
	})
}

// NotifyServiceState reports new registration state for a slot. Delivered
// state is downgraded per listener location tier. Updates addressed to an
// invalid subscription are dropped.
func (r *Registry) NotifyServiceState(subID, slot int, state types.ServiceState) {
	const op = "NotifyServiceState"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}
	if subID < 0 {
		r.dropNotifyLocked(op, "invalid_subscription", slot)
		return
	}

	r.store.serviceState[slot] = state
	r.ops.add("service-state sub=%d slot=%d voice=%s data=%s",
		subID, slot, state.VoiceRegState, state.DataRegState)

	r.dispatchEachLocked(op, subID, slot, types.KindServiceState,
		func(rec *record) (types.Payload, bool) {
			tier := r.policy.LocationTier(rec.identity)
			return types.ServiceStateChange{State: serviceStateForTier(state, tier)}, true
		})

	r.publishLocked(types.Event{
		Slot:    slot,
		SubID:   subID,
		Payload: types.ServiceStateChange{State: state},
	})
}

func serviceStateForTier(state types.ServiceState, tier LocationTier) types.ServiceState {
	switch tier {
	case TierFine:
		return state
	case TierCoarse:
		return state.Sanitize(false)
	default:
		return state.Sanitize(true)
	}
}

// NotifySignalStrength reports a new signal measurement. It feeds both the
// aggregate stream and the legacy scalar stream.
func (r *Registry) NotifySignalStrength(subID, slot int, strength types.SignalStrength) {
	const op = "NotifySignalStrength"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.signalStrength[slot] = strength

	r.dispatchLocked(op, subID, slot, types.SignalStrengthsChange{Strength: strength})
	r.dispatchLocked(op, subID, slot, types.SignalStrengthChange{Strength: strength.LegacyValue()})

	r.publishLocked(types.Event{
		Slot:    slot,
		SubID:   subID,
		Payload: types.SignalStrengthsChange{Strength: strength},
	})
}

// NotifyMessageWaiting reports the voicemail waiting indicator for a slot.
func (r *Registry) NotifyMessageWaiting(subID, slot int, waiting bool) {
	const op = "NotifyMessageWaiting"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.messageWaiting[slot] = waiting
	r.dispatchLocked(op, subID, slot, types.MessageWaitingChange{Waiting: waiting})
}

// NotifyCallForwarding reports the call-forwarding indicator for a slot.
func (r *Registry) NotifyCallForwarding(subID, slot int, enabled bool) {
	const op = "NotifyCallForwarding"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.callForwarding[slot] = enabled
	r.dispatchLocked(op, subID, slot, types.CallForwardingChange{Enabled: enabled})
}

// NotifyDataActivity reports traffic direction on the data connection.
func (r *Registry) NotifyDataActivity(subID, slot int, activity types.DataActivity) {
	const op = "NotifyDataActivity"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.dataActivity[slot] = activity
	r.dispatchLocked(op, subID, slot, types.DataActivityChange{Activity: activity})
}

// NotifyDataConnection reports the connection state for one APN type on one
// slot. A nil state removes the connection; removal notifies only if a
// connection for that APN type existed. A non-nil state notifies only on
// structural change. The legacy coarse stream follows the default APN type
// and notifies only when its (state, network type) pair changes.
func (r *Registry) NotifyDataConnection(
	subID, slot int, apnType string, state *types.PreciseDataConnectionState,
) {
	const op = "NotifyDataConnection"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	connections := r.store.preciseDataConnection[slot]

	if state == nil {
		if _, existed := connections[apnType]; existed {
			delete(connections, apnType)
			r.ops.add("data-conn sub=%d slot=%d apn=%s removed", subID, slot, apnType)
			r.dispatchLocked(op, subID, slot,
				types.PreciseDataConnectionStateChange{APNType: apnType})
		}
	} else {
		next := *state
		next.APNType = apnType
		if prev, existed := connections[apnType]; !existed || prev != next {
			connections[apnType] = next
			r.ops.add("data-conn sub=%d slot=%d apn=%s state=%s", subID, slot, apnType, next.State)
			r.dispatchLocked(op, subID, slot,
				types.PreciseDataConnectionStateChange{APNType: apnType, State: &next})
		}
	}

	if apnType == types.APNTypeDefault && state != nil {
		if r.store.dataConnectionState[slot] != state.State ||
			r.store.dataConnectionNetworkType[slot] != state.NetworkType {
			r.store.dataConnectionState[slot] = state.State
			r.store.dataConnectionNetworkType[slot] = state.NetworkType

			change := types.DataConnectionStateChange{
				State:       state.State,
				NetworkType: state.NetworkType,
			}
			r.dispatchLocked(op, subID, slot, change)
			r.publishLocked(types.Event{Slot: slot, SubID: subID, Payload: change})
		}
	}
}

// NotifyDataConnectionFailed reports a failed setup attempt for one APN
// type. The cached entry resets to the unknown state and precise
// subscribers are notified.
func (r *Registry) NotifyDataConnectionFailed(subID, slot int, apnType string) {
	r.failDataConnection("NotifyDataConnectionFailed", subID, slot, apnType, types.DataFailCauseNone)
}

// NotifyPreciseDataConnectionFailed is NotifyDataConnectionFailed carrying
// the failure cause.
func (r *Registry) NotifyPreciseDataConnectionFailed(
	subID, slot int, apnType string, cause types.DataFailCause,
) {
	r.failDataConnection("NotifyPreciseDataConnectionFailed", subID, slot, apnType, cause)
}

func (r *Registry) failDataConnection(
	op string, subID, slot int, apnType string, cause types.DataFailCause,
) {
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	failed := types.PreciseDataConnectionState{
		State:     types.DataStateUnknown,
		APNType:   apnType,
		FailCause: cause,
	}
	r.store.preciseDataConnection[slot][apnType] = failed
	r.ops.add("data-conn-failed sub=%d slot=%d apn=%s cause=%d", subID, slot, apnType, cause)
	r.dispatchLocked(op, subID, slot,
		types.PreciseDataConnectionStateChange{APNType: apnType, State: &failed})
}

// NotifyCellLocation reports the serving-cell identity for a slot. Only
// fine-tier listeners receive it.
func (r *Registry) NotifyCellLocation(subID, slot int, location types.CellLocation) {
	const op = "NotifyCellLocation"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.cellLocation[slot] = location
	r.dispatchEachLocked(op, subID, slot, types.KindCellLocation,
		func(rec *record) (types.Payload, bool) {
			if r.policy.LocationTier(rec.identity) != TierFine {
				return nil, false
			}
			return types.CellLocationChange{Location: location}, true
		})
}

// NotifyCellInfo reports the observed-cell list for a slot. Only fine-tier
// listeners receive it.
func (r *Registry) NotifyCellInfo(subID, slot int, cells []types.CellInfo) {
	const op = "NotifyCellInfo"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.cellInfo[slot] = cells
	r.dispatchEachLocked(op, subID, slot, types.KindCellInfo,
		func(rec *record) (types.Payload, bool) {
			if r.policy.LocationTier(rec.identity) != TierFine {
				return nil, false
			}
			return types.CellInfoChange{Cells: cells}, true
		})
}

// NotifyPreciseCallState reports the fine-grained state of the three call
// legs. Disconnect causes reset until the next NotifyDisconnectCause. A
// foreground leg that is not active clears the cached call quality and
// network type. Call attributes are recomputed and dispatched alongside.
func (r *Registry) NotifyPreciseCallState(
	subID, slot int, ringing, foreground, background types.PreciseCallCode,
) {
	const op = "NotifyPreciseCallState"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	state := types.PreciseCallState{
		RingingCallState:    ringing,
		ForegroundCallState: foreground,
		BackgroundCallState: background,
		DisconnectCause:     types.DisconnectCauseNotValid,
		PreciseCause:        types.PreciseDisconnectCauseNotValid,
	}
	r.store.preciseCallState[slot] = state

	if foreground != types.PreciseCallActive {
		r.store.callQuality[slot] = types.CallQuality{}
		r.store.callNetworkType[slot] = types.NetworkTypeUnknown
	}
	attributes := types.CallAttributes{
		State:       state,
		NetworkType: r.store.callNetworkType[slot],
		Quality:     r.store.callQuality[slot],
	}
	r.store.callAttributes[slot] = attributes

	r.dispatchLocked(op, subID, slot, types.PreciseCallStateChange{State: state})
	r.dispatchLocked(op, subID, slot, types.CallAttributesChange{Attributes: attributes})
}

// NotifyDisconnectCause reports why the most recent call ended.
func (r *Registry) NotifyDisconnectCause(
	subID, slot int, cause types.DisconnectCause, preciseCause types.PreciseDisconnectCause,
) {
	const op = "NotifyDisconnectCause"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.callDisconnectCause[slot] = cause
	r.store.callPreciseCause[slot] = preciseCause
	r.dispatchLocked(op, subID, slot, types.CallDisconnectCauseChange{
		Cause:        cause,
		PreciseCause: preciseCause,
	})
}

// NotifyCallQuality reports media quality for the active call and recomputes
// call attributes.
func (r *Registry) NotifyCallQuality(
	subID, slot int, quality types.CallQuality, networkType types.NetworkType,
) {
	const op = "NotifyCallQuality"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.callQuality[slot] = quality
	r.store.callNetworkType[slot] = networkType
	attributes := types.CallAttributes{
		State:       r.store.preciseCallState[slot],
		NetworkType: networkType,
		Quality:     quality,
	}
	r.store.callAttributes[slot] = attributes

	r.dispatchLocked(op, subID, slot, types.CallAttributesChange{Attributes: attributes})
}

// NotifyImsDisconnectCause reports the IMS-layer reason for a dropped call.
func (r *Registry) NotifyImsDisconnectCause(subID, slot int, reason types.ImsReasonInfo) {
	const op = "NotifyImsDisconnectCause"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.imsReason[slot] = reason
	r.dispatchLocked(op, subID, slot, types.ImsDisconnectCauseChange{Reason: reason})
}

// NotifySrvccState reports voice-continuity handover progress.
func (r *Registry) NotifySrvccState(subID, slot int, state types.SrvccState) {
	const op = "NotifySrvccState"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.srvccState[slot] = state
	r.dispatchLocked(op, subID, slot, types.SrvccStateChange{State: state})
}

// NotifySimActivationState reports voice or data provisioning state for a
// slot's SIM.
func (r *Registry) NotifySimActivationState(
	subID, slot int, activationType types.ActivationType, state types.SimActivationState,
) {
	const op = "NotifySimActivationState"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	if activationType == types.ActivationTypeData {
		r.store.dataActivationState[slot] = state
		r.dispatchLocked(op, subID, slot, types.DataActivationChange{State: state})
		return
	}
	r.store.voiceActivationState[slot] = state
	r.dispatchLocked(op, subID, slot, types.VoiceActivationChange{State: state})
}

// NotifyUserMobileDataState reports the user's mobile-data toggle for a slot.
func (r *Registry) NotifyUserMobileDataState(subID, slot int, enabled bool) {
	const op = "NotifyUserMobileDataState"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.userMobileDataState[slot] = enabled
	r.dispatchLocked(op, subID, slot, types.UserMobileDataStateChange{Enabled: enabled})
}

// NotifyOEMHookRawEvent forwards an opaque vendor payload. Nothing is cached.
func (r *Registry) NotifyOEMHookRawEvent(subID, slot int, data []byte) {
	const op = "NotifyOEMHookRawEvent"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.dispatchLocked(op, subID, slot, types.OEMHookRawChange{Data: data})
}

// NotifyEmergencyNumberList replaces the emergency number list for a slot
// and delivers the full per-slot map to every interested listener.
func (r *Registry) NotifyEmergencyNumberList(slot int, numbers []types.EmergencyNumber) {
	const op = "NotifyEmergencyNumberList"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.emergencyNumberLists[slot] = numbers

	snapshot := make(map[int][]types.EmergencyNumber, len(r.store.emergencyNumberLists))
	for k, v := range r.store.emergencyNumberLists {
		snapshot[k] = v
	}
	r.dispatchAllLocked(op, slot, types.EmergencyNumberListChange{Numbers: snapshot})
}

// NotifyOutgoingEmergencyCall reports an outgoing emergency call placement.
func (r *Registry) NotifyOutgoingEmergencyCall(subID, slot int, number types.EmergencyNumber) {
	const op = "NotifyOutgoingEmergencyCall"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.outgoingCallEmergency[slot] = number
	r.ops.add("emergency-call sub=%d slot=%d", subID, slot)
	r.dispatchAllLocked(op, slot, types.OutgoingEmergencyCallChange{Number: number})
	r.publishLocked(types.Event{
		Slot:    slot,
		SubID:   subID,
		Payload: types.OutgoingEmergencyCallChange{Number: number},
	})
}

// NotifyOutgoingEmergencySms reports an outgoing emergency SMS.
func (r *Registry) NotifyOutgoingEmergencySms(subID, slot int, number types.EmergencyNumber) {
	const op = "NotifyOutgoingEmergencySms"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.outgoingSmsEmergency[slot] = number
	r.ops.add("emergency-sms sub=%d slot=%d", subID, slot)
	r.dispatchAllLocked(op, slot, types.OutgoingEmergencySmsChange{Number: number})
	r.publishLocked(types.Event{
		Slot:    slot,
		SubID:   subID,
		Payload: types.OutgoingEmergencySmsChange{Number: number},
	})
}

// NotifyRadioPowerState reports the radio power state.
func (r *Registry) NotifyRadioPowerState(subID, slot int, state types.RadioPowerState) {
	const op = "NotifyRadioPowerState"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validSlotLocked(slot) {
		r.dropNotifyLocked(op, "invalid_slot", slot)
		return
	}

	r.store.radioPowerState = state
	r.dispatchLocked(op, subID, slot, types.RadioPowerStateChange{State: state})
}

// NotifyPhoneCapability reports a modem capability update.
func (r *Registry) NotifyPhoneCapability(capability types.PhoneCapability) {
	const op = "NotifyPhoneCapability"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.phoneCapability = capability
	r.dispatchAllLocked(op, types.InvalidSlot, types.PhoneCapabilityChange{Capability: capability})
}

// NotifyActiveDataSubscription reports which subscription carries data now.
func (r *Registry) NotifyActiveDataSubscription(subID int) {
	const op = "NotifyActiveDataSubscription"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.activeDataSubID = subID
	r.dispatchAllLocked(op, types.InvalidSlot, types.ActiveDataSubscriptionChange{SubID: subID})
}

// NotifyCarrierNetworkChange reports entry to or exit from a carrier-driven
// network change window.
func (r *Registry) NotifyCarrierNetworkChange(active bool) {
	const op = "NotifyCarrierNetworkChange"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.carrierNetworkChange = active
	r.dispatchAllLocked(op, types.InvalidSlot, types.CarrierNetworkChange{Active: active})
}

// NotifySubscriptionsChanged signals that the subscription set changed.
func (r *Registry) NotifySubscriptionsChanged() {
	const op = "NotifySubscriptionsChanged"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subsChangedOccurred = true
	r.ops.add("subscriptions-changed")
	for _, rec := range r.records {
		if rec.kind != listenSubscriptionsChanged {
			continue
		}
		r.deliverLocked(rec, types.Event{
			Slot:    types.InvalidSlot,
			SubID:   types.InvalidSubscriptionID,
			Payload: types.SubscriptionsChange{},
		})
	}
	r.flushRemovalsLocked()
}

// NotifyOpportunisticSubscriptionsChanged signals a change limited to
// opportunistic subscriptions.
func (r *Registry) NotifyOpportunisticSubscriptionsChanged() {
	const op = "NotifyOpportunisticSubscriptionsChanged"
	if !r.allowNotify(op) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.opportunisticChangedOccurred = true
	r.ops.add("opportunistic-subscriptions-changed")
	for _, rec := range r.records {
		if rec.kind != listenOpportunisticSubsChanged {
			continue
		}
		r.deliverLocked(rec, types.Event{
			Slot:    types.InvalidSlot,
			SubID:   types.InvalidSubscriptionID,
			Payload: types.OpportunisticSubscriptionsChange{},
		})
	}
	r.flushRemovalsLocked()
}
