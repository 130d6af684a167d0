package registry

import "github.com/c360/telestate/types"

// deliverReplayLocked is deliverLocked plus replay accounting.
func (r *Registry) deliverReplayLocked(rec *record, ev types.Event) {
	if r.metrics != nil {
		r.metrics.RecordReplay(ev.Kind().String())
	}
	r.deliverLocked(rec, ev)
}

// replayLocked brings a freshly registered listener up to date: for every
// kind in its interest set, the cached state is delivered as if it had just
// been produced. Per-slot kinds replay only when the listener resolved to a
// valid slot; device-wide kinds always replay. One-shot kinds (outgoing
// emergency activity, vendor payloads) have no cached state and are skipped.
func (r *Registry) replayLocked(rec *record) {
	slot := rec.slot
	subID := rec.subID
	tier := r.policy.LocationTier(rec.identity)

	if r.validSlotLocked(slot) {
		replay := func(kind types.EventKind, payload types.Payload) {
			if rec.events.Has(kind) {
				r.deliverReplayLocked(rec, types.Event{Slot: slot, SubID: subID, Payload: payload})
			}
		}

		if rec.events.Has(types.KindServiceState) {
			replay(types.KindServiceState, types.ServiceStateChange{
				State: serviceStateForTier(r.store.serviceState[slot], tier),
			})
		}
		replay(types.KindSignalStrengths,
			types.SignalStrengthsChange{Strength: r.store.signalStrength[slot]})
		replay(types.KindSignalStrength,
			types.SignalStrengthChange{Strength: r.store.signalStrength[slot].LegacyValue()})
		replay(types.KindMessageWaiting,
			types.MessageWaitingChange{Waiting: r.store.messageWaiting[slot]})
		replay(types.KindCallForwarding,
			types.CallForwardingChange{Enabled: r.store.callForwarding[slot]})

		if rec.events.Has(types.KindCallState) {
			p := types.CallStateChange{State: r.store.callState[slot]}
			if r.policy.AllowCallLog(rec.identity) {
				p.IncomingNumber = r.store.callIncomingNumber[slot]
			}
			r.deliverReplayLocked(rec, types.Event{Slot: slot, SubID: subID, Payload: p})
		}

		replay(types.KindDataActivity,
			types.DataActivityChange{Activity: r.store.dataActivity[slot]})
		replay(types.KindDataConnectionState, types.DataConnectionStateChange{
			State:       r.store.dataConnectionState[slot],
			NetworkType: r.store.dataConnectionNetworkType[slot],
		})
		if rec.events.Has(types.KindPreciseDataConnectionState) {
			for apnType, state := range r.store.preciseDataConnection[slot] {
				s := state
				r.deliverReplayLocked(rec, types.Event{Slot: slot, SubID: subID,
					Payload: types.PreciseDataConnectionStateChange{APNType: apnType, State: &s}})
			}
		}

		if tier == TierFine {
			replay(types.KindCellLocation,
				types.CellLocationChange{Location: r.store.cellLocation[slot]})
			replay(types.KindCellInfo,
				types.CellInfoChange{Cells: r.store.cellInfo[slot]})
		}

		replay(types.KindPreciseCallState,
			types.PreciseCallStateChange{State: r.store.preciseCallState[slot]})
		replay(types.KindCallDisconnectCause, types.CallDisconnectCauseChange{
			Cause:        r.store.callDisconnectCause[slot],
			PreciseCause: r.store.callPreciseCause[slot],
		})
		replay(types.KindCallAttributes,
			types.CallAttributesChange{Attributes: r.store.callAttributes[slot]})
		replay(types.KindImsDisconnectCause,
			types.ImsDisconnectCauseChange{Reason: r.store.imsReason[slot]})
		replay(types.KindSrvccState,
			types.SrvccStateChange{State: r.store.srvccState[slot]})

		replay(types.KindVoiceActivationState,
			types.VoiceActivationChange{State: r.store.voiceActivationState[slot]})
		replay(types.KindDataActivationState,
			types.DataActivationChange{State: r.store.dataActivationState[slot]})
		replay(types.KindUserMobileDataState,
			types.UserMobileDataStateChange{Enabled: r.store.userMobileDataState[slot]})
	}

	global := func(kind types.EventKind, payload types.Payload) {
		if rec.events.Has(kind) {
			r.deliverReplayLocked(rec, types.Event{
				Slot:    types.InvalidSlot,
				SubID:   types.InvalidSubscriptionID,
				Payload: payload,
			})
		}
	}

	global(types.KindCarrierNetworkChange,
		types.CarrierNetworkChange{Active: r.store.carrierNetworkChange})
	global(types.KindRadioPowerState,
		types.RadioPowerStateChange{State: r.store.radioPowerState})
	global(types.KindPhoneCapability,
		types.PhoneCapabilityChange{Capability: r.store.phoneCapability})
	global(types.KindActiveDataSubscription,
		types.ActiveDataSubscriptionChange{SubID: r.store.activeDataSubID})

	if rec.events.Has(types.KindEmergencyNumberList) && len(r.store.emergencyNumberLists) > 0 {
		snapshot := make(map[int][]types.EmergencyNumber, len(r.store.emergencyNumberLists))
		for k, v := range r.store.emergencyNumberLists {
			snapshot[k] = v
		}
		global(types.KindEmergencyNumberList, types.EmergencyNumberListChange{Numbers: snapshot})
	}
}

// missedNotifyLocked reconciles one default-sentinel listener against the
// cached state of the slot about to become the default. Only the kinds whose
// updates the listener could actually have missed while pointed at the old
// default are re-sent.
func (r *Registry) missedNotifyLocked(rec *record, newSlot int) {
	if !r.validSlotLocked(newSlot) {
		return
	}

	subID := rec.subID
	tier := r.policy.LocationTier(rec.identity)
	resend := func(kind types.EventKind, payload types.Payload) {
		if rec.events.Has(kind) {
			r.deliverReplayLocked(rec, types.Event{Slot: newSlot, SubID: subID, Payload: payload})
		}
	}

	if rec.events.Has(types.KindServiceState) {
		resend(types.KindServiceState, types.ServiceStateChange{
			State: serviceStateForTier(r.store.serviceState[newSlot], tier),
		})
	}
	resend(types.KindSignalStrengths,
		types.SignalStrengthsChange{Strength: r.store.signalStrength[newSlot]})
	resend(types.KindSignalStrength,
		types.SignalStrengthChange{Strength: r.store.signalStrength[newSlot].LegacyValue()})
	if tier == TierFine {
		resend(types.KindCellInfo,
			types.CellInfoChange{Cells: r.store.cellInfo[newSlot]})
		resend(types.KindCellLocation,
			types.CellLocationChange{Location: r.store.cellLocation[newSlot]})
	}
	resend(types.KindUserMobileDataState,
		types.UserMobileDataStateChange{Enabled: r.store.userMobileDataState[newSlot]})
	resend(types.KindMessageWaiting,
		types.MessageWaitingChange{Waiting: r.store.messageWaiting[newSlot]})
	resend(types.KindCallForwarding,
		types.CallForwardingChange{Enabled: r.store.callForwarding[newSlot]})
	resend(types.KindDataConnectionState, types.DataConnectionStateChange{
		State:       r.store.dataConnectionState[newSlot],
		NetworkType: r.store.dataConnectionNetworkType[newSlot],
	})
}
