package types

import "strings"

// EventKind identifies one notification stream the registry can fan out.
type EventKind int

const (
	KindServiceState EventKind = iota
	KindSignalStrength
	KindMessageWaiting
	KindCallForwarding
	KindCellLocation
	KindCallState
	KindDataConnectionState
	KindDataActivity
	KindSignalStrengths
	KindCellInfo
	KindPreciseCallState
	KindPreciseDataConnectionState
	KindCarrierNetworkChange
	KindVoiceActivationState
	KindDataActivationState
	KindUserMobileDataState
	KindEmergencyNumberList
	KindPhoneCapability
	KindActiveDataSubscription
	KindRadioPowerState
	KindSrvccState
	KindCallDisconnectCause
	KindCallAttributes
	KindImsDisconnectCause
	KindOutgoingEmergencyCall
	KindOutgoingEmergencySms
	KindOEMHookRaw
	KindSubscriptionsChanged
	KindOpportunisticSubscriptionsChanged

	// NumEventKinds is the count of defined kinds, not a kind itself.
	NumEventKinds
)

var kindNames = map[EventKind]string{
	KindServiceState:                      "service_state",
	KindSignalStrength:                    "signal_strength",
	KindMessageWaiting:                    "message_waiting",
	KindCallForwarding:                    "call_forwarding",
	KindCellLocation:                      "cell_location",
	KindCallState:                         "call_state",
	KindDataConnectionState:               "data_connection_state",
	KindDataActivity:                      "data_activity",
	KindSignalStrengths:                   "signal_strengths",
	KindCellInfo:                          "cell_info",
	KindPreciseCallState:                  "precise_call_state",
	KindPreciseDataConnectionState:        "precise_data_connection_state",
	KindCarrierNetworkChange:              "carrier_network_change",
	KindVoiceActivationState:              "voice_activation_state",
	KindDataActivationState:               "data_activation_state",
	KindUserMobileDataState:               "user_mobile_data_state",
	KindEmergencyNumberList:               "emergency_number_list",
	KindPhoneCapability:                   "phone_capability",
	KindActiveDataSubscription:            "active_data_subscription",
	KindRadioPowerState:                   "radio_power_state",
	KindSrvccState:                        "srvcc_state",
	KindCallDisconnectCause:               "call_disconnect_cause",
	KindCallAttributes:                    "call_attributes",
	KindImsDisconnectCause:                "ims_disconnect_cause",
	KindOutgoingEmergencyCall:             "outgoing_emergency_call",
	KindOutgoingEmergencySms:              "outgoing_emergency_sms",
	KindOEMHookRaw:                        "oem_hook_raw",
	KindSubscriptionsChanged:              "subscriptions_changed",
	KindOpportunisticSubscriptionsChanged: "opportunistic_subscriptions_changed",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Mask returns the single-bit mask for this kind.
func (k EventKind) Mask() EventMask {
	return 1 << uint(k)
}

// ParseKind resolves a kind by its wire name. Returns false for unknown names.
func ParseKind(name string) (EventKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// EventMask is a bitset of EventKind values. A listener's interest set is one
// mask; matching during dispatch is a single AND.
type EventMask uint32

// EventNone is the empty interest set.
const EventNone EventMask = 0

// Has reports whether the mask includes the given kind.
func (m EventMask) Has(k EventKind) bool {
	return m&k.Mask() != 0
}

// With returns the mask with the given kinds added.
func (m EventMask) With(kinds ...EventKind) EventMask {
	for _, k := range kinds {
		m |= k.Mask()
	}
	return m
}

// Kinds expands the mask into its member kinds in kind order.
func (m EventMask) Kinds() []EventKind {
	var kinds []EventKind
	for k := EventKind(0); k < NumEventKinds; k++ {
		if m.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Access-control groupings. Listening for any kind in a group requires the
// corresponding capability check to pass at registration time.
var (
	// FineLocationEvents carry precise cell identity and are delivered only
	// to listeners holding the fine location tier.
	FineLocationEvents = EventNone.With(KindCellLocation, KindCellInfo)

	// PhoneStateEvents expose call metadata gated by the basic phone-state
	// capability.
	PhoneStateEvents = EventNone.With(
		KindCallForwarding,
		KindMessageWaiting,
		KindDataActivationState,
		KindUserMobileDataState,
	)

	// PreciseEvents expose fine-grained call and data-connection internals.
	PreciseEvents = EventNone.With(
		KindPreciseCallState,
		KindPreciseDataConnectionState,
		KindCallDisconnectCause,
		KindCallAttributes,
		KindImsDisconnectCause,
	)

	// PrivilegedEvents require the privileged phone-state capability.
	PrivilegedEvents = EventNone.With(
		KindSrvccState,
		KindVoiceActivationState,
		KindRadioPowerState,
		KindEmergencyNumberList,
		KindOEMHookRaw,
	)

	// EmergencySessionEvents report outgoing emergency activity and require
	// the emergency-tracking capability.
	EmergencySessionEvents = EventNone.With(
		KindOutgoingEmergencyCall,
		KindOutgoingEmergencySms,
	)
)
