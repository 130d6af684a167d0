package types

import "math"

// Sentinel identifiers for slot and subscription addressing.
const (
	// InvalidSlot marks a slot index that resolved to nothing. Operations
	// addressed to it are silent no-ops.
	InvalidSlot = -1

	// InvalidSubscriptionID marks a subscription that is not (or no longer)
	// mapped to a physical slot.
	InvalidSubscriptionID = -1

	// DefaultSubscriptionID is the sentinel a listener registers with to
	// track whichever subscription is currently the system default. It is
	// deliberately outside the range of real subscription identifiers.
	DefaultSubscriptionID = math.MaxInt32
)

// Well-known APN type identifiers used to key precise data-connection state.
const (
	APNTypeDefault   = "default"
	APNTypeMMS       = "mms"
	APNTypeSUPL      = "supl"
	APNTypeIMS       = "ims"
	APNTypeEmergency = "emergency"
)

// CallState is the coarse call state of a slot.
type CallState int

const (
	CallStateIdle CallState = iota
	CallStateRinging
	CallStateOffhook
)

func (s CallState) String() string {
	switch s {
	case CallStateIdle:
		return "idle"
	case CallStateRinging:
		return "ringing"
	case CallStateOffhook:
		return "offhook"
	default:
		return "unknown"
	}
}

// DataState is the coarse data-connection state of a slot or APN.
type DataState int

const (
	DataStateUnknown      DataState = -1
	DataStateDisconnected DataState = 0
	DataStateConnecting   DataState = 1
	DataStateConnected    DataState = 2
	DataStateSuspended    DataState = 3
)

func (s DataState) String() string {
	switch s {
	case DataStateDisconnected:
		return "disconnected"
	case DataStateConnecting:
		return "connecting"
	case DataStateConnected:
		return "connected"
	case DataStateSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// NetworkType identifies the radio access technology backing a connection.
type NetworkType int

const (
	NetworkTypeUnknown NetworkType = iota
	NetworkTypeGPRS
	NetworkTypeEDGE
	NetworkTypeUMTS
	NetworkTypeHSDPA
	NetworkTypeHSUPA
	NetworkTypeHSPA
	NetworkTypeLTE
	NetworkTypeNR
)

func (n NetworkType) String() string {
	switch n {
	case NetworkTypeGPRS:
		return "gprs"
	case NetworkTypeEDGE:
		return "edge"
	case NetworkTypeUMTS:
		return "umts"
	case NetworkTypeHSDPA:
		return "hsdpa"
	case NetworkTypeHSUPA:
		return "hsupa"
	case NetworkTypeHSPA:
		return "hspa"
	case NetworkTypeLTE:
		return "lte"
	case NetworkTypeNR:
		return "nr"
	default:
		return "unknown"
	}
}

// DataActivity is the instantaneous traffic direction on a data connection.
type DataActivity int

const (
	DataActivityNone DataActivity = iota
	DataActivityIn
	DataActivityOut
	DataActivityInOut
	DataActivityDormant
)

func (a DataActivity) String() string {
	switch a {
	case DataActivityIn:
		return "in"
	case DataActivityOut:
		return "out"
	case DataActivityInOut:
		return "inout"
	case DataActivityDormant:
		return "dormant"
	default:
		return "none"
	}
}

// RegState is the registration state reported in a ServiceState.
type RegState int

const (
	RegStateInService RegState = iota
	RegStateOutOfService
	RegStateEmergencyOnly
	RegStatePowerOff
)

func (r RegState) String() string {
	switch r {
	case RegStateInService:
		return "in-service"
	case RegStateOutOfService:
		return "out-of-service"
	case RegStateEmergencyOnly:
		return "emergency-only"
	case RegStatePowerOff:
		return "power-off"
	default:
		return "unknown"
	}
}

// SimActivationState tracks provisioning of the voice or data service on a SIM.
type SimActivationState int

const (
	ActivationStateUnknown SimActivationState = iota
	ActivationStateActivating
	ActivationStateActivated
	ActivationStateDeactivated
	ActivationStateRestricted
)

func (s SimActivationState) String() string {
	switch s {
	case ActivationStateActivating:
		return "activating"
	case ActivationStateActivated:
		return "activated"
	case ActivationStateDeactivated:
		return "deactivated"
	case ActivationStateRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// ActivationType selects which service an activation-state update applies to.
type ActivationType int

const (
	ActivationTypeVoice ActivationType = iota
	ActivationTypeData
)

func (t ActivationType) String() string {
	if t == ActivationTypeData {
		return "data"
	}
	return "voice"
}

// SrvccState tracks a single-radio voice call continuity handover.
type SrvccState int

const (
	SrvccStateNone      SrvccState = -1
	SrvccStateStarted   SrvccState = 0
	SrvccStateCompleted SrvccState = 1
	SrvccStateFailed    SrvccState = 2
	SrvccStateCanceled  SrvccState = 3
)

func (s SrvccState) String() string {
	switch s {
	case SrvccStateStarted:
		return "started"
	case SrvccStateCompleted:
		return "completed"
	case SrvccStateFailed:
		return "failed"
	case SrvccStateCanceled:
		return "canceled"
	default:
		return "none"
	}
}

// RadioPowerState is the power state of a slot's radio.
type RadioPowerState int

const (
	RadioPowerOff         RadioPowerState = 0
	RadioPowerOn          RadioPowerState = 1
	RadioPowerUnavailable RadioPowerState = 2
)

func (s RadioPowerState) String() string {
	switch s {
	case RadioPowerOff:
		return "off"
	case RadioPowerOn:
		return "on"
	default:
		return "unavailable"
	}
}

// PreciseCallCode is a fine-grained state for one leg of a call.
type PreciseCallCode int

const (
	PreciseCallNotValid      PreciseCallCode = -1
	PreciseCallIdle          PreciseCallCode = 0
	PreciseCallActive        PreciseCallCode = 1
	PreciseCallHolding       PreciseCallCode = 2
	PreciseCallDialing       PreciseCallCode = 3
	PreciseCallAlerting      PreciseCallCode = 4
	PreciseCallIncoming      PreciseCallCode = 5
	PreciseCallWaiting       PreciseCallCode = 6
	PreciseCallDisconnected  PreciseCallCode = 7
	PreciseCallDisconnecting PreciseCallCode = 8
)

func (c PreciseCallCode) String() string {
	switch c {
	case PreciseCallIdle:
		return "idle"
	case PreciseCallActive:
		return "active"
	case PreciseCallHolding:
		return "holding"
	case PreciseCallDialing:
		return "dialing"
	case PreciseCallAlerting:
		return "alerting"
	case PreciseCallIncoming:
		return "incoming"
	case PreciseCallWaiting:
		return "waiting"
	case PreciseCallDisconnected:
		return "disconnected"
	case PreciseCallDisconnecting:
		return "disconnecting"
	default:
		return "not-valid"
	}
}

// DisconnectCause is the coarse reason a call ended.
type DisconnectCause int

const (
	DisconnectCauseNotValid        DisconnectCause = -1
	DisconnectCauseNotDisconnected DisconnectCause = 0
	DisconnectCauseNormal          DisconnectCause = 1
	DisconnectCauseLocal           DisconnectCause = 2
	DisconnectCauseBusy            DisconnectCause = 3
	DisconnectCauseCongestion      DisconnectCause = 4
	DisconnectCauseLost            DisconnectCause = 5
	DisconnectCauseError           DisconnectCause = 6
)

// PreciseDisconnectCause refines DisconnectCause with protocol-level detail.
// Values are carrier specific; only the sentinel is interpreted here.
type PreciseDisconnectCause int

// PreciseDisconnectCauseNotValid marks an unset precise disconnect cause.
const PreciseDisconnectCauseNotValid PreciseDisconnectCause = -1

// DataFailCause is the protocol-level reason a data connection setup failed.
// Zero means no failure.
type DataFailCause int

// DataFailCauseNone marks a data connection without a failure cause.
const DataFailCauseNone DataFailCause = 0
