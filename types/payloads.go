package types

// Payload is one typed notification body. Every payload knows which event
// kind it belongs to so the dispatch layer can match it against listener
// interest masks without reflection.
type Payload interface {
	Kind() EventKind
}

// Event is the envelope handed to listener sinks: the physical slot and
// logical subscription the change applies to, plus the typed payload.
// Slot-scoped events carry InvalidSubscriptionID; global events carry
// InvalidSlot as well.
type Event struct {
	Slot    int     `json:"slot"`
	SubID   int     `json:"subscription_id"`
	Payload Payload `json:"payload"`
}

// Kind returns the event kind of the wrapped payload.
func (e Event) Kind() EventKind {
	return e.Payload.Kind()
}

// ServiceState describes voice and data registration for one slot.
type ServiceState struct {
	VoiceRegState     RegState    `json:"voice_reg_state"`
	DataRegState      RegState    `json:"data_reg_state"`
	OperatorAlphaLong string      `json:"operator_alpha_long,omitempty"`
	OperatorNumeric   string      `json:"operator_numeric,omitempty"`
	NetworkType       NetworkType `json:"network_type"`
	Roaming           bool        `json:"roaming"`
	ChannelNumber     int         `json:"channel_number,omitempty"`
	CellID            int         `json:"cell_id,omitempty"`
	TrackingAreaCode  int         `json:"tracking_area_code,omitempty"`
}

// NewServiceState returns the out-of-service state a slot starts in.
func NewServiceState() ServiceState {
	return ServiceState{
		VoiceRegState: RegStateOutOfService,
		DataRegState:  RegStateOutOfService,
	}
}

// Sanitize returns a copy stripped of precise location fields. With
// removeCoarse set, network-derived coarse location (the registered operator
// identity) is removed as well.
func (s ServiceState) Sanitize(removeCoarse bool) ServiceState {
	out := s
	out.CellID = 0
	out.TrackingAreaCode = 0
	out.ChannelNumber = 0
	if removeCoarse {
		out.OperatorNumeric = ""
	}
	return out
}

// SignalStrength aggregates per-technology signal measurements for one slot.
type SignalStrength struct {
	GSMSignalStrength int `json:"gsm_signal_strength"`
	GSMBitErrorRate   int `json:"gsm_bit_error_rate"`
	LTESignalStrength int `json:"lte_signal_strength"`
	LTERSRP           int `json:"lte_rsrp"`
	LTERSRQ           int `json:"lte_rsrq"`
	Level             int `json:"level"`
}

// gsmStrengthUnknown is the raw protocol value for "no measurement".
const gsmStrengthUnknown = 99

// NewSignalStrength returns a strength with no valid measurements.
func NewSignalStrength() SignalStrength {
	return SignalStrength{GSMSignalStrength: gsmStrengthUnknown}
}

// LegacyValue collapses the aggregate into the single scalar carried by the
// legacy signal-strength stream. The raw "unknown" marker maps to -1.
func (s SignalStrength) LegacyValue() int {
	if s.GSMSignalStrength == gsmStrengthUnknown {
		return -1
	}
	return s.GSMSignalStrength
}

// CellLocation is the precise serving-cell identity for one slot. Delivered
// only to listeners holding the fine location tier.
type CellLocation struct {
	CellID           int `json:"cell_id"`
	LocationAreaCode int `json:"location_area_code"`
	TrackingAreaCode int `json:"tracking_area_code"`
}

// CellInfo is one observed cell, serving or neighboring.
type CellInfo struct {
	Registered       bool        `json:"registered"`
	NetworkType      NetworkType `json:"network_type"`
	CellID           int         `json:"cell_id"`
	LocationAreaCode int         `json:"location_area_code"`
	OperatorNumeric  string      `json:"operator_numeric,omitempty"`
	SignalLevel      int         `json:"signal_level"`
}

// PreciseCallState carries the fine-grained state of all three call legs plus
// the disconnect causes of the most recent termination.
type PreciseCallState struct {
	RingingCallState    PreciseCallCode        `json:"ringing_call_state"`
	ForegroundCallState PreciseCallCode        `json:"foreground_call_state"`
	BackgroundCallState PreciseCallCode        `json:"background_call_state"`
	DisconnectCause     DisconnectCause        `json:"disconnect_cause"`
	PreciseCause        PreciseDisconnectCause `json:"precise_disconnect_cause"`
}

// NewPreciseCallState returns a precise call state with every field unset.
func NewPreciseCallState() PreciseCallState {
	return PreciseCallState{
		RingingCallState:    PreciseCallNotValid,
		ForegroundCallState: PreciseCallNotValid,
		BackgroundCallState: PreciseCallNotValid,
		DisconnectCause:     DisconnectCauseNotValid,
		PreciseCause:        PreciseDisconnectCauseNotValid,
	}
}

// CallQuality summarizes media quality for the active call leg.
type CallQuality struct {
	DownlinkLevel      int `json:"downlink_level"`
	UplinkLevel        int `json:"uplink_level"`
	CallDurationMillis int `json:"call_duration_millis"`
	TransmittedPackets int `json:"transmitted_packets"`
	ReceivedPackets    int `json:"received_packets"`
	TransmittedLost    int `json:"transmitted_lost"`
	ReceivedLost       int `json:"received_lost"`
	JitterMillis       int `json:"jitter_millis"`
	RoundTripMillis    int `json:"round_trip_millis"`
}

// CallAttributes bundles precise call state with the network type and media
// quality of the active call.
type CallAttributes struct {
	State       PreciseCallState `json:"state"`
	NetworkType NetworkType      `json:"network_type"`
	Quality     CallQuality      `json:"quality"`
}

// NewCallAttributes returns call attributes for an idle slot.
func NewCallAttributes() CallAttributes {
	return CallAttributes{State: NewPreciseCallState()}
}

// PreciseDataConnectionState is the full connection state for one APN type on
// one slot. The struct is comparable; dispatch relies on == to detect
// structural change.
type PreciseDataConnectionState struct {
	State       DataState     `json:"state"`
	NetworkType NetworkType   `json:"network_type"`
	APNType     string        `json:"apn_type"`
	APN         string        `json:"apn,omitempty"`
	FailCause   DataFailCause `json:"fail_cause,omitempty"`
}

// EmergencyNumber is one dialable emergency number with its routing metadata.
type EmergencyNumber struct {
	Number     string `json:"number"`
	CountryISO string `json:"country_iso,omitempty"`
	MNC        string `json:"mnc,omitempty"`
	Categories uint32 `json:"categories"`
	Sources    uint32 `json:"sources"`
}

// PhoneCapability describes what the device modem can do across slots.
type PhoneCapability struct {
	MaxActiveVoiceSubscriptions int  `json:"max_active_voice_subscriptions"`
	MaxActiveDataSubscriptions  int  `json:"max_active_data_subscriptions"`
	NetworkValidationSupported  bool `json:"network_validation_supported"`
}

// ImsReasonInfo is the IMS-layer reason for a dropped call.
type ImsReasonInfo struct {
	Code      int    `json:"code"`
	ExtraCode int    `json:"extra_code"`
	Message   string `json:"message,omitempty"`
}

// Change payloads, one per event kind.

// CallStateChange reports the coarse call state. IncomingNumber is populated
// only for listeners allowed to read call metadata.
type CallStateChange struct {
	State          CallState `json:"state"`
	IncomingNumber string    `json:"incoming_number,omitempty"`
}

func (CallStateChange) Kind() EventKind { return KindCallState }

// ServiceStateChange reports new registration state for a slot.
type ServiceStateChange struct {
	State ServiceState `json:"state"`
}

func (ServiceStateChange) Kind() EventKind { return KindServiceState }

// SignalStrengthChange is the legacy scalar signal stream.
type SignalStrengthChange struct {
	Strength int `json:"strength"`
}

func (SignalStrengthChange) Kind() EventKind { return KindSignalStrength }

// SignalStrengthsChange carries the full per-technology aggregate.
type SignalStrengthsChange struct {
	Strength SignalStrength `json:"strength"`
}

func (SignalStrengthsChange) Kind() EventKind { return KindSignalStrengths }

// MessageWaitingChange reports the voicemail waiting indicator.
type MessageWaitingChange struct {
	Waiting bool `json:"waiting"`
}

func (MessageWaitingChange) Kind() EventKind { return KindMessageWaiting }

// CallForwardingChange reports the call-forwarding indicator.
type CallForwardingChange struct {
	Enabled bool `json:"enabled"`
}

func (CallForwardingChange) Kind() EventKind { return KindCallForwarding }

// CellLocationChange carries the precise serving-cell identity.
type CellLocationChange struct {
	Location CellLocation `json:"location"`
}

func (CellLocationChange) Kind() EventKind { return KindCellLocation }

// CellInfoChange carries the observed-cell list.
type CellInfoChange struct {
	Cells []CellInfo `json:"cells"`
}

func (CellInfoChange) Kind() EventKind { return KindCellInfo }

// DataConnectionStateChange is the legacy coarse data stream for the default
// APN type.
type DataConnectionStateChange struct {
	State       DataState   `json:"state"`
	NetworkType NetworkType `json:"network_type"`
}

func (DataConnectionStateChange) Kind() EventKind { return KindDataConnectionState }

// DataActivityChange reports the traffic direction on the data connection.
type DataActivityChange struct {
	Activity DataActivity `json:"activity"`
}

func (DataActivityChange) Kind() EventKind { return KindDataActivity }

// PreciseCallStateChange carries the fine-grained call state.
type PreciseCallStateChange struct {
	State PreciseCallState `json:"state"`
}

func (PreciseCallStateChange) Kind() EventKind { return KindPreciseCallState }

// PreciseDataConnectionStateChange carries full connection state for one APN
// type. State is nil when the connection for that APN type was removed.
type PreciseDataConnectionStateChange struct {
	APNType string                      `json:"apn_type"`
	State   *PreciseDataConnectionState `json:"state,omitempty"`
}

func (PreciseDataConnectionStateChange) Kind() EventKind { return KindPreciseDataConnectionState }

// CarrierNetworkChange reports entry to or exit from a carrier-driven network
// change window.
type CarrierNetworkChange struct {
	Active bool `json:"active"`
}

func (CarrierNetworkChange) Kind() EventKind { return KindCarrierNetworkChange }

// VoiceActivationChange reports SIM voice-service provisioning state.
type VoiceActivationChange struct {
	State SimActivationState `json:"state"`
}

func (VoiceActivationChange) Kind() EventKind { return KindVoiceActivationState }

// DataActivationChange reports SIM data-service provisioning state.
type DataActivationChange struct {
	State SimActivationState `json:"state"`
}

func (DataActivationChange) Kind() EventKind { return KindDataActivationState }

// UserMobileDataStateChange reports the user's mobile-data toggle.
type UserMobileDataStateChange struct {
	Enabled bool `json:"enabled"`
}

func (UserMobileDataStateChange) Kind() EventKind { return KindUserMobileDataState }

// EmergencyNumberListChange carries the per-slot emergency number lists.
type EmergencyNumberListChange struct {
	Numbers map[int][]EmergencyNumber `json:"numbers"`
}

func (EmergencyNumberListChange) Kind() EventKind { return KindEmergencyNumberList }

// PhoneCapabilityChange reports a modem capability update.
type PhoneCapabilityChange struct {
	Capability PhoneCapability `json:"capability"`
}

func (PhoneCapabilityChange) Kind() EventKind { return KindPhoneCapability }

// ActiveDataSubscriptionChange reports which subscription carries data now.
type ActiveDataSubscriptionChange struct {
	SubID int `json:"subscription_id"`
}

func (ActiveDataSubscriptionChange) Kind() EventKind { return KindActiveDataSubscription }

// RadioPowerStateChange reports the radio power state of a slot.
type RadioPowerStateChange struct {
	State RadioPowerState `json:"state"`
}

func (RadioPowerStateChange) Kind() EventKind { return KindRadioPowerState }

// SrvccStateChange reports voice-continuity handover progress.
type SrvccStateChange struct {
	State SrvccState `json:"state"`
}

func (SrvccStateChange) Kind() EventKind { return KindSrvccState }

// CallDisconnectCauseChange reports why the last call ended.
type CallDisconnectCauseChange struct {
	Cause        DisconnectCause        `json:"cause"`
	PreciseCause PreciseDisconnectCause `json:"precise_cause"`
}

func (CallDisconnectCauseChange) Kind() EventKind { return KindCallDisconnectCause }

// CallAttributesChange carries the combined call state, network and quality.
type CallAttributesChange struct {
	Attributes CallAttributes `json:"attributes"`
}

func (CallAttributesChange) Kind() EventKind { return KindCallAttributes }

// ImsDisconnectCauseChange reports the IMS-layer call drop reason.
type ImsDisconnectCauseChange struct {
	Reason ImsReasonInfo `json:"reason"`
}

func (ImsDisconnectCauseChange) Kind() EventKind { return KindImsDisconnectCause }

// OutgoingEmergencyCallChange reports an outgoing emergency call placement.
type OutgoingEmergencyCallChange struct {
	Number EmergencyNumber `json:"number"`
}

func (OutgoingEmergencyCallChange) Kind() EventKind { return KindOutgoingEmergencyCall }

// OutgoingEmergencySmsChange reports an outgoing emergency SMS.
type OutgoingEmergencySmsChange struct {
	Number EmergencyNumber `json:"number"`
}

func (OutgoingEmergencySmsChange) Kind() EventKind { return KindOutgoingEmergencySms }

// OEMHookRawChange carries an opaque vendor payload.
type OEMHookRawChange struct {
	Data []byte `json:"data"`
}

func (OEMHookRawChange) Kind() EventKind { return KindOEMHookRaw }

// SubscriptionsChange signals that the set of subscriptions changed. It
// carries no state; interested listeners re-query the resolver.
type SubscriptionsChange struct{}

func (SubscriptionsChange) Kind() EventKind { return KindSubscriptionsChanged }

// OpportunisticSubscriptionsChange signals a change limited to opportunistic
// subscriptions.
type OpportunisticSubscriptionsChange struct{}

func (OpportunisticSubscriptionsChange) Kind() EventKind {
	return KindOpportunisticSubscriptionsChanged
}
