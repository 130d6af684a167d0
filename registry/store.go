package registry

import "github.com/c360/telestate/types"

// stateStore caches the last-known state per slot, one slice per state kind,
// indexed by slot. Device-wide state lives in scalar fields. All access is
// under the registry lock.
type stateStore struct {
	callState          []types.CallState
	callIncomingNumber []string

	serviceState         []types.ServiceState
	voiceActivationState []types.SimActivationState
	dataActivationState  []types.SimActivationState
	userMobileDataState  []bool

	signalStrength []types.SignalStrength
	messageWaiting []bool
	callForwarding []bool
	dataActivity   []types.DataActivity

	// Legacy coarse data-connection view, tracking the default APN type.
	dataConnectionState       []types.DataState
	dataConnectionNetworkType []types.NetworkType

	// Full per-APN-type connection state.
	preciseDataConnection []map[string]types.PreciseDataConnectionState

	cellLocation []types.CellLocation
	cellInfo     [][]types.CellInfo

	preciseCallState      []types.PreciseCallState
	callDisconnectCause   []types.DisconnectCause
	callPreciseCause      []types.PreciseDisconnectCause
	callQuality           []types.CallQuality
	callNetworkType       []types.NetworkType
	callAttributes        []types.CallAttributes
	imsReason             []types.ImsReasonInfo
	srvccState            []types.SrvccState
	outgoingCallEmergency []types.EmergencyNumber
	outgoingSmsEmergency  []types.EmergencyNumber

	// Device-wide state.
	emergencyNumberLists map[int][]types.EmergencyNumber
	radioPowerState      types.RadioPowerState
	carrierNetworkChange bool
	phoneCapability      types.PhoneCapability
	activeDataSubID      int
}

func newStateStore(slots int) *stateStore {
	s := &stateStore{
		emergencyNumberLists: make(map[int][]types.EmergencyNumber),
		radioPowerState:      types.RadioPowerUnavailable,
		activeDataSubID:      types.InvalidSubscriptionID,
	}
	s.resize(slots)
	return s
}

// resize grows or shrinks every per-slot slice to the new slot count.
// Surviving slots keep their cached state; new slots get the per-kind
// initial value.
func (s *stateStore) resize(slots int) {
	s.callState = resizeSlice(s.callState, slots, func(int) types.CallState { return types.CallStateIdle })
	s.callIncomingNumber = resizeSlice(s.callIncomingNumber, slots, func(int) string { return "" })

	s.serviceState = resizeSlice(s.serviceState, slots, func(int) types.ServiceState {
		return types.NewServiceState()
	})
	s.voiceActivationState = resizeSlice(s.voiceActivationState, slots,
		func(int) types.SimActivationState { return types.ActivationStateUnknown })
	s.dataActivationState = resizeSlice(s.dataActivationState, slots,
		func(int) types.SimActivationState { return types.ActivationStateUnknown })
	s.userMobileDataState = resizeSlice(s.userMobileDataState, slots, func(int) bool { return false })

	s.signalStrength = resizeSlice(s.signalStrength, slots, func(int) types.SignalStrength {
		return types.NewSignalStrength()
	})
	s.messageWaiting = resizeSlice(s.messageWaiting, slots, func(int) bool { return false })
	s.callForwarding = resizeSlice(s.callForwarding, slots, func(int) bool { return false })
	s.dataActivity = resizeSlice(s.dataActivity, slots, func(int) types.DataActivity {
		return types.DataActivityNone
	})

	s.dataConnectionState = resizeSlice(s.dataConnectionState, slots, func(int) types.DataState {
		return types.DataStateUnknown
	})
	s.dataConnectionNetworkType = resizeSlice(s.dataConnectionNetworkType, slots,
		func(int) types.NetworkType { return types.NetworkTypeUnknown })
	s.preciseDataConnection = resizeSlice(s.preciseDataConnection, slots,
		func(int) map[string]types.PreciseDataConnectionState {
			return make(map[string]types.PreciseDataConnectionState)
		})

	s.cellLocation = resizeSlice(s.cellLocation, slots, func(int) types.CellLocation {
		return types.CellLocation{}
	})
	s.cellInfo = resizeSlice(s.cellInfo, slots, func(int) []types.CellInfo { return nil })

	s.preciseCallState = resizeSlice(s.preciseCallState, slots, func(int) types.PreciseCallState {
		return types.NewPreciseCallState()
	})
	s.callDisconnectCause = resizeSlice(s.callDisconnectCause, slots,
		func(int) types.DisconnectCause { return types.DisconnectCauseNotValid })
	s.callPreciseCause = resizeSlice(s.callPreciseCause, slots,
		func(int) types.PreciseDisconnectCause { return types.PreciseDisconnectCauseNotValid })
	s.callQuality = resizeSlice(s.callQuality, slots, func(int) types.CallQuality {
		return types.CallQuality{}
	})
	s.callNetworkType = resizeSlice(s.callNetworkType, slots, func(int) types.NetworkType {
		return types.NetworkTypeUnknown
	})
	s.callAttributes = resizeSlice(s.callAttributes, slots, func(int) types.CallAttributes {
		return types.NewCallAttributes()
	})
	s.imsReason = resizeSlice(s.imsReason, slots, func(int) types.ImsReasonInfo {
		return types.ImsReasonInfo{}
	})
	s.srvccState = resizeSlice(s.srvccState, slots, func(int) types.SrvccState {
		return types.SrvccStateNone
	})
	s.outgoingCallEmergency = resizeSlice(s.outgoingCallEmergency, slots,
		func(int) types.EmergencyNumber { return types.EmergencyNumber{} })
	s.outgoingSmsEmergency = resizeSlice(s.outgoingSmsEmergency, slots,
		func(int) types.EmergencyNumber { return types.EmergencyNumber{} })

	for slot := range s.emergencyNumberLists {
		if slot >= slots {
			delete(s.emergencyNumberLists, slot)
		}
	}
}

// resizeSlice returns s resized to n elements. Existing elements up to n are
// preserved; new elements are produced by def with their index.
func resizeSlice[T any](s []T, n int, def func(int) T) []T {
	out := make([]T, n)
	copied := copy(out, s)
	for i := copied; i < n; i++ {
		out[i] = def(i)
	}
	return out
}
