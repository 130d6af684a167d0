package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/telestate/types"
)

func TestListen_ReplayDeliversCachedState(t *testing.T) {
	reg := newTestRegistry(t, 1)
	reg.SetSubscriptionMapping(1, 0)

	// Populate the cache before anyone listens.
	reg.NotifyCallState(1, 0, types.CallStateOffhook, "5551212")
	reg.NotifyServiceState(1, 0, types.ServiceState{VoiceRegState: types.RegStateInService})
	reg.NotifyUserMobileDataState(1, 0, true)
	reg.NotifyDataConnection(1, 0, types.APNTypeIMS, &types.PreciseDataConnectionState{
		State: types.DataStateConnected,
	})

	sink := &fakeSink{}
	mask := types.EventNone.With(
		types.KindCallState,
		types.KindServiceState,
		types.KindUserMobileDataState,
		types.KindPreciseDataConnectionState,
	)
	_, err := reg.Listen(testIdentity("app"), sink, mask, 1, true)
	require.NoError(t, err)

	kinds := sink.kinds()
	assert.Contains(t, kinds, types.KindCallState)
	assert.Contains(t, kinds, types.KindServiceState)
	assert.Contains(t, kinds, types.KindUserMobileDataState)
	assert.Contains(t, kinds, types.KindPreciseDataConnectionState)

	for _, ev := range sink.events {
		switch p := ev.Payload.(type) {
		case types.CallStateChange:
			assert.Equal(t, types.CallStateOffhook, p.State)
			assert.Equal(t, "5551212", p.IncomingNumber)
		case types.UserMobileDataStateChange:
			assert.True(t, p.Enabled)
		case types.PreciseDataConnectionStateChange:
			assert.Equal(t, types.APNTypeIMS, p.APNType)
			require.NotNil(t, p.State)
			assert.Equal(t, types.DataStateConnected, p.State.State)
		}
	}

	// Replayed and live deliveries use the same stream.
	before := len(sink.events)
	reg.NotifyUserMobileDataState(1, 0, false)
	assert.Len(t, sink.events, before+1)
}

func TestListen_ReplaySkippedForUnresolvedSlot(t *testing.T) {
	reg := newTestRegistry(t, 1)

	// Subscription 42 has no slot mapping.
	sink := &fakeSink{}
	mask := types.EventNone.With(types.KindCallState, types.KindRadioPowerState)
	_, err := reg.Listen(testIdentity("app"), sink, mask, 42, true)
	require.NoError(t, err)

	// Per-slot state cannot replay, device-wide state still does.
	require.Len(t, sink.events, 1)
	assert.Equal(t, types.KindRadioPowerState, sink.last().Kind())

	// Live dispatch still works: matching is by subscription, not by the
	// listener's resolved slot.
	reg.NotifyCallState(42, 0, types.CallStateRinging, "")
	assert.Len(t, sink.events, 2)
}

func TestListen_ReplayWithoutCallLogAccess(t *testing.T) {
	policy := &stubPolicy{decision: DecisionAllow, tier: TierFine, callLog: false}
	reg, err := New(DefaultConfig(), Deps{Policy: policy})
	require.NoError(t, err)
	reg.SetSubscriptionMapping(1, 0)

	reg.NotifyCallState(1, 0, types.CallStateRinging, "5551212")

	sink := &fakeSink{}
	_, err = reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, true)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Empty(t, sink.last().Payload.(types.CallStateChange).IncomingNumber)
}

func TestListen_ReplayFailureRemovesListener(t *testing.T) {
	reg := newTestRegistry(t, 1)
	reg.SetSubscriptionMapping(1, 0)
	reg.NotifyCallState(1, 0, types.CallStateRinging, "")

	sink := &fakeSink{failErr: assert.AnError}
	_, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, true)
	require.NoError(t, err)

	assert.Equal(t, 0, reg.ListenerCount(), "a sink that fails replay is removed immediately")
}

func TestSetDefaultSubscription_Reconciliation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SlotCount = 2
	cfg.DefaultSubID = 10
	cfg.DefaultSlot = 0
	reg, err := New(cfg, Deps{})
	require.NoError(t, err)
	reg.SetSubscriptionMapping(10, 0)
	reg.SetSubscriptionMapping(20, 1)

	tracking := &fakeSink{}
	mask := types.EventNone.With(types.KindServiceState, types.KindSignalStrengths)
	_, err = reg.Listen(testIdentity("tracking"), tracking, mask,
		types.DefaultSubscriptionID, false)
	require.NoError(t, err)

	// State lands on slot 1 while the default points at slot 0: the
	// tracking listener must not see it.
	slot1State := types.ServiceState{VoiceRegState: types.RegStateInService}
	reg.NotifyServiceState(20, 1, slot1State)
	reg.NotifySignalStrength(20, 1, types.SignalStrength{GSMSignalStrength: 12})
	assert.Empty(t, tracking.events)

	// Switching the default to subscription 20 / slot 1 re-sends the
	// cached state of the new slot before the switch takes effect.
	reg.SetDefaultSubscription(20, 1)

	require.Len(t, tracking.events, 2)
	service := tracking.events[0].Payload.(types.ServiceStateChange)
	assert.Equal(t, slot1State, service.State)
	strength := tracking.events[1].Payload.(types.SignalStrengthsChange)
	assert.Equal(t, 12, strength.Strength.GSMSignalStrength)
	assert.Equal(t, 1, tracking.events[0].Slot, "resent state is addressed to the new slot")
}

func TestSetDefaultSubscription_ReconciliationKinds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SlotCount = 2
	cfg.DefaultSubID = 10
	cfg.DefaultSlot = 0
	reg, err := New(cfg, Deps{})
	require.NoError(t, err)

	tracking := &fakeSink{}
	mask := types.EventNone.With(
		types.KindServiceState,
		types.KindSignalStrengths,
		types.KindSignalStrength,
		types.KindCellInfo,
		types.KindCellLocation,
		types.KindUserMobileDataState,
		types.KindMessageWaiting,
		types.KindCallForwarding,
		types.KindDataConnectionState,
		// Kinds outside the reconciliation set must not be re-sent.
		types.KindCallState,
		types.KindPreciseCallState,
	)
	_, err = reg.Listen(testIdentity("tracking"), tracking, mask,
		types.DefaultSubscriptionID, false)
	require.NoError(t, err)

	// Populate slot 1 across the board.
	reg.NotifyServiceState(20, 1, types.ServiceState{VoiceRegState: types.RegStateInService})
	reg.NotifySignalStrength(20, 1, types.SignalStrength{GSMSignalStrength: 9})
	reg.NotifyCellInfo(20, 1, []types.CellInfo{{CellID: 7}})
	reg.NotifyCellLocation(20, 1, types.CellLocation{CellID: 7})
	reg.NotifyUserMobileDataState(20, 1, true)
	reg.NotifyMessageWaiting(20, 1, true)
	reg.NotifyCallForwarding(20, 1, true)
	reg.NotifyDataConnection(20, 1, types.APNTypeDefault, &types.PreciseDataConnectionState{
		State: types.DataStateConnected, NetworkType: types.NetworkTypeLTE,
	})
	reg.NotifyCallState(20, 1, types.CallStateOffhook, "")
	reg.NotifyPreciseCallState(20, 1, types.PreciseCallIdle, types.PreciseCallActive,
		types.PreciseCallIdle)
	require.Empty(t, tracking.events)

	reg.SetDefaultSubscription(20, 1)

	counts := make(map[types.EventKind]int)
	for _, k := range tracking.kinds() {
		counts[k]++
	}

	resendSet := []types.EventKind{
		types.KindServiceState,
		types.KindSignalStrengths,
		types.KindSignalStrength,
		types.KindCellInfo,
		types.KindCellLocation,
		types.KindUserMobileDataState,
		types.KindMessageWaiting,
		types.KindCallForwarding,
		types.KindDataConnectionState,
	}
	for _, kind := range resendSet {
		assert.Equal(t, 1, counts[kind], "kind %s should be re-sent exactly once", kind)
	}
	assert.Zero(t, counts[types.KindCallState],
		"call state is outside the reconciliation set")
	assert.Zero(t, counts[types.KindPreciseCallState],
		"precise call state is outside the reconciliation set")

	// After the switch the listener tracks the new subscription live.
	reg.NotifyServiceState(20, 1, types.NewServiceState())
	assert.Equal(t, 2, func() int {
		n := 0
		for _, k := range tracking.kinds() {
			if k == types.KindServiceState {
				n++
			}
		}
		return n
	}())

	subID, slot := reg.DefaultSubscription()
	assert.Equal(t, 20, subID)
	assert.Equal(t, 1, slot)
}

func TestSetDefaultSubscription_ExactListenersUntouched(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SlotCount = 2
	cfg.DefaultSubID = 10
	cfg.DefaultSlot = 0
	reg, err := New(cfg, Deps{})
	require.NoError(t, err)

	exact := &fakeSink{}
	_, err = reg.Listen(testIdentity("exact"), exact, types.KindServiceState.Mask(), 20, false)
	require.NoError(t, err)

	reg.NotifyServiceState(20, 1, types.NewServiceState())
	require.Len(t, exact.events, 1)

	reg.SetDefaultSubscription(20, 1)
	assert.Len(t, exact.events, 1, "reconciliation targets default-sentinel listeners only")
}

func TestSetDefaultSubscription_CoarseTierSkipsCellResend(t *testing.T) {
	policy := &stubPolicy{decision: DecisionAllow, tier: TierCoarse, callLog: true}
	cfg := DefaultConfig()
	cfg.SlotCount = 2
	cfg.DefaultSlot = 0
	cfg.DefaultSubID = 10
	reg, err := New(cfg, Deps{Policy: policy})
	require.NoError(t, err)

	tracking := &fakeSink{}
	mask := types.EventNone.With(types.KindCellInfo, types.KindCellLocation,
		types.KindServiceState)
	_, err = reg.Listen(testIdentity("tracking"), tracking, mask,
		types.DefaultSubscriptionID, false)
	require.NoError(t, err)

	reg.SetDefaultSubscription(20, 1)

	require.Len(t, tracking.events, 1, "only service state is re-sent below the fine tier")
	assert.Equal(t, types.KindServiceState, tracking.last().Kind())
}

func TestSetDefaultSubscription_InvalidSlotDropped(t *testing.T) {
	reg := newTestRegistry(t, 1)

	subID, slot := reg.DefaultSubscription()
	reg.SetDefaultSubscription(99, 7)

	gotSub, gotSlot := reg.DefaultSubscription()
	assert.Equal(t, subID, gotSub, "out-of-range slot must not change the default")
	assert.Equal(t, slot, gotSlot)
}
