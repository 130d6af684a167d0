package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	telerrors "github.com/c360/telestate/errors"
	"github.com/c360/telestate/types"
)

type fakeSink struct {
	events  []types.Event
	failErr error
}

func (s *fakeSink) Deliver(ev types.Event) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeSink) kinds() []types.EventKind {
	out := make([]types.EventKind, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind()
	}
	return out
}

func (s *fakeSink) last() types.Event {
	return s.events[len(s.events)-1]
}

type watchedSink struct {
	fakeSink
	watchErr  error
	onDeath   func()
	unwatched bool
}

func (s *watchedSink) WatchTermination(onTerminated func()) (func(), error) {
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	s.onDeath = onTerminated
	return func() { s.unwatched = true }, nil
}

type stubPolicy struct {
	decision Decision
	tier     LocationTier
	callLog  bool
	denyOps  map[string]bool
}

func (p *stubPolicy) CheckListen(Identity, types.EventMask) Decision { return p.decision }
func (p *stubPolicy) LocationTier(Identity) LocationTier             { return p.tier }
func (p *stubPolicy) AllowCallLog(Identity) bool                     { return p.callLog }
func (p *stubPolicy) AllowNotify(op string) bool                     { return !p.denyOps[op] }

type captureBroadcaster struct {
	events []types.Event
}

func (b *captureBroadcaster) Broadcast(ev types.Event) error {
	b.events = append(b.events, ev)
	return nil
}

func newTestRegistry(t *testing.T, slots int) *Registry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SlotCount = slots
	reg, err := New(cfg, Deps{})
	require.NoError(t, err)
	return reg
}

func testIdentity(pkg string) Identity {
	return Identity{Package: pkg, UID: 1000, PID: 42}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(*Config) {}, false},
		{"zero slots", func(c *Config) { c.SlotCount = 0 }, true},
		{"default slot out of range", func(c *Config) { c.DefaultSlot = 5 }, true},
		{"default slot in range", func(c *Config) { c.SlotCount = 2; c.DefaultSlot = 1 }, false},
		{"negative op log", func(c *Config) { c.OpLogCapacity = -1 }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(&cfg)
			err := cfg.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListen_ReRegistrationUpdatesInPlace(t *testing.T) {
	reg := newTestRegistry(t, 1)
	sink := &fakeSink{}

	h1, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
	require.NoError(t, err)
	require.NotEmpty(t, h1)

	h2, err := reg.Listen(testIdentity("app"), sink,
		types.KindServiceState.Mask(), 1, false)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "re-registration should keep the original handle")
	assert.Equal(t, 1, reg.ListenerCount())

	reg.SetSubscriptionMapping(1, 0)
	reg.NotifyCallState(1, 0, types.CallStateRinging, "")
	assert.Empty(t, sink.events, "old interest set should no longer match")

	reg.NotifyServiceState(1, 0, types.NewServiceState())
	assert.Len(t, sink.events, 1, "new interest set should match")
}

func TestListen_SinkReuseSwitchesListenerKind(t *testing.T) {
	reg := newTestRegistry(t, 1)
	sink := &fakeSink{}

	h1, err := reg.ListenSubscriptionChanges(testIdentity("app"), sink, false)
	require.NoError(t, err)

	h2, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "reused sink should keep its handle")
	assert.Equal(t, 1, reg.ListenerCount())

	reg.NotifyCallState(1, 0, types.CallStateRinging, "")
	require.Len(t, sink.events, 1, "reused sink must receive events for its new kind")

	reg.NotifySubscriptionsChanged()
	assert.Len(t, sink.events, 1, "subscription-change signals stop after the switch")
}

func TestListen_EmptyMaskRemoves(t *testing.T) {
	reg := newTestRegistry(t, 1)
	sink := &fakeSink{}

	_, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.ListenerCount())

	h, err := reg.Listen(testIdentity("app"), sink, types.EventNone, 1, false)
	require.NoError(t, err)
	assert.Empty(t, h)
	assert.Equal(t, 0, reg.ListenerCount())
}

func TestListen_NilSink(t *testing.T) {
	reg := newTestRegistry(t, 1)

	_, err := reg.Listen(testIdentity("app"), nil, types.KindCallState.Mask(), 1, false)
	assert.True(t, telerrors.IsInvalid(err))
}

func TestListen_PolicyDenials(t *testing.T) {
	policy := &stubPolicy{decision: DecisionDenyHard, tier: TierFine, callLog: true}
	reg, err := New(DefaultConfig(), Deps{Policy: policy})
	require.NoError(t, err)

	sink := &fakeSink{}
	_, err = reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, telerrors.ErrCapabilityDenied))
	assert.Equal(t, 0, reg.ListenerCount())

	policy.decision = DecisionDenySoft
	h, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
	assert.NoError(t, err, "soft denial must look like success")
	assert.Empty(t, h)
	assert.Equal(t, 0, reg.ListenerCount())
}

func TestUnregister(t *testing.T) {
	reg := newTestRegistry(t, 1)
	sink := &fakeSink{}

	h, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
	require.NoError(t, err)

	require.NoError(t, reg.Unregister(h))
	assert.Equal(t, 0, reg.ListenerCount())

	assert.NoError(t, reg.Unregister(h), "removing an absent handle is a no-op")
}

func TestTerminationWatch(t *testing.T) {
	reg := newTestRegistry(t, 1)

	t.Run("dead peer at registration is a no-op", func(t *testing.T) {
		sink := &watchedSink{watchErr: errors.New("peer gone")}
		h, err := reg.Listen(testIdentity("dead"), sink, types.KindCallState.Mask(), 1, false)
		assert.NoError(t, err)
		assert.Empty(t, h)
		assert.Equal(t, 0, reg.ListenerCount())
	})

	t.Run("termination removes the listener once", func(t *testing.T) {
		sink := &watchedSink{}
		h, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
		require.NoError(t, err)
		require.NotNil(t, sink.onDeath)

		sink.onDeath()
		assert.Equal(t, 0, reg.ListenerCount())
		assert.True(t, sink.unwatched, "removal should cancel the watch")

		// A second invocation must be harmless.
		sink.onDeath()
		assert.Equal(t, 0, reg.ListenerCount())

		assert.NoError(t, reg.Unregister(h),
			"explicit unregister after termination is a no-op")
	})

	t.Run("unregister cancels the watch", func(t *testing.T) {
		sink := &watchedSink{}
		h, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
		require.NoError(t, err)

		require.NoError(t, reg.Unregister(h))
		assert.True(t, sink.unwatched)
	})
}

func TestDispatch_FailedListenerRemovedOthersSurvive(t *testing.T) {
	reg := newTestRegistry(t, 1)
	reg.SetSubscriptionMapping(1, 0)

	good1 := &fakeSink{}
	bad := &fakeSink{failErr: errors.New("socket closed")}
	good2 := &fakeSink{}

	for _, sink := range []*fakeSink{good1, bad, good2} {
		_, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
		require.NoError(t, err)
	}
	require.Equal(t, 3, reg.ListenerCount())

	reg.NotifyCallState(1, 0, types.CallStateRinging, "")

	assert.Equal(t, 2, reg.ListenerCount(), "failing listener should be detached")
	assert.Len(t, good1.events, 1, "failure must not abort the pass for earlier listeners")
	assert.Len(t, good2.events, 1, "failure must not abort the pass for later listeners")

	reg.NotifyCallState(1, 0, types.CallStateIdle, "")
	assert.Len(t, good1.events, 2)
	assert.Len(t, good2.events, 2)
}

func TestRecordMatches(t *testing.T) {
	const (
		defaultSub  = 10
		defaultSlot = 0
	)

	tests := []struct {
		name       string
		recSubID   int
		eventSubID int
		eventSlot  int
		expected   bool
	}{
		{"slot-scoped event on default slot", 5, -1, defaultSlot, true},
		{"slot-scoped event on other slot", 5, -1, 1, false},
		{"slot-scoped matches even default listener", types.DefaultSubscriptionID, -1, defaultSlot, true},
		{"default listener gets default sub", types.DefaultSubscriptionID, defaultSub, 1, true},
		{"default listener skips other sub", types.DefaultSubscriptionID, 7, 0, false},
		{"exact match", 7, 7, 1, true},
		{"exact mismatch", 7, 8, 1, false},
		{"exact listener skips default sub unless equal", 7, defaultSub, 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := &record{subID: test.recSubID}
			got := rec.matches(test.eventSubID, test.eventSlot, defaultSub, defaultSlot)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestSetSlotCount(t *testing.T) {
	reg := newTestRegistry(t, 2)
	reg.SetSubscriptionMapping(1, 1)

	reg.NotifyCallState(1, 1, types.CallStateOffhook, "")
	reg.NotifyDataActivity(1, 1, types.DataActivityInOut)

	sink := &fakeSink{}
	_, err := reg.Listen(testIdentity("app"), sink, types.KindCallState.Mask(), 1, false)
	require.NoError(t, err)

	require.NoError(t, reg.SetSlotCount(4))
	snap, err := reg.SlotState(1)
	require.NoError(t, err)
	assert.Equal(t, types.CallStateOffhook, snap.CallState, "grow must preserve cached state")
	assert.Equal(t, types.DataActivityInOut, snap.DataActivity,
		"each kind must keep its own cache across resize")

	snap, err = reg.SlotState(3)
	require.NoError(t, err)
	assert.Equal(t, types.CallStateIdle, snap.CallState, "new slots start at initial state")

	require.NoError(t, reg.SetSlotCount(1))
	_, err = reg.SlotState(1)
	assert.Error(t, err)

	assert.Error(t, reg.SetSlotCount(0))
}

func TestOpLog(t *testing.T) {
	l := newOpLog(3)
	assert.Empty(t, l.list())

	l.add("a")
	l.add("b")
	assert.Len(t, l.list(), 2)

	l.add("c")
	l.add("d")
	entries := l.list()
	require.Len(t, entries, 3)
	assert.Contains(t, entries[0], "b", "oldest surviving entry first")
	assert.Contains(t, entries[2], "d")
}

func TestRegistryDiagnostics(t *testing.T) {
	reg := newTestRegistry(t, 1)
	sink := &fakeSink{}

	_, err := reg.Listen(testIdentity("diag-app"), sink, types.KindCallState.Mask(), 1, false)
	require.NoError(t, err)

	listeners := reg.Listeners()
	require.Len(t, listeners, 1)
	assert.Equal(t, "diag-app", listeners[0].Identity.Package)
	assert.Equal(t, "events", listeners[0].Kind)

	assert.NotEmpty(t, reg.RecentRegistrations())

	reg.NotifyCallState(1, 0, types.CallStateRinging, "")
	assert.NotEmpty(t, reg.RecentOperations())
}
