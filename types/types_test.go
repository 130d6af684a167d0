package types

import "testing"

func TestEventMask_HasAndWith(t *testing.T) {
	m := EventNone.With(KindServiceState, KindCallState)

	if !m.Has(KindServiceState) {
		t.Error("mask should include service state")
	}
	if !m.Has(KindCallState) {
		t.Error("mask should include call state")
	}
	if m.Has(KindCellInfo) {
		t.Error("mask should not include cell info")
	}

	m = m.With(KindCellInfo)
	if !m.Has(KindCellInfo) {
		t.Error("mask should include cell info after With")
	}
}

func TestEventMask_Kinds(t *testing.T) {
	m := EventNone.With(KindCellLocation, KindServiceState, KindSrvccState)

	kinds := m.Kinds()
	if len(kinds) != 3 {
		t.Fatalf("expected 3 kinds, got %d", len(kinds))
	}
	// Kind order, not insertion order.
	if kinds[0] != KindServiceState || kinds[1] != KindCellLocation || kinds[2] != KindSrvccState {
		t.Errorf("unexpected kind order: %v", kinds)
	}

	if got := EventNone.Kinds(); got != nil {
		t.Errorf("empty mask should expand to nil, got %v", got)
	}
}

func TestEventKind_MaskDisjoint(t *testing.T) {
	seen := EventNone
	for k := EventKind(0); k < NumEventKinds; k++ {
		if seen.Has(k) {
			t.Fatalf("kind %v overlaps an earlier mask", k)
		}
		seen |= k.Mask()
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected EventKind
		ok       bool
	}{
		{"exact", "service_state", KindServiceState, true},
		{"whitespace", "  call_state ", KindCallState, true},
		{"uppercase", "CELL_INFO", KindCellInfo, true},
		{"precise data", "precise_data_connection_state", KindPreciseDataConnectionState, true},
		{"unknown", "no_such_kind", 0, false},
		{"empty", "", 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			kind, ok := ParseKind(test.input)
			if ok != test.ok {
				t.Fatalf("expected ok=%v, got %v", test.ok, ok)
			}
			if ok && kind != test.expected {
				t.Errorf("expected %v, got %v", test.expected, kind)
			}
		})
	}
}

func TestEventKind_StringRoundTrip(t *testing.T) {
	for k := EventKind(0); k < NumEventKinds; k++ {
		name := k.String()
		if name == "unknown" {
			t.Fatalf("kind %d has no name", k)
		}
		parsed, ok := ParseKind(name)
		if !ok || parsed != k {
			t.Errorf("kind %v does not round-trip through %q", k, name)
		}
	}
}

func TestServiceState_Sanitize(t *testing.T) {
	state := ServiceState{
		VoiceRegState:     RegStateInService,
		DataRegState:      RegStateInService,
		OperatorAlphaLong: "TeleOp",
		OperatorNumeric:   "310260",
		NetworkType:       NetworkTypeLTE,
		ChannelNumber:     1850,
		CellID:            0x1a2b,
		TrackingAreaCode:  77,
	}

	coarse := state.Sanitize(false)
	if coarse.CellID != 0 || coarse.TrackingAreaCode != 0 || coarse.ChannelNumber != 0 {
		t.Errorf("fine location fields should be cleared: %+v", coarse)
	}
	if coarse.OperatorNumeric != "310260" {
		t.Error("coarse sanitize should keep operator numeric")
	}
	if coarse.VoiceRegState != RegStateInService || coarse.NetworkType != NetworkTypeLTE {
		t.Error("sanitize should not touch registration fields")
	}

	none := state.Sanitize(true)
	if none.OperatorNumeric != "" {
		t.Error("full sanitize should clear operator numeric")
	}
	if none.OperatorAlphaLong != "TeleOp" {
		t.Error("operator display name should survive sanitize")
	}

	// Original is untouched.
	if state.CellID != 0x1a2b {
		t.Error("sanitize must not mutate the receiver")
	}
}

func TestSignalStrength_LegacyValue(t *testing.T) {
	if got := NewSignalStrength().LegacyValue(); got != -1 {
		t.Errorf("unmeasured strength should map to -1, got %d", got)
	}

	s := SignalStrength{GSMSignalStrength: 17}
	if got := s.LegacyValue(); got != 17 {
		t.Errorf("expected 17, got %d", got)
	}
}

func TestNewPreciseCallState(t *testing.T) {
	s := NewPreciseCallState()
	if s.RingingCallState != PreciseCallNotValid ||
		s.ForegroundCallState != PreciseCallNotValid ||
		s.BackgroundCallState != PreciseCallNotValid {
		t.Errorf("call legs should start not-valid: %+v", s)
	}
	if s.DisconnectCause != DisconnectCauseNotValid || s.PreciseCause != PreciseDisconnectCauseNotValid {
		t.Errorf("disconnect causes should start not-valid: %+v", s)
	}
}

func TestPreciseDataConnectionState_Comparable(t *testing.T) {
	a := PreciseDataConnectionState{
		State:       DataStateConnected,
		NetworkType: NetworkTypeLTE,
		APNType:     APNTypeDefault,
		APN:         "internet",
	}
	b := a
	if a != b {
		t.Error("identical states should compare equal")
	}
	b.FailCause = DataFailCause(27)
	if a == b {
		t.Error("differing fail cause should compare unequal")
	}
}

func TestEvent_Kind(t *testing.T) {
	ev := Event{
		Slot:    1,
		SubID:   42,
		Payload: CallStateChange{State: CallStateRinging, IncomingNumber: "5551212"},
	}
	if ev.Kind() != KindCallState {
		t.Errorf("expected call state kind, got %v", ev.Kind())
	}
}
