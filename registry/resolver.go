package registry

import "github.com/c360/telestate/types"

// subscriptionResolver maps logical subscription identifiers to physical
// slots and tracks the runtime-mutable default subscription. All access is
// under the registry lock.
type subscriptionResolver struct {
	defaultSubID int
	defaultSlot  int
	slotBySub    map[int]int
}

func newSubscriptionResolver(defaultSubID, defaultSlot int) *subscriptionResolver {
	return &subscriptionResolver{
		defaultSubID: defaultSubID,
		defaultSlot:  defaultSlot,
		slotBySub:    make(map[int]int),
	}
}

// slotOf resolves a subscription to its physical slot. The default-
// subscription sentinel resolves to the current default slot. Unknown
// subscriptions resolve to InvalidSlot.
func (r *subscriptionResolver) slotOf(subID int) int {
	if subID == types.DefaultSubscriptionID {
		return r.defaultSlot
	}
	if slot, ok := r.slotBySub[subID]; ok {
		return slot
	}
	return types.InvalidSlot
}

// setMapping binds a subscription to a slot. A slot of InvalidSlot removes
// the binding.
func (r *subscriptionResolver) setMapping(subID, slot int) {
	if subID == types.DefaultSubscriptionID || subID == types.InvalidSubscriptionID {
		return
	}
	if slot == types.InvalidSlot {
		delete(r.slotBySub, subID)
		return
	}
	r.slotBySub[subID] = slot
}

// setDefault switches the default subscription and its slot.
func (r *subscriptionResolver) setDefault(subID, slot int) {
	r.defaultSubID = subID
	r.defaultSlot = slot
}
