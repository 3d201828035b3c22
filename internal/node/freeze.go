package node

// Freeze drives every slot of cur to a terminal state — FVN, a frozen SN,
// or an FN wrapping a frozen child — committing any staged replacement or
// helping any in-flight expansion/compression it finds along the way.
// Once Freeze returns, cur and everything reachable from it is immutable.
func Freeze[Key, Value any](cur *AN[Key, Value]) {
	for i := 0; i < cur.Width(); i++ {
		slotPtr := &cur.slots[i]
		s := slotPtr.Load()
		switch {
		case s == nil:
			if !slotPtr.CompareAndSwap(nil, frozenVoidSlot[Key, Value]()) {
				i--
			}

		case s.SN != nil:
			u := s.SN
			txn := u.txn.Load()
			switch {
			case isNoTxn(txn):
				if !u.txn.CompareAndSwap(txn, fsnSlot[Key, Value]()) {
					i--
				}
			case isFSN(txn):
				// terminal, nothing to do
			default:
				// a staged replacement (or a removal's nil) left by a
				// peer: commit it, then retry this index fresh.
				slotPtr.CompareAndSwap(s, txn)
				i--
			}

		case s.AN != nil:
			slotPtr.CompareAndSwap(s, fnSlot(&FN[Key, Value]{frozen: s.AN}))
			i--

		case s.FN != nil:
			Freeze(s.FN.frozen)

		case s.FVN != nil:
			// terminal, nothing to do

		case s.EN != nil:
			mustHelp(CompleteExpansion(s.EN))
			i--

		case s.XN != nil:
			mustHelp(CompleteCompression(s.XN))
			i--

		default:
			panic("catrie: invalid slot state during freeze")
		}
	}
}

// freezeAndCompress freezes cur, then returns its compressed replacement:
// nil if cur holds nothing, a cloned SN if cur holds exactly one leaf, or
// a slot wrapping a fresh array-node transferring every surviving leaf
// otherwise.
func freezeAndCompress[Key, Value any](cur *AN[Key, Value], level uint) (*Slot[Key, Value], error) {
	Freeze(cur)

	count := 0
	var only *Slot[Key, Value]
	for i := 0; i < cur.Width(); i++ {
		s := cur.slots[i].Load()
		if s.FVN != nil {
			continue
		}
		count++
		if count == 1 {
			only = s
		}
	}

	switch {
	case count == 0:
		return nil, nil
	case count == 1 && only.SN != nil:
		return snSlot(NewSN(only.SN.entry)), nil
	default:
		return compressFrozen(cur, level)
	}
}

// compressFrozen builds the compressed replacement for an already-frozen
// array-node holding more than one surviving leaf, or a surviving leaf
// alongside a nested array-node.
func compressFrozen[Key, Value any](frozen *AN[Key, Value], level uint) (*Slot[Key, Value], error) {
	var single *Slot[Key, Value]
	for i := 0; i < frozen.Width(); i++ {
		old := frozen.slots[i].Load()
		if old.FVN != nil {
			continue
		}
		if single == nil && old.SN != nil {
			single = old
			continue
		}

		if frozen.Width() == Wide {
			wide := NewAN[Key, Value](Wide)
			if err := sequentialTransfer(frozen, wide, level); err != nil {
				return nil, err
			}
			return anSlot(wide), nil
		}
		narrow := NewAN[Key, Value](Narrow)
		sequentialTransferNarrow(frozen, narrow)
		return anSlot(narrow), nil
	}
	if single != nil {
		return snSlot(NewSN(single.SN.entry)), nil
	}
	return nil, nil
}
