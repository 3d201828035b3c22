package node

import "fmt"

// Lookup searches the trie rooted at root for key, identified by hash.
// Lookup never mutates the trie and never retries: every marker it can
// observe (EN, XN, FN) already carries the information needed to descend
// through it, so the operation is wait-free.
func Lookup[Key, Value any](root *AN[Key, Value], hash uint32, key Key, eq func(Key, Key) bool) (Value, bool) {
	return lookup(root, hash, key, 0, eq)
}

func lookup[Key, Value any](cur *AN[Key, Value], hash uint32, key Key, level uint, eq func(Key, Key) bool) (Value, bool) {
	var zero Value
	pos := posFor(hash, level, cur.Width())
	s := cur.slots[pos].Load()
	switch {
	case s == nil:
		return zero, false
	case s.FVN != nil:
		return zero, false
	case s.SN != nil:
		if eq(s.SN.entry.Key, key) {
			return s.SN.entry.Value, true
		}
		return zero, false
	case s.AN != nil:
		return lookup(s.AN, hash, key, level+4, eq)
	case s.EN != nil:
		return lookup(s.EN.narrow, hash, key, level+4, eq)
	case s.FN != nil:
		return lookup(s.FN.frozen, hash, key, level+4, eq)
	case s.XN != nil:
		return lookup(s.XN.stale, hash, key, level+4, eq)
	default:
		panic("catrie: invalid slot state during lookup")
	}
}

// Insert adds or overwrites entry in the trie rooted at root. It returns
// ErrHashCollision if entry's key and some existing key hash identically
// across every window; any other failure is retried internally and never
// surfaces to the caller.
func Insert[Key, Value any](root *AN[Key, Value], entry Entry[Key, Value], eq func(Key, Key) bool) error {
	for {
		ok, err := iInsert(root, nil, entry, 0, eq)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

// iInsert attempts the insert at cur, level levels below the root. prev is
// cur's parent (nil at the root). It returns (true, nil) on success,
// (false, nil) to signal the caller should restart from the root, or a
// non-nil error that must propagate all the way out of Insert.
func iInsert[Key, Value any](cur, prev *AN[Key, Value], entry Entry[Key, Value], level uint, eq func(Key, Key) bool) (bool, error) {
	pos := posFor(entry.Hash, level, cur.Width())
	slotPtr := &cur.slots[pos]
	old := slotPtr.Load()

	switch {
	case old == nil:
		if slotPtr.CompareAndSwap(nil, snSlot(NewSN(entry))) {
			cur.incLive()
			return true, nil
		}
		return iInsert(cur, prev, entry, level, eq)

	case old.AN != nil:
		return iInsert(old.AN, cur, entry, level+4, eq)

	case old.SN != nil:
		u := old.SN
		txn := u.txn.Load()
		switch {
		case isNoTxn(txn):
			if eq(u.entry.Key, entry.Key) {
				ns := snSlot(NewSN(entry))
				if u.txn.CompareAndSwap(txn, ns) {
					slotPtr.CompareAndSwap(old, ns)
					return true, nil
				}
				return iInsert(cur, prev, entry, level, eq)
			}

			if cur.Width() == Narrow {
				ppos := posFor(entry.Hash, level-4, prev.Width())
				pslotPtr := &prev.slots[ppos]
				prevCur := pslotPtr.Load()
				if prevCur == nil || prevCur.AN != cur {
					return false, nil
				}
				en := &EN[Key, Value]{parent: prev, parentPos: ppos, narrow: cur, hash: entry.Hash, level: level}
				if !pslotPtr.CompareAndSwap(prevCur, enSlot(en)) {
					return iInsert(cur, prev, entry, level, eq)
				}
				if err := CompleteExpansion(en); err != nil {
					return false, err
				}
				return iInsert(en.wide.Load(), prev, entry, level, eq)
			}

			// u stays in the old slot with its txn pointing at the new
			// array-node, so the new array-node holds a fresh copy of u.
			an, err := createAN(NewSN(u.entry), NewSN(entry), level+4)
			if err != nil {
				return false, err
			}
			as := anSlot(an)
			if u.txn.CompareAndSwap(txn, as) {
				slotPtr.CompareAndSwap(old, as)
				return true, nil
			}
			return iInsert(cur, prev, entry, level, eq)

		case isFSN(txn):
			return false, nil

		default:
			slotPtr.CompareAndSwap(old, txn)
			return iInsert(cur, prev, entry, level, eq)
		}

	case old.EN != nil:
		if err := CompleteExpansion(old.EN); err != nil {
			return false, err
		}
		return false, nil

	case old.XN != nil:
		if err := CompleteCompression(old.XN); err != nil {
			return false, err
		}
		return false, nil

	case old.FN != nil:
		return false, nil

	case old.FVN != nil:
		return false, nil

	default:
		panic("catrie: invalid slot state during insert")
	}
}

// Remove deletes key, identified by hash, from the trie rooted at root,
// returning its value if it was present.
func Remove[Key, Value any](root *AN[Key, Value], hash uint32, key Key, eq func(Key, Key) bool) (Value, bool) {
	for {
		value, existed, ok := iRemove(root, nil, hash, key, 0, eq)
		if ok {
			return value, existed
		}
	}
}

// iRemove mirrors iInsert's control-flow shape: ok reports whether the
// caller should trust (value, existed), or restart from the root.
func iRemove[Key, Value any](cur, prev *AN[Key, Value], hash uint32, key Key, level uint, eq func(Key, Key) bool) (Value, bool, bool) {
	var zero Value
	pos := posFor(hash, level, cur.Width())
	slotPtr := &cur.slots[pos]
	old := slotPtr.Load()

	switch {
	case old == nil:
		return zero, false, true

	case old.AN != nil:
		return iRemove(old.AN, cur, hash, key, level+4, eq)

	case old.SN != nil:
		u := old.SN
		txn := u.txn.Load()
		switch {
		case isNoTxn(txn):
			if u.entry.Hash != hash || !eq(u.entry.Key, key) {
				return zero, false, true
			}
			if u.txn.CompareAndSwap(txn, nil) {
				value := u.entry.Value
				slotPtr.CompareAndSwap(old, nil)
				cur.decLive()
				maybeCompress(prev, cur, hash, level)
				return value, true, true
			}
			return iRemove(cur, prev, hash, key, level, eq)

		case isFSN(txn):
			return zero, false, false

		default:
			slotPtr.CompareAndSwap(old, txn)
			return iRemove(cur, prev, hash, key, level, eq)
		}

	case old.EN != nil:
		mustHelp(CompleteExpansion(old.EN))
		return zero, false, false

	case old.XN != nil:
		mustHelp(CompleteCompression(old.XN))
		return zero, false, false

	case old.FN != nil:
		return zero, false, false

	case old.FVN != nil:
		return zero, false, false

	default:
		panic("catrie: invalid slot state during remove")
	}
}

// maybeCompress opportunistically installs an XN over cur when it has
// grown sparse. Doing so, or not, never affects correctness — only how
// promptly memory from removed entries is reclaimed — so a failure to
// install the XN is simply abandoned. Once installed, the compression is
// completed here like any other helped restructuring.
func maybeCompress[Key, Value any](prev, cur *AN[Key, Value], hash uint32, level uint) {
	if prev == nil || !cur.sparse() {
		return
	}
	ppos := posFor(hash, level-4, prev.Width())
	pslotPtr := &prev.slots[ppos]
	prevCur := pslotPtr.Load()
	if prevCur == nil || prevCur.AN != cur {
		return
	}
	xn := &XN[Key, Value]{parent: prev, parentPos: ppos, stale: cur, hash: hash, level: level}
	if !pslotPtr.CompareAndSwap(prevCur, xnSlot(xn)) {
		return
	}
	mustHelp(CompleteCompression(xn))
}

// mustHelp reports an error surfacing while helping complete another
// goroutine's restructuring. Insert's own collision check at the point of
// construction means a committed trie can never actually contain two
// keys with identical hashes, so this path is unreachable in practice; an
// error here means that invariant was violated somewhere else.
func mustHelp(err error) {
	if err != nil {
		panic(fmt.Sprintf("catrie: internal invariant violation while helping: %v", err))
	}
}
