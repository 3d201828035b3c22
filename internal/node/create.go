package node

// createAN builds a fresh array-node holding exactly sn1 and sn2, off-trie
// and single-threaded, so it can be published with one CAS by the caller.
// level is the window at which the two leaves are being placed; if their
// hashes still collide once every window has been consumed, the keys share
// an identical hash and ErrHashCollision is returned.
func createAN[Key, Value any](sn1, sn2 *SN[Key, Value], level uint) (*AN[Key, Value], error) {
	h1, h2 := sn1.entry.Hash, sn2.entry.Hash
	if level >= HashBits {
		return nil, ErrHashCollision
	}
	p1 := posFor(h1, level, Narrow)
	p2 := posFor(h2, level, Narrow)
	if p1 != p2 {
		an := NewAN[Key, Value](Narrow)
		an.slots[p1].Store(snSlot(sn1))
		an.slots[p2].Store(snSlot(sn2))
		an.setLiveCount(2)
		return an, nil
	}

	wide := NewAN[Key, Value](Wide)
	if err := sequentialInsert(sn1, wide, level); err != nil {
		return nil, err
	}
	if err := sequentialInsert(sn2, wide, level); err != nil {
		return nil, err
	}
	wide.setLiveCount(countLive(wide))
	return wide, nil
}

// sequentialInsert places sn into wide, which must not yet hold an entry
// whose hash collides with sn's at an earlier window than level.
func sequentialInsert[Key, Value any](sn *SN[Key, Value], wide *AN[Key, Value], level uint) error {
	pos := posFor(sn.entry.Hash, level, wide.Width())
	if wide.slots[pos].Load() == nil {
		wide.slots[pos].Store(snSlot(sn))
		return nil
	}
	return sequentialInsertAt(sn, wide, level, pos)
}

// sequentialInsertAt resolves a collision at container.slots[pos], growing
// or nesting array-nodes as needed. All of this happens off-trie; the
// stores below are plain, not CAS.
func sequentialInsertAt[Key, Value any](sn *SN[Key, Value], container *AN[Key, Value], level uint, pos int) error {
	old := container.slots[pos].Load()
	switch {
	case old.SN != nil:
		an, err := createAN(sn, old.SN, level+4)
		if err != nil {
			return err
		}
		container.slots[pos].Store(anSlot(an))
		return nil

	case old.AN != nil:
		oldan := old.AN
		npos := posFor(sn.entry.Hash, level+4, oldan.Width())
		if oldan.slots[npos].Load() == nil {
			oldan.slots[npos].Store(snSlot(sn))
			oldan.setLiveCount(countLive(oldan))
			return nil
		}
		if oldan.Width() == Narrow {
			// oldan was built off-trie and is not frozen, so its leaves
			// are re-inserted directly rather than via sequentialTransfer.
			wide := NewAN[Key, Value](Wide)
			for i := 0; i < Narrow; i++ {
				if s := oldan.slots[i].Load(); s != nil {
					if err := sequentialInsert(s.SN, wide, level+4); err != nil {
						return err
					}
				}
			}
			wide.setLiveCount(countLive(wide))
			container.slots[pos].Store(anSlot(wide))
			return sequentialInsertAt(sn, container, level, pos)
		}
		if err := sequentialInsertAt(sn, oldan, level+4, npos); err != nil {
			return err
		}
		oldan.setLiveCount(countLive(oldan))
		return nil

	default:
		panic("catrie: invalid node state during sequential insert")
	}
}

// sequentialTransfer copies every frozen leaf reachable from source (which
// must already be fully frozen) into wide, rehashing at level.
func sequentialTransfer[Key, Value any](source, wide *AN[Key, Value], level uint) error {
	for i := 0; i < source.Width(); i++ {
		s := source.slots[i].Load()
		switch {
		case s == nil, s.FVN != nil:
			// nothing to transfer
		case isFrozenSN(s):
			fresh := NewSN(s.SN.entry)
			pos := posFor(fresh.entry.Hash, level, wide.Width())
			if wide.slots[pos].Load() == nil {
				wide.slots[pos].Store(snSlot(fresh))
			} else if err := sequentialInsertAt(fresh, wide, level, pos); err != nil {
				return err
			}
		case s.FN != nil:
			if err := sequentialTransfer(s.FN.frozen, wide, level); err != nil {
				return err
			}
		default:
			panic("catrie: source array-node must be frozen before transfer")
		}
	}
	wide.setLiveCount(countLive(wide))
	return nil
}

// sequentialTransferNarrow copies a frozen narrow array-node's leaves into
// a fresh narrow array-node at the same positions, dropping FVN slots. No
// rehashing is needed: narrow compresses in place.
func sequentialTransferNarrow[Key, Value any](source, narrow *AN[Key, Value]) {
	for i := 0; i < Narrow; i++ {
		s := source.slots[i].Load()
		switch {
		case s == nil, s.FVN != nil:
		case isFrozenSN(s):
			narrow.slots[i].Store(snSlot(NewSN(s.SN.entry)))
		default:
			panic("catrie: source array-node must be frozen before compression")
		}
	}
	narrow.setLiveCount(countLive(narrow))
}

func countLive[Key, Value any](an *AN[Key, Value]) int {
	n := 0
	for i := 0; i < an.Width(); i++ {
		if an.slots[i].Load() != nil {
			n++
		}
	}
	return n
}
