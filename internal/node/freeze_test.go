package node

import "testing"

func eqInt(a, b int) bool { return a == b }

func TestFreezeReachesTerminalStates(t *testing.T) {
	root := NewAN[int, int](Wide)
	for _, k := range []int{1, 2, 3, 20, 36} {
		if ok, err := iInsert(root, nil, Entry[int, int]{Key: k, Value: k, Hash: uint32(k)}, 0, eqInt); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		} else if !ok {
			// retry loop normally lives in Insert; a single failed
			// attempt here on an uncontended trie would be a bug.
			t.Fatalf("insert %d did not succeed on an uncontended trie", k)
		}
	}

	Freeze(root)

	for i := 0; i < root.Width(); i++ {
		s := root.slots[i].Load()
		switch {
		case s == nil:
			t.Fatalf("slot %d: still null after freeze", i)
		case s.FVN != nil, s.FN != nil:
			// terminal
		case s.SN != nil:
			txn := s.SN.txn.Load()
			if !isFSN(txn) {
				t.Fatalf("slot %d: SN txn did not reach FSN, got %#v", i, txn)
			}
		default:
			t.Fatalf("slot %d: non-terminal state %#v after freeze", i, s)
		}
	}
}

func TestFreezeIsIdempotent(t *testing.T) {
	root := NewAN[int, int](Wide)
	for _, k := range []int{5, 21, 37} {
		if _, err := iInsert(root, nil, Entry[int, int]{Key: k, Value: k, Hash: uint32(k)}, 0, eqInt); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}

	Freeze(root)
	Freeze(root) // must not panic or change any slot's tag

	for i := 0; i < root.Width(); i++ {
		s := root.slots[i].Load()
		if s != nil && s.AN != nil {
			t.Fatalf("slot %d: raw AN survived a second freeze pass", i)
		}
	}
}

func TestCreateANSeparatesNonCollidingHashes(t *testing.T) {
	sn1 := NewSN(Entry[int, int]{Key: 1, Value: 1, Hash: 1})
	sn2 := NewSN(Entry[int, int]{Key: 2, Value: 2, Hash: 2})
	an, err := createAN(sn1, sn2, 0)
	if err != nil {
		t.Fatalf("createAN: %v", err)
	}
	if an.Width() != Narrow {
		t.Fatalf("got width %d, want %d for two non-colliding hashes", an.Width(), Narrow)
	}
}

func TestCreateANReturnsErrorOnFullCollision(t *testing.T) {
	sn1 := NewSN(Entry[int, int]{Key: 1, Value: 1, Hash: 99})
	sn2 := NewSN(Entry[int, int]{Key: 2, Value: 2, Hash: 99})
	if _, err := createAN(sn1, sn2, HashBits); err != ErrHashCollision {
		t.Fatalf("got error %v, want ErrHashCollision", err)
	}
}

func TestSequentialTransferPreservesLookup(t *testing.T) {
	narrow := NewAN[int, int](Narrow)
	for _, k := range []int{16, 32, 48} {
		if _, err := iInsert(narrow, nil, Entry[int, int]{Key: k, Value: k, Hash: uint32(k)}, 4, eqInt); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	Freeze(narrow)

	wide := NewAN[int, int](Wide)
	if err := sequentialTransfer(narrow, wide, 4); err != nil {
		t.Fatalf("sequentialTransfer: %v", err)
	}
	for _, k := range []int{16, 32, 48} {
		val, ok := lookup(wide, uint32(k), k, 4, eqInt)
		if !ok || val != k {
			t.Fatalf("lookup(%d) after transfer = (%v, %v), want (%v, true)", k, val, ok, k)
		}
	}
}
