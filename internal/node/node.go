// Package node implements the node taxonomy and the freeze/expand/compress
// protocols of the concurrent hash-array-mapped trie: AN (array-node), SN
// (single-node leaf), and the restructuring markers EN/XN/FN/FVN/FSN.
//
// A node slot is represented the way the teacher's mainNode is: a struct
// with one field per variant, at most one of which is non-nil at a time,
// rather than an interface. A nil *Slot means the logical absence the spec
// calls "null".
package node

import (
	"sync/atomic"

	"github.com/rogpeppe/catrie/internal/gatomic"
)

// Narrow and Wide are the two legal array-node widths; both are powers of
// two as required by the design notes.
const (
	Narrow = 4
	Wide   = 16

	// HashBits bounds how many times a hash can be chunked into 4-bit
	// windows before it is exhausted. Beyond this level two keys can only
	// still collide if their hashes are bit-for-bit identical.
	HashBits = 32
)

// Entry is a key/value pair together with its precomputed hash.
type Entry[Key, Value any] struct {
	Key   Key
	Value Value
	Hash  uint32
}

// Slot is the tagged union carried by every AN cell and by an SN's txn
// field. Exactly one field is populated; a nil *Slot is the logical null
// (an empty AN cell) or, when found in an SN's txn field, the "removed"
// terminal state.
type Slot[Key, Value any] struct {
	AN    *AN[Key, Value]
	SN    *SN[Key, Value]
	EN    *EN[Key, Value]
	XN    *XN[Key, Value]
	FN    *FN[Key, Value]
	FVN   *FVN
	FSN   *FSN
	NoTxn bool
}

// AN is an array-node: a fixed-width array of atomically updatable child
// slots. Width is fixed at construction and is always Narrow or Wide; the
// root held by Map is always Wide.
type AN[Key, Value any] struct {
	slots []atomic.Pointer[Slot[Key, Value]]

	// live tracks the number of non-null slots, kept approximately in
	// step with slot CAS traffic so Remove can decide whether to trigger
	// compression without rescanning the array on every call.
	live int32
}

// NewAN returns a fresh array-node of the given width with every slot
// logically null.
func NewAN[Key, Value any](width int) *AN[Key, Value] {
	return &AN[Key, Value]{slots: make([]atomic.Pointer[Slot[Key, Value]], width)}
}

// Width reports the array-node's fixed slot count (Narrow or Wide).
func (a *AN[Key, Value]) Width() int {
	return len(a.slots)
}

// Load reads the slot at pos with acquire semantics.
func (a *AN[Key, Value]) Load(pos int) *Slot[Key, Value] {
	return a.slots[pos].Load()
}

func (a *AN[Key, Value]) incLive() {
	gatomic.AddInt32(&a.live, 1)
}

func (a *AN[Key, Value]) decLive() {
	gatomic.AddInt32(&a.live, -1)
}

// setLiveCount initializes the counter for an array-node built off-trie by
// sequential construction, where no CAS traffic occurs yet to track.
func (a *AN[Key, Value]) setLiveCount(n int) {
	gatomic.StoreInt32(&a.live, int32(n))
}

// sparse reports whether the array-node's live-slot count has dropped to
// at most one, the heuristic trigger for opportunistic compression.
func (a *AN[Key, Value]) sparse() bool {
	return gatomic.LoadInt32(&a.live) <= 1
}

// SN is a leaf node holding one key/value binding. txn stages a
// replacement (overwrite or removal) without tearing concurrent readers;
// its legal states are NoTxn, FSN (frozen), or a staged replacement slot
// (AN or SN) that any visitor may commit on behalf of the original
// mutator.
type SN[Key, Value any] struct {
	entry Entry[Key, Value]
	txn   atomic.Pointer[Slot[Key, Value]]
}

// NewSN returns a fresh leaf with txn set to NoTxn.
func NewSN[Key, Value any](entry Entry[Key, Value]) *SN[Key, Value] {
	sn := &SN[Key, Value]{entry: entry}
	sn.txn.Store(noTxnSlot[Key, Value]())
	return sn
}

// Entry returns the leaf's key/value/hash triple.
func (s *SN[Key, Value]) Entry() Entry[Key, Value] {
	return s.entry
}

// EN is an expansion marker: installed in parent.slots[parentPos] to
// announce that narrow is being replaced by a wide array-node.
type EN[Key, Value any] struct {
	parent    *AN[Key, Value]
	parentPos int
	narrow    *AN[Key, Value]
	hash      uint32
	level     uint
	wide      atomic.Pointer[AN[Key, Value]]
}

// XN is a compression marker: installed in parent.slots[parentPos] to
// announce that stale, having grown sparse, is being replaced by its
// compressed form.
type XN[Key, Value any] struct {
	parent    *AN[Key, Value]
	parentPos int
	stale     *AN[Key, Value]
	hash      uint32
	level     uint
}

// FN wraps an array-node to mark it immutable once referenced by a freeze.
type FN[Key, Value any] struct {
	frozen *AN[Key, Value]
}

// FVN is the terminal marker for a slot that was null at freeze time.
// It carries no data; frozenVoidSlot allocates one for each slot it
// freezes, which keeps the field-based tagged union uniform with FN/FSN.
type FVN struct{}

// FSN is the terminal txn value marking an SN immutable.
type FSN struct{}

func anSlot[Key, Value any](an *AN[Key, Value]) *Slot[Key, Value] {
	return &Slot[Key, Value]{AN: an}
}

func snSlot[Key, Value any](sn *SN[Key, Value]) *Slot[Key, Value] {
	return &Slot[Key, Value]{SN: sn}
}

func enSlot[Key, Value any](en *EN[Key, Value]) *Slot[Key, Value] {
	return &Slot[Key, Value]{EN: en}
}

func xnSlot[Key, Value any](xn *XN[Key, Value]) *Slot[Key, Value] {
	return &Slot[Key, Value]{XN: xn}
}

func fnSlot[Key, Value any](fn *FN[Key, Value]) *Slot[Key, Value] {
	return &Slot[Key, Value]{FN: fn}
}

func frozenVoidSlot[Key, Value any]() *Slot[Key, Value] {
	return &Slot[Key, Value]{FVN: &FVN{}}
}

func fsnSlot[Key, Value any]() *Slot[Key, Value] {
	return &Slot[Key, Value]{FSN: &FSN{}}
}

func noTxnSlot[Key, Value any]() *Slot[Key, Value] {
	return &Slot[Key, Value]{NoTxn: true}
}

// isNoTxn reports whether a loaded txn value is the NoTxn state. A nil txn
// means the SN has been removed, which is not NoTxn.
func isNoTxn[Key, Value any](txn *Slot[Key, Value]) bool {
	return txn != nil && txn.NoTxn
}

func isFSN[Key, Value any](txn *Slot[Key, Value]) bool {
	return txn != nil && txn.FSN != nil
}

// isFrozenSN reports whether s is an SN whose txn has reached FSN.
func isFrozenSN[Key, Value any](s *Slot[Key, Value]) bool {
	return s != nil && s.SN != nil && isFSN(s.SN.txn.Load())
}

// posFor computes the slot index for hash at the given level in an
// array-node of the given width: (hash >> level) & (width - 1). Level
// advances uniformly by 4 between array-nodes regardless of width; a
// narrow array-node's top two bits of its window are simply unused.
func posFor(hash uint32, level uint, width int) int {
	if level >= HashBits {
		return 0
	}
	return int((hash >> level) & uint32(width-1))
}

// NewRoot returns a fresh, empty wide array-node for use as a Map's root.
func NewRoot[Key, Value any]() *AN[Key, Value] {
	return NewAN[Key, Value](Wide)
}
