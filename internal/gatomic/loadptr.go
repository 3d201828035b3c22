// Package gatomic holds the one atomic primitive that sync/atomic's typed
// generics (atomic.Pointer[T]) don't already cover: a plain int32 counter,
// used by the trie to track live-slot counts for the opportunistic
// compression heuristic without a full slot rescan.
package gatomic

import "sync/atomic"

func LoadInt32(x *int32) int32 {
	return atomic.LoadInt32(x)
}

func StoreInt32(x *int32, v int32) {
	atomic.StoreInt32(x, v)
}

func AddInt32(x *int32, delta int32) int32 {
	return atomic.AddInt32(x, delta)
}
