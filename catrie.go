/*
Copyright 2015 Workiva, LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package catrie provides Map, a concurrent, lock-free hash-array-mapped
// trie. Lookup is wait-free; Insert and Remove are lock-free, helping any
// in-flight restructuring they encounter to completion before retrying
// rather than blocking on it.
package catrie

import (
	"bytes"
	"fmt"
	"hash/maphash"

	"github.com/rogpeppe/catrie/internal/node"
)

var seed = maphash.MakeSeed()

// StringHash hashes a string with a process-lifetime seed. It is the
// default hash function for Map[string, Value].
func StringHash(key string) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(key)
	return h.Sum64()
}

// BytesHash hashes a byte slice with a process-lifetime seed. It is the
// default hash function for Map[[]byte, Value].
func BytesHash(key []byte) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.Write(key)
	return h.Sum64()
}

// String is a string key that hashes itself with StringHash, for use with
// New.
type String string

func (s String) Hash() uint64 {
	return StringHash(string(s))
}

// Hasher is the key constraint for New: a comparable type that can hash
// itself.
type Hasher interface {
	comparable
	Hash() uint64
}

// ErrHashCollision is returned by Insert when key and some existing key in
// the Map have the same low 32 bits of hash; the Map uses only those 32
// bits of the hash function's result, so keys whose hashes differ only in
// the upper bits collide too. It signals data that cannot safely be
// inserted, rather than being silently dropped or merged with the
// colliding entry.
var ErrHashCollision = node.ErrHashCollision

// Map is a concurrent hash-array-mapped trie from Key to Value. The zero
// value is not usable; construct one with New or NewWithFuncs. A *Map is
// safe for concurrent use by multiple goroutines without external
// synchronization.
type Map[Key, Value any] struct {
	root     *node.AN[Key, Value]
	hashFunc func(Key) uint64
	eqFunc   func(Key, Key) bool
}

// New returns a new empty Map whose keys compare and hash themselves via
// the Hasher interface.
func New[Key Hasher, Value any]() *Map[Key, Value] {
	return NewWithFuncs[Key, Value](func(k1, k2 Key) bool {
		return k1 == k2
	}, Key.Hash)
}

// NewWithFuncs returns a new empty Map using the given equality and hash
// functions instead of relying on comparison and hashing on the key value
// itself. If eqFunc or hashFunc is nil, NewWithFuncs supplies a default
// for Key equal to string or []byte, and panics for any other Key type.
func NewWithFuncs[Key, Value any](
	eqFunc func(k1, k2 Key) bool,
	hashFunc func(Key) uint64,
) *Map[Key, Value] {
	if eqFunc == nil {
		var k Key
		switch (interface{}(k)).(type) {
		case string:
			eqFunc = interface{}(func(k1, k2 string) bool {
				return k1 == k2
			}).(func(Key, Key) bool)
		case []byte:
			eqFunc = interface{}(bytes.Equal).(func(Key, Key) bool)
		default:
			panic(fmt.Errorf("catrie: no default equality for %T", k))
		}
	}
	if hashFunc == nil {
		var k Key
		switch (interface{}(k)).(type) {
		case string:
			hashFunc = interface{}(StringHash).(func(Key) uint64)
		case []byte:
			hashFunc = interface{}(BytesHash).(func(Key) uint64)
		default:
			panic(fmt.Errorf("catrie: no default hash for %T", k))
		}
	}
	return &Map[Key, Value]{
		root:     node.NewRoot[Key, Value](),
		eqFunc:   eqFunc,
		hashFunc: hashFunc,
	}
}

// Lookup returns the value associated with key and reports whether key is
// present. Lookup is wait-free: it completes in a bounded number of steps
// regardless of what any other goroutine is doing to the Map.
func (m *Map[Key, Value]) Lookup(key Key) (Value, bool) {
	return node.Lookup[Key, Value](m.root, uint32(m.hashFunc(key)), key, m.eqFunc)
}

// Insert sets the value for key, replacing any existing value. It returns
// ErrHashCollision if the low 32 bits of key's hash equal those of some
// already-present key; no other error is possible.
func (m *Map[Key, Value]) Insert(key Key, value Value) error {
	entry := node.Entry[Key, Value]{
		Key:   key,
		Value: value,
		Hash:  uint32(m.hashFunc(key)),
	}
	return node.Insert(m.root, entry, m.eqFunc)
}

// Remove deletes key from the Map, returning the removed value and
// reporting whether key was present.
func (m *Map[Key, Value]) Remove(key Key) (Value, bool) {
	return node.Remove[Key, Value](m.root, uint32(m.hashFunc(key)), key, m.eqFunc)
}
