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

package catrie

import (
	"bytes"
	"strconv"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestMap(t *testing.T) {
	m := NewWithFuncs[[]byte, string](bytes.Equal, BytesHash)

	_, ok := m.Lookup([]byte("foo"))
	assertFalse(t, ok)

	assertNoError(t, m.Insert([]byte("foo"), "bar"))
	val, ok := m.Lookup([]byte("foo"))
	assertTrue(t, ok)
	assertEqual(t, "bar", val)

	assertNoError(t, m.Insert([]byte("foo"), "baz"))
	val, ok = m.Lookup([]byte("foo"))
	assertTrue(t, ok)
	assertEqual(t, "baz", val)

	for i := 0; i < 1000; i++ {
		assertNoError(t, m.Insert([]byte(strconv.Itoa(i)), "blah"))
	}
	for i := 0; i < 1000; i++ {
		val, ok := m.Lookup([]byte(strconv.Itoa(i)))
		assertTrue(t, ok)
		assertEqual(t, "blah", val)
	}

	val, ok = m.Lookup([]byte("foo"))
	assertTrue(t, ok)
	assertEqual(t, "baz", val)

	val, ok = m.Remove([]byte("foo"))
	assertTrue(t, ok)
	assertEqual(t, "baz", val)

	_, ok = m.Lookup([]byte("foo"))
	assertFalse(t, ok)

	val, ok = m.Remove([]byte("500"))
	assertTrue(t, ok)
	assertEqual(t, "blah", val)

	_, ok = m.Remove([]byte("500"))
	assertFalse(t, ok)
}

func TestMapNarrowToWideExpansion(t *testing.T) {
	m := NewWithFuncs[[]byte, int](bytes.Equal, BytesHash)
	for i := 0; i < 10000; i++ {
		assertNoError(t, m.Insert([]byte(strconv.Itoa(i)), i))
	}
	for i := 0; i < 10000; i++ {
		val, ok := m.Lookup([]byte(strconv.Itoa(i)))
		assertTrue(t, ok)
		assertEqual(t, i, val)
	}
}

func TestMapHashCollision(t *testing.T) {
	m := NewWithFuncs[[]byte, int](bytes.Equal, func([]byte) uint64 {
		return 42
	})
	assertNoError(t, m.Insert([]byte("foobar"), 1))
	// A second key with the identical hash is rejected, leaving foobar
	// untouched.
	assertEqual(t, ErrHashCollision, m.Insert([]byte("zogzog"), 2))
	assertNoError(t, m.Insert([]byte("foobar"), 3))

	val, ok := m.Lookup([]byte("foobar"))
	assertTrue(t, ok)
	assertEqual(t, 3, val)

	_, ok = m.Remove([]byte("foobar"))
	assertTrue(t, ok)
	_, ok = m.Lookup([]byte("foobar"))
	assertFalse(t, ok)
}

func TestMapFullHashCollisionErrors(t *testing.T) {
	m := NewWithFuncs[int, int](func(a, b int) bool { return a == b }, func(int) uint64 {
		return 7
	})
	assertNoError(t, m.Insert(1, 1))
	err := m.Insert(2, 2)
	if err != ErrHashCollision {
		t.Fatalf("got error %v, want ErrHashCollision", err)
	}
}

func TestMapConcurrentInsertDisjointKeys(t *testing.T) {
	m := NewWithFuncs[int, int](func(a, b int) bool { return a == b }, func(k int) uint64 {
		return uint64(k)
	})
	const perWorker = 2000
	const workers = 8

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				key := w*perWorker + i
				if err := m.Insert(key, key*2); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	for k := 0; k < workers*perWorker; k++ {
		val, ok := m.Lookup(k)
		assertTrue(t, ok)
		assertEqual(t, k*2, val)
	}
}

func assertTrue(t *testing.T, x bool) bool {
	t.Helper()
	if !x {
		t.Errorf("not true")
		return false
	}
	return true
}

func assertFalse(t *testing.T, x bool) {
	t.Helper()
	if x {
		t.Errorf("not false")
	}
}

func assertEqual[T comparable](t *testing.T, x, y T) {
	t.Helper()
	if x != y {
		t.Errorf("not equal, got %#v want %#v", y, x)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
