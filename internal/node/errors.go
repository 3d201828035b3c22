package node

import "errors"

// ErrHashCollision is returned when two distinct keys hash identically
// across every available window, so no array-node can separate them.
var ErrHashCollision = errors.New("catrie: full hash collision between distinct keys")
