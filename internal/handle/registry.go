// Package handle implements the opaque field handle registry.
//
// A Handle names one record in an arena owned by the controller. The
// presentation side only forwards handles; it never decodes them. Handles
// stay valid across edits of the record they name and become stale on
// Reset, which the controller calls on every full model change.
package handle

import (
	"fmt"
	"sync"
)

// Handle is an epoch-tagged arena index. The zero Handle is never issued.
type Handle uint64

// Nil is the invalid handle.
const Nil Handle = 0

func makeHandle(epoch uint32, slot int) Handle {
	return Handle(uint64(epoch)<<32 | uint64(uint32(slot+1)))
}

func (h Handle) epoch() uint32 { return uint32(h >> 32) }

func (h Handle) slot() int { return int(uint32(h)) - 1 }

// String renders the handle for logs.
func (h Handle) String() string {
	if h == Nil {
		return "nil"
	}
	return fmt.Sprintf("%d:%d", h.epoch(), h.slot())
}

// Registry is an arena of records addressed by Handle. Safe for concurrent use.
type Registry[T any] struct {
	mu    sync.RWMutex
	epoch uint32
	arena []T
}

// New returns an empty registry at epoch 1.
func New[T any]() *Registry[T] {
	return &Registry[T]{epoch: 1}
}

// Register stores v and returns its handle.
func (r *Registry[T]) Register(v T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arena = append(r.arena, v)
	return makeHandle(r.epoch, len(r.arena)-1)
}

// Get returns the record for h. Stale or unknown handles report false.
func (r *Registry[T]) Get(h Handle) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	i, ok := r.resolveLocked(h)
	if !ok {
		return zero, false
	}
	return r.arena[i], true
}

// Update applies fn to the record for h in place. The handle is unchanged.
// Stale or unknown handles are a no-op and report false.
func (r *Registry[T]) Update(h Handle, fn func(*T)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.resolveLocked(h)
	if !ok {
		return false
	}
	fn(&r.arena[i])
	return true
}

// Reset drops every record and starts a new epoch; all issued handles go stale.
func (r *Registry[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	if r.epoch == 0 {
		r.epoch = 1
	}
	clear(r.arena)
	r.arena = r.arena[:0]
}

// Len reports the number of live records.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.arena)
}

// Epoch reports the current epoch.
func (r *Registry[T]) Epoch() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch
}

func (r *Registry[T]) resolveLocked(h Handle) (int, bool) {
	if h == Nil || h.epoch() != r.epoch {
		return 0, false
	}
	i := h.slot()
	if i < 0 || i >= len(r.arena) {
		return 0, false
	}
	return i, true
}
