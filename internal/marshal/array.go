// Package marshal builds the ordered containers that cross the dialog boundary.
//
// Construction is two-phase: the producer declares the length, then fills
// every slot by index in its own order. Sealing yields an immutable copy.
// Out-of-range population is a programming error and panics.
package marshal

import (
	"fmt"

	"github.com/and161185/autofill-glue/internal/errs"
)

// Array is a pre-sized, index-addressed buffer.
type Array[T any] struct {
	slots  []T
	filled []bool
	unset  int
	sealed bool
}

// NewArray declares an array of exactly n slots.
func NewArray[T any](n int) *Array[T] {
	if n < 0 {
		panic(fmt.Errorf("marshal: %w: negative length %d", errs.ErrIndexOutOfRange, n))
	}
	return &Array[T]{slots: make([]T, n), filled: make([]bool, n), unset: n}
}

// Len returns the declared length.
func (a *Array[T]) Len() int { return len(a.slots) }

// Set stores v at index i. Writing the same slot twice replaces it.
func (a *Array[T]) Set(i int, v T) {
	if a.sealed {
		panic(fmt.Errorf("marshal: %w: set on sealed array", errs.ErrIndexOutOfRange))
	}
	if i < 0 || i >= len(a.slots) {
		panic(fmt.Errorf("marshal: %w: %d not in [0,%d)", errs.ErrIndexOutOfRange, i, len(a.slots)))
	}
	if !a.filled[i] {
		a.filled[i] = true
		a.unset--
	}
	a.slots[i] = v
}

// Seal finalizes the array and returns its elements in index order.
// It fails with errs.ErrUnsetSlot if any slot was never populated.
func (a *Array[T]) Seal() ([]T, error) {
	if a.unset > 0 {
		for i, ok := range a.filled {
			if !ok {
				return nil, fmt.Errorf("marshal: %w: slot %d of %d", errs.ErrUnsetSlot, i, len(a.slots))
			}
		}
	}
	a.sealed = true
	out := make([]T, len(a.slots))
	copy(out, a.slots)
	return out, nil
}

// MustSeal is Seal for producers that always fill every slot.
func (a *Array[T]) MustSeal() []T {
	out, err := a.Seal()
	if err != nil {
		panic(err)
	}
	return out
}

// Build runs the two-phase construction over src, preserving its order.
func Build[S, T any](src []S, fn func(i int, s S) T) []T {
	arr := NewArray[T](len(src))
	for i, s := range src {
		arr.Set(i, fn(i, s))
	}
	return arr.MustSeal()
}
