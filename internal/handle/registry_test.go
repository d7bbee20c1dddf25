package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type rec struct {
	name  string
	value string
}

func TestRegistry_RegisterGet(t *testing.T) {
	t.Parallel()

	r := New[rec]()
	h1 := r.Register(rec{name: "cc_number"})
	h2 := r.Register(rec{name: "cc_exp"})

	require.NotEqual(t, Nil, h1)
	require.NotEqual(t, h1, h2)
	require.Equal(t, 2, r.Len())

	got, ok := r.Get(h1)
	require.True(t, ok)
	require.Equal(t, "cc_number", got.name)

	_, ok = r.Get(Nil)
	require.False(t, ok)
}

func TestRegistry_UpdateKeepsHandle(t *testing.T) {
	t.Parallel()

	r := New[rec]()
	h := r.Register(rec{name: "zip"})

	require.True(t, r.Update(h, func(v *rec) { v.value = "94043" }))
	require.True(t, r.Update(h, func(v *rec) { v.value = "94044" }))

	got, ok := r.Get(h)
	require.True(t, ok)
	require.Equal(t, "94044", got.value)
}

func TestRegistry_ResetMakesHandlesStale(t *testing.T) {
	t.Parallel()

	r := New[rec]()
	old := r.Register(rec{name: "city"})
	epoch := r.Epoch()

	r.Reset()
	require.Equal(t, epoch+1, r.Epoch())
	require.Zero(t, r.Len())

	_, ok := r.Get(old)
	require.False(t, ok, "handle from previous epoch must be stale")

	called := false
	require.False(t, r.Update(old, func(*rec) { called = true }))
	require.False(t, called)

	// same slot, new epoch: the old handle still does not resolve
	fresh := r.Register(rec{name: "city"})
	require.NotEqual(t, old, fresh)
	_, ok = r.Get(old)
	require.False(t, ok)
}

func TestRegistry_ForeignHandle(t *testing.T) {
	t.Parallel()

	r := New[rec]()
	r.Register(rec{})
	_, ok := r.Get(makeHandle(r.Epoch(), 7))
	require.False(t, ok)
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	r := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := r.Register(i)
			r.Update(h, func(v *int) { *v++ })
			_, _ = r.Get(h)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 8, r.Len())
}

func TestHandle_String(t *testing.T) {
	require.Equal(t, "nil", Nil.String())
	require.Equal(t, "1:0", makeHandle(1, 0).String())
}
