package marshal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/autofill-glue/internal/errs"
	"github.com/and161185/autofill-glue/internal/handle"
	"github.com/and161185/autofill-glue/internal/model"
)

func TestArray_FillAllSlots(t *testing.T) {
	t.Parallel()

	const n = 4
	arr := NewFieldArray(n)
	require.Equal(t, n, arr.Len())
	for i := n - 1; i >= 0; i-- { // fill out of order; index decides position
		AddField(arr, i, handle.Handle(i+1), model.FieldCity, "", string(rune('a'+i)))
	}
	out, err := arr.Seal()
	require.NoError(t, err)
	require.Len(t, out, n)
	for i, f := range out {
		require.Equal(t, handle.Handle(i+1), f.Handle)
		require.Equal(t, string(rune('a'+i)), f.Value)
	}
}

func TestArray_SetOutOfRangePanics(t *testing.T) {
	t.Parallel()

	arr := NewFieldArray(2)
	require.Panics(t, func() { AddField(arr, 2, 1, model.FieldZip, "", "") })
	require.Panics(t, func() { AddField(arr, -1, 1, model.FieldZip, "", "") })

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, errs.ErrIndexOutOfRange) {
			t.Fatalf("want ErrIndexOutOfRange panic, got %v", r)
		}
	}()
	arr.Set(5, model.Field{})
}

func TestArray_SealDetectsUnsetSlot(t *testing.T) {
	t.Parallel()

	arr := NewStringArray(3)
	AddString(arr, 0, "a")
	AddString(arr, 2, "c")
	_, err := arr.Seal()
	require.ErrorIs(t, err, errs.ErrUnsetSlot)
	require.Panics(t, func() { arr.MustSeal() })

	AddString(arr, 1, "b")
	out, err := arr.Seal()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, out)
}

func TestArray_SealedIsImmutable(t *testing.T) {
	t.Parallel()

	arr := NewStringArray(1)
	AddString(arr, 0, "x")
	out := arr.MustSeal()
	out[0] = "mutated"

	again := arr.MustSeal()
	require.Equal(t, "x", again[0])

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, errs.ErrIndexOutOfRange) {
			t.Fatalf("want ErrIndexOutOfRange panic after seal, got %v", r)
		}
	}()
	AddString(arr, 0, "y")
}

func TestArray_ZeroLengthAndNegative(t *testing.T) {
	t.Parallel()

	out, err := NewNotificationArray(0).Seal()
	require.NoError(t, err)
	require.Empty(t, out)
	require.Panics(t, func() { NewArray[int](-1) })
}

func TestMenuItemIndexFollowsSlot(t *testing.T) {
	t.Parallel()

	arr := NewMenuItemArray(2)
	AddMenuItem(arr, 1, "Visa - 1111", "exp 01/30", "visa")
	AddMenuItem(arr, 0, "Add new card", "", "")
	items := arr.MustSeal()
	require.Equal(t, 0, items[0].Index)
	require.Equal(t, 1, items[1].Index)
	require.Equal(t, model.Image("visa"), items[1].Icon)
}

func TestNotificationFields(t *testing.T) {
	t.Parallel()

	arr := NewNotificationArray(1)
	AddNotification(arr, 0, 0xFFFF0000, 0xFFFFFFFF, true, false, "Card expired")
	n := arr.MustSeal()[0]
	require.Equal(t, model.Color(0xFFFF0000), n.BackgroundColor)
	require.True(t, n.HasArrow)
	require.False(t, n.HasCheckbox)
	require.Equal(t, "Card expired", n.Text)
}

func TestIdentityExtractionIsPure(t *testing.T) {
	t.Parallel()

	f := model.Field{Handle: 42, Type: model.FieldCCNumber, Value: "4111111111111111"}
	before := f
	require.Equal(t, handle.Handle(42), FieldHandle(f))
	require.Equal(t, "4111111111111111", FieldValue(f))
	require.Equal(t, before, f)
}

func TestBuildPreservesOrder(t *testing.T) {
	t.Parallel()

	src := []string{"billing", "shipping", "cc"}
	out := Build(src, func(i int, s string) string { return s })
	require.Equal(t, src, out)
}

func TestAccountNamesFollowListOrder(t *testing.T) {
	t.Parallel()

	accs := []model.Account{{Name: "zed@example.com"}, {Name: "amy@example.com"}}
	require.Equal(t, []string{"zed@example.com", "amy@example.com"}, AccountNames(accs))
	require.NotNil(t, AccountNames(nil))
	require.Empty(t, AccountNames(nil))
}
