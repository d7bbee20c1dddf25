package marshal

import (
	"github.com/and161185/autofill-glue/internal/handle"
	"github.com/and161185/autofill-glue/internal/model"
)

// NewFieldArray declares a field array of n slots.
func NewFieldArray(n int) *Array[model.Field] { return NewArray[model.Field](n) }

// AddField places a field at index i. placeholder and value may be empty.
func AddField(arr *Array[model.Field], i int, h handle.Handle, ft model.FieldType, placeholder, value string) {
	arr.Set(i, model.Field{Handle: h, Type: ft, Placeholder: placeholder, Value: value})
}

// FieldHandle returns the controller handle carried by f.
func FieldHandle(f model.Field) handle.Handle { return f.Handle }

// FieldValue returns the current value of f.
func FieldValue(f model.Field) string { return f.Value }

// NewMenuItemArray declares a menu item array of n slots.
func NewMenuItemArray(n int) *Array[model.MenuItem] { return NewArray[model.MenuItem](n) }

// AddMenuItem places a menu row at index i; the row's Index is i.
func AddMenuItem(arr *Array[model.MenuItem], i int, line1, line2 string, icon model.Image) {
	arr.Set(i, model.MenuItem{Index: i, Line1: line1, Line2: line2, Icon: icon})
}

// NewNotificationArray declares a notification array of n slots.
func NewNotificationArray(n int) *Array[model.Notification] {
	return NewArray[model.Notification](n)
}

// AddNotification places a banner at index i.
func AddNotification(arr *Array[model.Notification], i int, bg, fg model.Color, hasArrow, hasCheckbox bool, text string) {
	arr.Set(i, model.Notification{
		BackgroundColor: bg,
		TextColor:       fg,
		HasArrow:        hasArrow,
		HasCheckbox:     hasCheckbox,
		Text:            text,
	})
}

// NewStringArray declares a string array of n slots.
func NewStringArray(n int) *Array[string] { return NewArray[string](n) }

// AddString places s at index i.
func AddString(arr *Array[string], i int, s string) { arr.Set(i, s) }

// AccountNames builds the account chooser collection; index i names
// accounts[i].
func AccountNames(accounts []model.Account) []string {
	arr := NewStringArray(len(accounts))
	for i, a := range accounts {
		AddString(arr, i, a.Name)
	}
	return arr.MustSeal()
}
