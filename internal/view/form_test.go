package view

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/autofill-glue/internal/handle"
	"github.com/and161185/autofill-glue/internal/model"
)

type fakeDelegate struct {
	events []string
}

var _ Delegate = (*fakeDelegate)(nil)

func (d *fakeDelegate) ItemSelected(s model.SectionID, index int) {
	d.events = append(d.events, "item:"+s.String())
}
func (d *fakeDelegate) AccountSelected(int) { d.events = append(d.events, "account") }
func (d *fakeDelegate) EditingStart(s model.SectionID) {
	d.events = append(d.events, "start:"+s.String())
}
func (d *fakeDelegate) EditingComplete(s model.SectionID) {
	d.events = append(d.events, "complete:"+s.String())
}
func (d *fakeDelegate) EditingCancel(s model.SectionID) {
	d.events = append(d.events, "cancel:"+s.String())
}
func (d *fakeDelegate) DialogSubmit() { d.events = append(d.events, "submit") }
func (d *fakeDelegate) DialogCancel() { d.events = append(d.events, "dismiss") }

func (d *fakeDelegate) GetIconForField(ft model.FieldType, input string) model.Image {
	if ft == model.FieldCCNumber && input != "" {
		return "card"
	}
	return ""
}
func (d *fakeDelegate) GetPlaceholderForField(model.SectionID, model.FieldType) string {
	return "hint"
}
func (d *fakeDelegate) GetLabelForSection(s model.SectionID) string { return "label:" + s.String() }

func newForm(t *testing.T) (*Form, *fakeDelegate) {
	t.Helper()
	f := NewForm(zaptest.NewLogger(t))
	d := &fakeDelegate{}
	f.Bind(d)
	return f, d
}

func TestSectionReturnsPushedFieldsUnchanged(t *testing.T) {
	f, _ := newForm(t)
	h := handle.Handle(1<<32 | 1)
	pushed := []model.Field{{Handle: h, Type: model.FieldCCNumber, Value: "4111111111111111"}}
	f.UpdateSection(model.SectionCC, true, pushed, nil, model.NoSelection)

	got := f.Section(model.SectionCC)
	require.Equal(t, pushed, got)

	got[0].Value = "mutated"
	require.Equal(t, "4111111111111111", f.Section(model.SectionCC)[0].Value)
}

func TestNeverPushedSectionIsEmpty(t *testing.T) {
	f, _ := newForm(t)
	require.Empty(t, f.Section(model.SectionShipping))
}

func TestEditFieldUpdatesValueKeepsHandle(t *testing.T) {
	f, _ := newForm(t)
	h1 := handle.Handle(1<<32 | 1)
	h2 := handle.Handle(1<<32 | 2)
	f.UpdateSection(model.SectionBilling, true, []model.Field{
		{Handle: h1, Type: model.FieldName},
		{Handle: h2, Type: model.FieldCity},
	}, nil, model.NoSelection)

	require.True(t, f.EditField(model.SectionBilling, h2, "Berlin"))

	got := f.Section(model.SectionBilling)
	require.Len(t, got, 2)
	require.Equal(t, h1, got[0].Handle)
	require.Equal(t, h2, got[1].Handle)
	require.Equal(t, "Berlin", got[1].Value)
}

func TestEditFieldAfterModelChangeIsIgnored(t *testing.T) {
	f, _ := newForm(t)
	h := handle.Handle(1<<32 | 1)
	f.UpdateSection(model.SectionEmail, true, []model.Field{{Handle: h, Type: model.FieldEmail}}, nil, model.NoSelection)
	f.ModelChanged(true)

	require.False(t, f.EditField(model.SectionEmail, h, "a@b.c"))
	require.Empty(t, f.Section(model.SectionEmail))
	require.False(t, f.EditField(model.SectionID(42), h, "x"))
}

func TestInteractionsReachDelegate(t *testing.T) {
	f, d := newForm(t)
	f.UpdateSection(model.SectionShipping, true, nil, []model.MenuItem{{Index: 0, Line1: "Home"}}, model.NoSelection)
	f.UpdateAccountChooser([]string{"a@example.com"}, model.NoSelection)

	f.StartEditing(model.SectionShipping)
	f.CompleteEditing(model.SectionShipping)
	require.True(t, f.SelectItem(model.SectionShipping, 0))
	require.False(t, f.SelectItem(model.SectionShipping, 1))
	require.True(t, f.SelectAccount(0))
	require.False(t, f.SelectAccount(3))
	f.CancelEditing(model.SectionShipping)
	f.Submit()
	f.Cancel()

	require.Equal(t, []string{
		"start:shipping", "complete:shipping", "item:shipping", "account",
		"cancel:shipping", "submit", "dismiss",
	}, d.events)
}

func TestCheckboxesAndCvc(t *testing.T) {
	f, _ := newForm(t)
	require.True(t, f.ShouldSaveDetailsInWallet())
	require.False(t, f.ShouldUseBillingForShipping())
	require.False(t, f.ShouldSaveDetailsLocally())

	f.SetCvc("123")
	f.SetUseBillingForShipping(true)
	f.SetSaveInWallet(false)
	f.SetSaveLocally(true)

	require.Equal(t, "123", f.Cvc())
	require.True(t, f.ShouldUseBillingForShipping())
	require.False(t, f.ShouldSaveDetailsInWallet())
	require.True(t, f.ShouldSaveDetailsLocally())
}

func TestRenderQueriesDelegate(t *testing.T) {
	f, _ := newForm(t)
	h := handle.Handle(1<<32 | 1)
	f.UpdateSection(model.SectionCC, true, []model.Field{
		{Handle: h, Type: model.FieldCCNumber, Value: "4111"},
	}, nil, model.NoSelection)
	f.UpdateProgressBar(0.5)
	f.ModelChanged(false)
	f.UpdateSection(model.SectionCC, true, []model.Field{
		{Handle: h, Type: model.FieldCCNumber, Placeholder: "Card number", Value: "4111"},
	}, nil, model.NoSelection)

	snap := f.Render()
	require.Len(t, snap.Sections, model.SectionCount)
	require.Equal(t, 1, snap.ModelChanges)
	require.InDelta(t, 0.5, snap.Progress, 1e-9)
	require.NotNil(t, snap.Accounts)

	cc := snap.Sections[model.SectionCC]
	require.Equal(t, "label:cc", cc.Label)
	require.True(t, cc.Visible)
	require.Len(t, cc.Fields, 1)
	require.Equal(t, "cc_number", cc.Fields[0].Type)
	require.Equal(t, "card", cc.Fields[0].Icon)
	require.Equal(t, "Card number", cc.Fields[0].Placeholder)
	require.Equal(t, h.String(), cc.Fields[0].Handle)

	require.False(t, snap.Sections[model.SectionEmail].Visible)
}

func TestModelChangedClearsSectionSnapshot(t *testing.T) {
	f, _ := newForm(t)
	items := []model.MenuItem{{Index: 0, Line1: "Home"}}
	f.UpdateSection(model.SectionShipping, true, []model.Field{{Handle: 7, Type: model.FieldCity}}, items, 0)

	sec := f.Render().Sections[model.SectionShipping]
	require.Equal(t, "shipping", sec.Section)
	require.Equal(t, items, sec.MenuItems)
	require.Equal(t, 0, sec.Selected)

	f.ModelChanged(true)
	snap := f.Render()
	sec = snap.Sections[model.SectionShipping]
	require.True(t, snap.Fetching)
	require.Equal(t, "shipping", sec.Section)
	require.True(t, sec.Visible)
	require.Empty(t, sec.Fields)
	require.Empty(t, sec.MenuItems)
	require.Equal(t, model.NoSelection, sec.Selected)
	require.False(t, f.SelectItem(model.SectionShipping, 0))
}
