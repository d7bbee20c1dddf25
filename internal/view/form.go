// Package view is a headless presentation layer for the autofill dialog.
//
// Form keeps the last state pushed for each section, applies the user's
// edits to it and reports interactions to a Delegate. It renders nothing;
// Render returns a plain snapshot a real widget layer (or a test) can draw.
package view

import (
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/autofill-glue/internal/handle"
	"github.com/and161185/autofill-glue/internal/model"
)

// Delegate receives user interactions and answers presentation-assist queries.
// *adapter.Adapter implements it.
type Delegate interface {
	ItemSelected(s model.SectionID, index int)
	AccountSelected(index int)
	EditingStart(s model.SectionID)
	EditingComplete(s model.SectionID)
	EditingCancel(s model.SectionID)
	DialogSubmit()
	DialogCancel()

	GetIconForField(ft model.FieldType, input string) model.Image
	GetPlaceholderForField(s model.SectionID, ft model.FieldType) string
	GetLabelForSection(s model.SectionID) string
}

// sectionState is the last pushed snapshot plus the local edit flag.
type sectionState struct {
	model.Section
	editing bool
}

// Form is the in-memory presentation state. Safe for concurrent use.
type Form struct {
	log *zap.Logger

	mu              sync.RWMutex
	delegate        Delegate
	sections        [model.SectionCount]sectionState
	notes           []model.Notification
	fetching        bool
	accounts        []string
	selectedAccount int
	progress        float64
	cvc             string
	billingForShip  bool
	saveInWallet    bool
	saveLocally     bool
	modelChanges    int
}

// NewForm returns an empty form with every section hidden.
func NewForm(log *zap.Logger) *Form {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Form{log: log, selectedAccount: model.NoSelection, saveInWallet: true}
	for i := range f.sections {
		f.sections[i].Section = model.Section{ID: model.SectionID(i), Selected: model.NoSelection}
	}
	return f
}

// Bind sets the delegate that receives interactions.
func (f *Form) Bind(d Delegate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delegate = d
}

// --- adapter.View ---

// UpdateNotificationArea replaces all banners.
func (f *Form) UpdateNotificationArea(notes []model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = notes
}

// UpdateSection replaces one section wholesale.
func (f *Form) UpdateSection(s model.SectionID, visible bool, fields []model.Field, items []model.MenuItem, selected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sections[s].Section = model.Section{
		ID:        s,
		Visible:   visible,
		Fields:    fields,
		MenuItems: items,
		Selected:  selected,
	}
}

// ModelChanged drops every cached field; their handles are stale from now on.
func (f *Form) ModelChanged(fetchingIsActive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sections {
		st := &f.sections[i]
		st.Fields = nil
		st.MenuItems = nil
		st.Selected = model.NoSelection
		st.editing = false
	}
	f.fetching = fetchingIsActive
	f.modelChanges++
}

// UpdateAccountChooser replaces the account list and selection.
func (f *Form) UpdateAccountChooser(names []string, selected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = names
	f.selectedAccount = selected
}

// UpdateProgressBar stores the progress value.
func (f *Form) UpdateProgressBar(value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = value
}

// Section returns the current fields of s, including user edits.
func (f *Form) Section(s model.SectionID) []model.Field {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]model.Field(nil), f.sections[s].Fields...)
}

// Cvc returns the typed CVC.
func (f *Form) Cvc() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cvc
}

// ShouldUseBillingForShipping reports the checkbox state.
func (f *Form) ShouldUseBillingForShipping() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.billingForShip
}

// ShouldSaveDetailsInWallet reports the checkbox state.
func (f *Form) ShouldSaveDetailsInWallet() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.saveInWallet
}

// ShouldSaveDetailsLocally reports the checkbox state.
func (f *Form) ShouldSaveDetailsLocally() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.saveLocally
}

// --- user interactions ---

// EditField sets the value of the field with handle h in section s.
// A handle that is not currently rendered (for example one issued before a
// model change) is ignored and reported as false.
func (f *Form) EditField(s model.SectionID, h handle.Handle, value string) bool {
	if !s.Valid() {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fields := f.sections[s].Fields
	for i := range fields {
		if fields[i].Handle == h {
			fields[i].Value = value
			return true
		}
	}
	f.log.Debug("edit on stale handle ignored", zap.Stringer("section", s), zap.Stringer("handle", h))
	return false
}

// SelectItem reports a click on menu row index of s.
func (f *Form) SelectItem(s model.SectionID, index int) bool {
	if !s.Valid() {
		return false
	}
	f.mu.RLock()
	n := len(f.sections[s].MenuItems)
	d := f.delegate
	f.mu.RUnlock()
	if index < 0 || index >= n || d == nil {
		return false
	}
	d.ItemSelected(s, index)
	return true
}

// SelectAccount reports a choice in the account chooser.
func (f *Form) SelectAccount(index int) bool {
	f.mu.RLock()
	n := len(f.accounts)
	d := f.delegate
	f.mu.RUnlock()
	if index < 0 || index >= n || d == nil {
		return false
	}
	d.AccountSelected(index)
	return true
}

// StartEditing opens s for editing.
func (f *Form) StartEditing(s model.SectionID) {
	if d := f.setEditing(s, true); d != nil {
		d.EditingStart(s)
	}
}

// CompleteEditing commits the edits made to s.
func (f *Form) CompleteEditing(s model.SectionID) {
	if d := f.setEditing(s, false); d != nil {
		d.EditingComplete(s)
	}
}

// CancelEditing abandons the edits made to s.
func (f *Form) CancelEditing(s model.SectionID) {
	if d := f.setEditing(s, false); d != nil {
		d.EditingCancel(s)
	}
}

func (f *Form) setEditing(s model.SectionID, on bool) Delegate {
	if !s.Valid() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sections[s].editing = on
	return f.delegate
}

// Submit presses the submit button.
func (f *Form) Submit() {
	if d := f.current(); d != nil {
		d.DialogSubmit()
	}
}

// Cancel presses the cancel button.
func (f *Form) Cancel() {
	if d := f.current(); d != nil {
		d.DialogCancel()
	}
}

// SetCvc types into the CVC box.
func (f *Form) SetCvc(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cvc = v
}

// SetUseBillingForShipping toggles the checkbox.
func (f *Form) SetUseBillingForShipping(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.billingForShip = v
}

// SetSaveInWallet toggles the checkbox.
func (f *Form) SetSaveInWallet(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveInWallet = v
}

// SetSaveLocally toggles the checkbox.
func (f *Form) SetSaveLocally(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveLocally = v
}

func (f *Form) current() Delegate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.delegate
}
