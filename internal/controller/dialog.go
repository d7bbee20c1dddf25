// Package controller is a reference dialog controller: it owns the form
// model, registers every rendered field in a handle registry, builds pushes
// through the marshalling layer and reacts to interaction events.
package controller

import (
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/autofill-glue/internal/adapter"
	"github.com/and161185/autofill-glue/internal/handle"
	"github.com/and161185/autofill-glue/internal/marshal"
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/signin"
)

// Surface is the part of the adapter the dialog drives.
type Surface interface {
	UpdateNotificationArea(notes []model.Notification)
	UpdateSection(s model.SectionID, visible bool, fields []model.Field, items []model.MenuItem, selected int)
	ModelChanged(fetchingIsActive bool)
	UpdateAccountChooser(names []string, selected int)
	UpdateProgressBar(value float64)

	GetSection(s model.SectionID) []model.Field
	GetCvc() string
	ShouldUseBillingForShipping() bool
	ShouldSaveDetailsInWallet() bool
	ShouldSaveDetailsLocally() bool
	GetUserAccountNames() []string
	StartAutomaticSignIn(account string) signin.Generation
}

// Suggestion is a saved profile offered in a section menu.
type Suggestion struct {
	Line1  string
	Line2  string
	Icon   model.Image
	Values map[model.FieldType]string
}

// Submission is what the dialog hands back when the user submits.
type Submission struct {
	Values                map[model.SectionID]map[model.FieldType]string
	Cvc                   string
	UseBillingForShipping bool
	SaveInWallet          bool
	SaveLocally           bool
	Account               string
	SignedIn              bool
}

// fieldRecord is the registry entry behind a rendered field handle.
type fieldRecord struct {
	section model.SectionID
	ft      model.FieldType
	value   string
}

// Dialog implements adapter.Controller.
type Dialog struct {
	log *zap.Logger

	mu          sync.Mutex
	surface     Surface
	templates   map[model.SectionID][]Input
	fields      *handle.Registry[fieldRecord]
	order       [model.SectionCount][]handle.Handle
	values      [model.SectionCount]map[model.FieldType]string
	suggestions [model.SectionCount][]Suggestion
	selected    [model.SectionCount]int
	editing     [model.SectionCount]bool
	accounts    []model.Account
	account     int
	creds       model.Credentials
	fetching    bool
	notes       []model.Notification
	progress    float64

	submission *Submission
	cancelled  bool
	done       chan struct{}
	doneOnce   sync.Once
}

var _ adapter.Controller = (*Dialog)(nil)

// New returns a dialog using the default section templates.
func New(log *zap.Logger) *Dialog {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dialog{
		log:       log,
		templates: DefaultTemplates(),
		fields:    handle.New[fieldRecord](),
		account:   model.NoSelection,
		done:      make(chan struct{}),
	}
	for i := range d.values {
		d.values[i] = map[model.FieldType]string{}
		d.selected[i] = model.NoSelection
	}
	return d
}

// Attach sets the surface the dialog pushes to. Call before Show.
func (d *Dialog) Attach(s Surface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surface = s
}

// SetSuggestions replaces the menu of saved profiles for s.
func (d *Dialog) SetSuggestions(s model.SectionID, items []Suggestion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suggestions[s] = append([]Suggestion(nil), items...)
}

// Show pushes the complete dialog state.
func (d *Dialog) Show() {
	names := d.surfaceLocked().GetUserAccountNames()
	d.mu.Lock()
	d.accounts = marshal.Build(names, func(_ int, n string) model.Account { return model.Account{Name: n} })
	p := d.rebuildLocked()
	d.mu.Unlock()
	d.apply(p)
}

// Done is closed once the dialog is submitted or cancelled.
func (d *Dialog) Done() <-chan struct{} { return d.done }

// Result returns the submission, if any, and whether the dialog was cancelled.
func (d *Dialog) Result() (*Submission, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submission, d.cancelled
}

// Credentials returns the credentials of the last successful sign-in.
func (d *Dialog) Credentials() model.Credentials {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creds
}

// Editing reports whether the user has an open edit session on s.
func (d *Dialog) Editing(s model.SectionID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editing[s]
}

// HandleEvent implements adapter.Controller.
func (d *Dialog) HandleEvent(ev adapter.Event) {
	switch e := ev.(type) {
	case adapter.ItemSelected:
		d.itemSelected(e.Section, e.Index)
	case adapter.AccountSelected:
		d.accountSelected(e.Index)
	case adapter.EditingStart:
		d.mu.Lock()
		d.editing[e.Section] = true
		d.mu.Unlock()
	case adapter.EditingComplete:
		d.editingComplete(e.Section)
	case adapter.EditingCancel:
		d.mu.Lock()
		d.editing[e.Section] = false
		p := d.sectionPlanLocked(e.Section)
		d.mu.Unlock()
		d.apply(p)
	case adapter.DialogSubmit:
		d.submit()
	case adapter.DialogCancel:
		d.mu.Lock()
		d.cancelled = true
		d.mu.Unlock()
		d.finish()
	case adapter.SignInContinued:
		d.signInContinued(e.Credentials)
	default:
		d.log.Warn("unhandled event", zap.Stringer("kind", ev.Kind()))
	}
}

func (d *Dialog) itemSelected(s model.SectionID, index int) {
	d.mu.Lock()
	if index < 0 || index >= len(d.suggestions[s]) {
		d.mu.Unlock()
		d.log.Warn("menu index out of range", zap.Stringer("section", s), zap.Int("index", index))
		return
	}
	sg := d.suggestions[s][index]
	vals := make(map[model.FieldType]string, len(sg.Values))
	for ft, v := range sg.Values {
		vals[ft] = v
	}
	d.values[s] = vals
	d.selected[s] = index
	for _, h := range d.order[s] {
		d.fields.Update(h, func(r *fieldRecord) { r.value = vals[r.ft] })
	}
	p := d.sectionPlanLocked(s)
	d.mu.Unlock()
	d.apply(p)
}

func (d *Dialog) accountSelected(index int) {
	d.mu.Lock()
	if index < 0 || index >= len(d.accounts) {
		d.mu.Unlock()
		d.log.Warn("account index out of range", zap.Int("index", index))
		return
	}
	d.account = index
	d.fetching = true
	d.progress = 0
	name := d.accounts[index].Name
	progress := d.progress
	p := plan{
		modelChanged: true,
		fetching:     true,
		chooser:      &chooser{names: marshal.AccountNames(d.accounts), selected: index},
		progress:     &progress,
	}
	d.fields.Reset()
	for i := range d.order {
		d.order[i] = nil
	}
	d.mu.Unlock()

	d.apply(p)
	d.surfaceLocked().StartAutomaticSignIn(name)
}

// editingComplete reads the edited fields back through their handles.
// Fields whose handles no longer resolve are skipped.
func (d *Dialog) editingComplete(s model.SectionID) {
	edited := d.surfaceLocked().GetSection(s)

	d.mu.Lock()
	d.editing[s] = false
	stale := 0
	for _, f := range edited {
		h := marshal.FieldHandle(f)
		v := marshal.FieldValue(f)
		var ft model.FieldType
		ok := d.fields.Update(h, func(r *fieldRecord) {
			if r.section != s {
				return
			}
			r.value = v
			ft = r.ft
		})
		if !ok || ft == model.FieldUnknown {
			stale++
			continue
		}
		d.values[s][ft] = v
	}
	d.selected[s] = model.NoSelection
	p := d.sectionPlanLocked(s)
	d.mu.Unlock()

	if stale > 0 {
		d.log.Debug("stale field handles ignored", zap.Stringer("section", s), zap.Int("count", stale))
	}
	d.apply(p)
}

func (d *Dialog) submit() {
	srf := d.surfaceLocked()
	cvc := srf.GetCvc()
	useBilling := srf.ShouldUseBillingForShipping()
	wallet := srf.ShouldSaveDetailsInWallet()
	local := srf.ShouldSaveDetailsLocally()

	d.mu.Lock()
	sub := &Submission{
		Values:                map[model.SectionID]map[model.FieldType]string{},
		Cvc:                   cvc,
		UseBillingForShipping: useBilling,
		SaveInWallet:          wallet,
		SaveLocally:           local,
		SignedIn:              !d.creds.Empty(),
	}
	if d.account >= 0 && d.account < len(d.accounts) {
		sub.Account = d.accounts[d.account].Name
	}
	for _, s := range model.Sections() {
		if !d.visibleLocked(s) || (s == model.SectionShipping && useBilling) {
			continue
		}
		vals := make(map[model.FieldType]string, len(d.values[s]))
		for ft, v := range d.values[s] {
			vals[ft] = v
		}
		sub.Values[s] = vals
	}
	d.submission = sub
	d.progress = 1
	d.mu.Unlock()

	srf.UpdateProgressBar(1)
	d.finish()
}

func (d *Dialog) signInContinued(c model.Credentials) {
	d.mu.Lock()
	d.fetching = false
	d.progress = 1
	if c.Empty() {
		d.creds = model.Credentials{}
		d.notes = []model.Notification{failureNote()}
		d.log.Info("automatic sign-in failed")
	} else {
		d.creds = c
		d.notes = []model.Notification{signedInNote(c.Account)}
		d.log.Info("automatic sign-in succeeded", zap.String("account", c.Account))
	}
	p := d.rebuildLocked()
	d.mu.Unlock()
	d.apply(p)
}

func (d *Dialog) finish() {
	d.doneOnce.Do(func() { close(d.done) })
}

func (d *Dialog) surfaceLocked() Surface {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface
}
