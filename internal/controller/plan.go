package controller

import (
	"github.com/and161185/autofill-glue/internal/handle"
	"github.com/and161185/autofill-glue/internal/marshal"
	"github.com/and161185/autofill-glue/internal/model"
)

type chooser struct {
	names    []string
	selected int
}

type sectionPush struct {
	id       model.SectionID
	visible  bool
	fields   []model.Field
	items    []model.MenuItem
	selected int
}

// plan is a batch of pushes computed under d.mu and applied without it, so
// the surface may call back into the dialog.
type plan struct {
	modelChanged bool
	fetching     bool
	chooser      *chooser
	notes        []model.Notification
	pushNotes    bool
	sections     []sectionPush
	progress     *float64
}

func (d *Dialog) apply(p plan) {
	srf := d.surfaceLocked()
	if srf == nil {
		return
	}
	if p.modelChanged {
		srf.ModelChanged(p.fetching)
	}
	if p.chooser != nil {
		srf.UpdateAccountChooser(p.chooser.names, p.chooser.selected)
	}
	if p.pushNotes {
		srf.UpdateNotificationArea(p.notes)
	}
	for _, s := range p.sections {
		srf.UpdateSection(s.id, s.visible, s.fields, s.items, s.selected)
	}
	if p.progress != nil {
		srf.UpdateProgressBar(*p.progress)
	}
}

// rebuildLocked issues a fresh handle epoch and plans a full repopulation.
func (d *Dialog) rebuildLocked() plan {
	d.fields.Reset()
	for i := range d.order {
		d.order[i] = nil
	}

	sel := d.account
	if sel >= len(d.accounts) {
		sel = model.NoSelection
	}
	p := plan{
		modelChanged: true,
		fetching:     d.fetching,
		chooser:      &chooser{names: marshal.AccountNames(d.accounts), selected: sel},
		pushNotes:    true,
		notes:        append([]model.Notification{}, d.notes...),
	}
	for _, s := range model.Sections() {
		p.sections = append(p.sections, d.sectionLocked(s))
	}
	progress := d.progress
	p.progress = &progress
	return p
}

func (d *Dialog) sectionPlanLocked(s model.SectionID) plan {
	return plan{sections: []sectionPush{d.sectionLocked(s)}}
}

// sectionLocked renders s. Handles issued in the current epoch are reused so
// a field keeps its handle across edits.
func (d *Dialog) sectionLocked(s model.SectionID) sectionPush {
	tmpl := d.templates[s]
	if len(d.order[s]) != len(tmpl) {
		d.order[s] = make([]handle.Handle, len(tmpl))
		for i, in := range tmpl {
			d.order[s][i] = d.fields.Register(fieldRecord{section: s, ft: in.Type, value: d.values[s][in.Type]})
		}
	}

	fields := marshal.NewFieldArray(len(tmpl))
	for i, in := range tmpl {
		h := d.order[s][i]
		rec, _ := d.fields.Get(h)
		marshal.AddField(fields, i, h, in.Type, in.Placeholder, rec.value)
	}

	menu := d.suggestions[s]
	items := marshal.NewMenuItemArray(len(menu))
	for i, sg := range menu {
		marshal.AddMenuItem(items, i, sg.Line1, sg.Line2, sg.Icon)
	}

	selected := d.selected[s]
	if selected >= len(menu) {
		selected = model.NoSelection
	}
	return sectionPush{
		id:       s,
		visible:  d.visibleLocked(s),
		fields:   fields.MustSeal(),
		items:    items.MustSeal(),
		selected: selected,
	}
}

// visibleLocked: a signed-in dialog shows the combined card and billing
// section and hides the separate ones.
func (d *Dialog) visibleLocked(s model.SectionID) bool {
	if len(d.templates[s]) == 0 {
		return false
	}
	signedIn := !d.creds.Empty()
	switch s {
	case model.SectionCCBilling:
		return signedIn
	case model.SectionEmail, model.SectionCC, model.SectionBilling:
		return !signedIn
	default:
		return true
	}
}
