package view

import "github.com/and161185/autofill-glue/internal/model"

// FieldView is one rendered input.
type FieldView struct {
	Handle      string `json:"handle"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// SectionView is one rendered region.
type SectionView struct {
	Section   string           `json:"section"`
	Label     string           `json:"label"`
	Visible   bool             `json:"visible"`
	Editing   bool             `json:"editing,omitempty"`
	Fields    []FieldView      `json:"fields"`
	MenuItems []model.MenuItem `json:"menu_items,omitempty"`
	Selected  int              `json:"selected"`
}

// Snapshot is what a renderer would draw.
type Snapshot struct {
	Sections        []SectionView        `json:"sections"`
	Notifications   []model.Notification `json:"notifications,omitempty"`
	Fetching        bool                 `json:"fetching"`
	Accounts        []string             `json:"accounts"`
	SelectedAccount int                  `json:"selected_account"`
	Progress        float64              `json:"progress"`
	ModelChanges    int                  `json:"model_changes"`
}

// Render captures the current state. Labels and icons come from the
// delegate, queried after the form lock is released.
func (f *Form) Render() Snapshot {
	f.mu.RLock()
	snap := Snapshot{
		Notifications:   append([]model.Notification(nil), f.notes...),
		Fetching:        f.fetching,
		Accounts:        append([]string{}, f.accounts...),
		SelectedAccount: f.selectedAccount,
		Progress:        f.progress,
		ModelChanges:    f.modelChanges,
	}
	sections := make([]sectionState, 0, len(f.sections))
	for _, st := range f.sections {
		st.Fields = append([]model.Field(nil), st.Fields...)
		st.MenuItems = append([]model.MenuItem(nil), st.MenuItems...)
		sections = append(sections, st)
	}
	d := f.delegate
	f.mu.RUnlock()

	for _, st := range sections {
		sv := SectionView{
			Section:   st.ID.String(),
			Visible:   st.Visible,
			Editing:   st.editing,
			Fields:    make([]FieldView, 0, len(st.Fields)),
			MenuItems: st.MenuItems,
			Selected:  st.Selected,
		}
		if d != nil {
			sv.Label = d.GetLabelForSection(st.ID)
		}
		for _, fld := range st.Fields {
			fv := FieldView{
				Handle:      fld.Handle.String(),
				Type:        fld.Type.String(),
				Placeholder: fld.Placeholder,
				Value:       fld.Value,
			}
			if d != nil {
				fv.Icon = string(d.GetIconForField(fld.Type, fld.Value))
				if fv.Placeholder == "" {
					fv.Placeholder = d.GetPlaceholderForField(st.ID, fld.Type)
				}
			}
			sv.Fields = append(sv.Fields, fv)
		}
		snap.Sections = append(snap.Sections, sv)
	}
	return snap
}
