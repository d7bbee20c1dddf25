package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/autofill-glue/internal/adapter"
	"github.com/and161185/autofill-glue/internal/controller"
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/signin"
	"github.com/and161185/autofill-glue/internal/view"
)

const pollEvery = 10 * time.Millisecond

// session is one headless dialog: form, controller and the adapter between them.
type session struct {
	form   *view.Form
	dialog *controller.Dialog
	ad     *adapter.Adapter
}

func newSession(cfg adapter.Config, tokens signin.TokenSource, accounts signin.AccountSource, log *zap.Logger) *session {
	d := controller.New(log.Named("controller"))
	form := view.NewForm(log.Named("view"))
	ad := adapter.New(cfg, d, form, tokens, accounts, log.Named("adapter"))
	form.Bind(ad)
	d.Attach(ad)
	return &session{form: form, dialog: d, ad: ad}
}

func (s *session) close() { s.ad.Close() }

// offer installs saved profiles as section menus before the dialog is shown.
func (s *session) offer(sec model.SectionID, items ...controller.Suggestion) {
	if len(items) > 0 {
		s.dialog.SetSuggestions(sec, items)
	}
}

func (s *session) show() { s.dialog.Show() }

// signIn selects account in the chooser and waits for the continuation.
func (s *session) signIn(ctx context.Context, account string) error {
	idx := -1
	for i, n := range s.form.Render().Accounts {
		if n == account {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("account %q is not in the keyring", account)
	}
	if !s.form.SelectAccount(idx) {
		return fmt.Errorf("account %q not selectable", account)
	}
	s.ad.Flush()

	t := time.NewTicker(pollEvery)
	defer t.Stop()
	for s.ad.Pending() == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	s.ad.Flush()
	return nil
}

// pickFirst selects the first menu item of every visible section that has one.
func (s *session) pickFirst() {
	for _, sec := range s.form.Render().Sections {
		if !sec.Visible || len(sec.MenuItems) == 0 {
			continue
		}
		id := sectionByName(sec.Section)
		if s.form.SelectItem(id, 0) {
			s.ad.Flush()
		}
	}
}

func (s *session) submit(cvc string, useBilling bool) {
	s.form.SetCvc(cvc)
	s.form.SetUseBillingForShipping(useBilling)
	s.form.Submit()
	s.ad.Flush()
}

// result is what `run` prints.
type result struct {
	Dialog     view.Snapshot   `json:"dialog"`
	Submission *submissionView `json:"submission,omitempty"`
	Cancelled  bool            `json:"cancelled"`
	SignIn     map[string]any  `json:"sign_in"`
}

type submissionView struct {
	Values                map[string]map[string]string `json:"values"`
	CvcSet                bool                         `json:"cvc_set"`
	UseBillingForShipping bool                         `json:"use_billing_for_shipping"`
	SaveInWallet          bool                         `json:"save_in_wallet"`
	SaveLocally           bool                         `json:"save_locally"`
	Account               string                       `json:"account,omitempty"`
	SignedIn              bool                         `json:"signed_in"`
}

func (s *session) result() result {
	sub, cancelled := s.dialog.Result()
	st, account := s.ad.SignInState()
	creds := s.dialog.Credentials()
	out := result{
		Dialog:    s.form.Render(),
		Cancelled: cancelled,
		SignIn: map[string]any{
			"state":     st.String(),
			"account":   account,
			"signed_in": !creds.Empty(),
		},
	}
	if sub != nil {
		sv := &submissionView{
			Values:                map[string]map[string]string{},
			CvcSet:                sub.Cvc != "",
			UseBillingForShipping: sub.UseBillingForShipping,
			SaveInWallet:          sub.SaveInWallet,
			SaveLocally:           sub.SaveLocally,
			Account:               sub.Account,
			SignedIn:              sub.SignedIn,
		}
		for sec, vals := range sub.Values {
			m := make(map[string]string, len(vals))
			for ft, v := range vals {
				if v != "" {
					m[ft.String()] = v
				}
			}
			sv.Values[sec.String()] = m
		}
		out.Submission = sv
	}
	return out
}

func sectionByName(name string) model.SectionID {
	for _, s := range model.Sections() {
		if s.String() == name {
			return s
		}
	}
	return model.SectionID(-1)
}
