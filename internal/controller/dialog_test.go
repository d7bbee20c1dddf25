package controller

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/autofill-glue/internal/adapter"
	"github.com/and161185/autofill-glue/internal/handle"
	"github.com/and161185/autofill-glue/internal/keyring"
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/signin"
	"github.com/and161185/autofill-glue/internal/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTokens struct {
	creds model.Credentials
	err   error
}

func (f fakeTokens) IssueTokens(_ context.Context, account string) (model.Credentials, error) {
	if f.err != nil {
		return model.Credentials{}, f.err
	}
	c := f.creds
	c.Account = account
	return c, nil
}

type accounts []string

func (a accounts) AccountNames() []string { return a }

type harness struct {
	dialog *Dialog
	ad     *adapter.Adapter
	form   *view.Form
}

func newHarness(t *testing.T, tokens fakeTokens) *harness {
	t.Helper()
	return newHarnessWith(t, tokens, accounts{"a@example.com", "b@example.com"})
}

func newHarnessWith(t *testing.T, tokens fakeTokens, names signin.AccountSource) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	d := New(log)
	form := view.NewForm(log)
	ad := adapter.New(adapter.DefaultConfig(), d, form, tokens, names, log)
	form.Bind(ad)
	d.Attach(ad)
	t.Cleanup(ad.Close)
	d.Show()
	return &harness{dialog: d, ad: ad, form: form}
}

func (h *harness) field(t *testing.T, s model.SectionID, ft model.FieldType) model.Field {
	t.Helper()
	for _, f := range h.form.Section(s) {
		if f.Type == ft {
			return f
		}
	}
	t.Fatalf("no %s field in %s", ft, s)
	return model.Field{}
}

func (h *harness) awaitSignIn(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ad.Pending() > 0 }, 2*time.Second, time.Millisecond)
	h.ad.Flush()
}

func TestShowPushesLayout(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	snap := h.form.Render()

	require.Equal(t, 1, snap.ModelChanges)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, snap.Accounts)
	require.Equal(t, model.NoSelection, snap.SelectedAccount)

	visible := map[string]bool{}
	for _, s := range snap.Sections {
		visible[s.Section] = s.Visible
	}
	require.Equal(t, map[string]bool{
		"email": true, "cc": true, "billing": true, "cc_billing": false, "shipping": true,
	}, visible)

	cc := snap.Sections[model.SectionCC]
	require.Equal(t, "Payment card", cc.Label)
	require.Len(t, cc.Fields, len(cardInputs))
	require.Equal(t, "cc_name", cc.Fields[0].Type)
	require.Equal(t, "Cardholder name", cc.Fields[0].Placeholder)
}

func TestChooserFollowsKeyringOrder(t *testing.T) {
	keys, err := keyring.Open(filepath.Join(t.TempDir(), "keyring.json"), []byte("pw"))
	require.NoError(t, err)
	for _, n := range []string{"mike@example.com", "amy@example.com", "zed@example.com"} {
		require.NoError(t, keys.Put(n, "secret-"+n))
	}

	h := newHarnessWith(t, fakeTokens{creds: model.Credentials{SID: "sid", LSID: "lsid"}}, keys)
	require.Equal(t, keys.AccountNames(), h.form.Render().Accounts)

	require.True(t, h.form.SelectAccount(2))
	h.ad.Flush()
	snap := h.form.Render()
	require.Equal(t, keys.AccountNames(), snap.Accounts)
	require.Equal(t, 2, snap.SelectedAccount)

	h.awaitSignIn(t)
	require.Equal(t, "zed@example.com", h.dialog.Credentials().Account)
	require.Equal(t, []string{"amy@example.com", "mike@example.com", "zed@example.com"}, h.form.Render().Accounts)
}

func TestEditingCompleteCommitsThroughHandles(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	num := h.field(t, model.SectionCC, model.FieldCCNumber)

	h.form.StartEditing(model.SectionCC)
	h.ad.Flush()
	require.True(t, h.dialog.Editing(model.SectionCC))
	require.True(t, h.form.EditField(model.SectionCC, num.Handle, "4111 1111 1111 1111"))
	h.form.CompleteEditing(model.SectionCC)
	require.Equal(t, 1, h.ad.Flush())
	require.False(t, h.dialog.Editing(model.SectionCC))

	after := h.field(t, model.SectionCC, model.FieldCCNumber)
	require.Equal(t, num.Handle, after.Handle)
	require.Equal(t, "4111 1111 1111 1111", after.Value)

	snap := h.form.Render()
	require.Equal(t, string(IconVisa), snap.Sections[model.SectionCC].Fields[1].Icon)
}

func TestEditingCancelRestoresCommittedValues(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	city := h.field(t, model.SectionBilling, model.FieldCity)

	h.form.StartEditing(model.SectionBilling)
	h.form.EditField(model.SectionBilling, city.Handle, "Paris")
	h.form.CancelEditing(model.SectionBilling)
	h.ad.Flush()

	require.Equal(t, "", h.field(t, model.SectionBilling, model.FieldCity).Value)
}

// staleSurface serves fields whose handles predate the last model change.
type staleSurface struct {
	*adapter.Adapter
	fields []model.Field
}

func (s staleSurface) GetSection(model.SectionID) []model.Field { return s.fields }

func TestStaleHandlesAreIgnored(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	old := h.field(t, model.SectionEmail, model.FieldEmail)

	// a full rebuild issues a new epoch
	h.dialog.Show()
	require.NotEqual(t, old.Handle, h.field(t, model.SectionEmail, model.FieldEmail).Handle)

	old.Value = "stale@example.com"
	h.dialog.Attach(staleSurface{Adapter: h.ad, fields: []model.Field{old, {Handle: handle.Nil, Value: "x"}}})
	h.dialog.HandleEvent(adapter.EditingComplete{Section: model.SectionEmail})

	require.Equal(t, "", h.field(t, model.SectionEmail, model.FieldEmail).Value)
}

func TestHandleFromOtherSectionIsIgnored(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	name := h.field(t, model.SectionBilling, model.FieldName)
	name.Value = "Mallory"

	h.dialog.Attach(staleSurface{Adapter: h.ad, fields: []model.Field{name}})
	h.dialog.HandleEvent(adapter.EditingComplete{Section: model.SectionShipping})

	require.Equal(t, "", h.field(t, model.SectionBilling, model.FieldName).Value)
	require.Equal(t, "", h.field(t, model.SectionShipping, model.FieldName).Value)
}

func TestItemSelectedAppliesSuggestion(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	h.dialog.SetSuggestions(model.SectionShipping, []Suggestion{
		{Line1: "Home", Line2: "1 Main St", Values: map[model.FieldType]string{model.FieldCity: "Springfield"}},
		{Line1: "Work", Line2: "2 Office Rd", Values: map[model.FieldType]string{model.FieldCity: "Shelbyville"}},
	})
	h.dialog.Show()

	require.True(t, h.form.SelectItem(model.SectionShipping, 1))
	h.ad.Flush()

	sec := h.form.Render().Sections[model.SectionShipping]
	require.Equal(t, 1, sec.Selected)
	require.Len(t, sec.MenuItems, 2)
	require.Equal(t, "Work", sec.MenuItems[1].Line1)
	require.Equal(t, "Shelbyville", h.field(t, model.SectionShipping, model.FieldCity).Value)

	h.dialog.HandleEvent(adapter.ItemSelected{Section: model.SectionShipping, Index: 7})
	require.Equal(t, 1, h.form.Render().Sections[model.SectionShipping].Selected)
}

func TestAccountSelectedSignsIn(t *testing.T) {
	h := newHarness(t, fakeTokens{creds: model.Credentials{SID: "sid", LSID: "lsid"}})

	require.True(t, h.form.SelectAccount(1))
	h.ad.Flush()

	snap := h.form.Render()
	require.True(t, snap.Fetching)
	require.Equal(t, 1, snap.SelectedAccount)

	h.awaitSignIn(t)

	snap = h.form.Render()
	require.False(t, snap.Fetching)
	require.True(t, snap.Sections[model.SectionCCBilling].Visible)
	require.False(t, snap.Sections[model.SectionCC].Visible)
	require.Len(t, snap.Notifications, 1)
	require.Equal(t, "Signed in as b@example.com", snap.Notifications[0].Text)
	require.Equal(t, model.Credentials{Account: "b@example.com", SID: "sid", LSID: "lsid"}, h.dialog.Credentials())
}

func TestFailedSignInShowsNotification(t *testing.T) {
	h := newHarness(t, fakeTokens{err: errors.New("unauthenticated")})

	h.form.SelectAccount(0)
	h.ad.Flush()
	h.awaitSignIn(t)

	snap := h.form.Render()
	require.Len(t, snap.Notifications, 1)
	require.Equal(t, colorErrorBg, snap.Notifications[0].BackgroundColor)
	require.True(t, h.dialog.Credentials().Empty())
	require.True(t, snap.Sections[model.SectionCC].Visible)
}

func TestSubmitCollectsForm(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	email := h.field(t, model.SectionEmail, model.FieldEmail)
	h.form.EditField(model.SectionEmail, email.Handle, "me@example.com")
	h.form.CompleteEditing(model.SectionEmail)
	h.form.SetCvc("123")
	h.form.SetUseBillingForShipping(true)
	h.form.Submit()
	h.ad.Flush()

	select {
	case <-h.dialog.Done():
	default:
		t.Fatalf("dialog not done after submit")
	}
	sub, cancelled := h.dialog.Result()
	require.False(t, cancelled)
	require.NotNil(t, sub)
	require.Equal(t, "123", sub.Cvc)
	require.True(t, sub.UseBillingForShipping)
	require.True(t, sub.SaveInWallet)
	require.Equal(t, "me@example.com", sub.Values[model.SectionEmail][model.FieldEmail])
	require.NotContains(t, sub.Values, model.SectionShipping)
	require.NotContains(t, sub.Values, model.SectionCCBilling)
	require.InDelta(t, 1.0, h.form.Render().Progress, 1e-9)
}

func TestCancelFinishes(t *testing.T) {
	h := newHarness(t, fakeTokens{})
	h.form.Cancel()
	h.form.Cancel()
	h.ad.Flush()

	<-h.dialog.Done()
	sub, cancelled := h.dialog.Result()
	require.Nil(t, sub)
	require.True(t, cancelled)
}

func TestCardIcon(t *testing.T) {
	cases := map[string]model.Image{
		"":                 "",
		"4111 1111":        IconVisa,
		"5500-0000":        IconMastercard,
		"2221000000000009": IconMastercard,
		"378282246310005":  IconAmex,
		"6011000000000004": IconGeneric,
	}
	for in, want := range cases {
		if got := CardIcon(in); got != want {
			t.Fatalf("CardIcon(%q) = %q, want %q", in, got, want)
		}
	}
	d := New(nil)
	require.Equal(t, model.Image(""), d.IconForField(model.FieldCity, "4111"))
	require.Equal(t, "ZIP code", d.PlaceholderForField(model.SectionBilling, model.FieldZip))
	require.Equal(t, "", d.PlaceholderForField(model.SectionEmail, model.FieldZip))
}
