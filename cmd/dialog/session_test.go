package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/autofill-glue/internal/adapter"
	"github.com/and161185/autofill-glue/internal/model"
)

type fakeTokens struct{ err error }

func (f fakeTokens) IssueTokens(_ context.Context, account string) (model.Credentials, error) {
	if f.err != nil {
		return model.Credentials{}, f.err
	}
	return model.Credentials{Account: account, SID: "sid", LSID: "lsid"}, nil
}

type accounts []string

func (a accounts) AccountNames() []string { return a }

func newTestSession(t *testing.T, tokens fakeTokens) *session {
	t.Helper()
	s := newSession(adapter.DefaultConfig(), tokens, accounts{"a@example.com"}, zaptest.NewLogger(t))
	t.Cleanup(s.close)
	return s
}

func TestSession_SignedInRun(t *testing.T) {
	s := newTestSession(t, fakeTokens{})
	card, err := parseCard("Ada|4111111111111111|09|2031")
	require.NoError(t, err)
	addr, err := parseAddress("Ada|1 Main St|Springfield|12345|US")
	require.NoError(t, err)

	s.offer(model.SectionCCBilling, card)
	s.offer(model.SectionShipping, addr)
	s.show()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.signIn(ctx, "a@example.com"))
	s.pickFirst()
	s.submit("123", false)

	res := s.result()
	require.False(t, res.Cancelled)
	require.Equal(t, true, res.SignIn["signed_in"])
	require.NotNil(t, res.Submission)
	require.True(t, res.Submission.SignedIn)
	require.True(t, res.Submission.CvcSet)
	require.Equal(t, "a@example.com", res.Submission.Account)
	require.Equal(t, "4111111111111111", res.Submission.Values["cc_billing"]["cc_number"])
	require.Equal(t, "Springfield", res.Submission.Values["shipping"]["address_city"])
	require.NotContains(t, res.Submission.Values, "cc")
}

func TestSession_FailedSignInFallsBackToManual(t *testing.T) {
	s := newTestSession(t, fakeTokens{err: errors.New("unauthenticated")})
	s.show()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.signIn(ctx, "a@example.com"))
	s.submit("", true)

	res := s.result()
	require.Equal(t, false, res.SignIn["signed_in"])
	require.Equal(t, "failed", res.SignIn["state"])
	require.NotNil(t, res.Submission)
	require.False(t, res.Submission.SignedIn)
	require.Contains(t, res.Submission.Values, "cc")
	require.NotContains(t, res.Submission.Values, "shipping")
	require.Len(t, res.Dialog.Notifications, 1)
}

func TestSession_UnknownAccount(t *testing.T) {
	s := newTestSession(t, fakeTokens{})
	s.show()
	require.Error(t, s.signIn(context.Background(), "nobody@example.com"))
}

func TestSectionByName(t *testing.T) {
	for _, sec := range model.Sections() {
		require.Equal(t, sec, sectionByName(sec.String()))
	}
	require.False(t, sectionByName("nope").Valid())
}
