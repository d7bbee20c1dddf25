package convert

import (
	"strings"
	"testing"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/autofill-glue/internal/model"
)

func TestIssueResponse_ExpiryIsUTCAndOptional(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("X", 3*3600)
	exp := time.Date(2026, 5, 6, 7, 8, 9, 123, loc)
	s := ToIssueResponse(model.IssuedTokens{SID: "s", LSID: "l", ExpiresAt: exp})

	raw := s.GetFields()[FieldExpiresAt].GetStringValue()
	if !strings.HasSuffix(raw, "Z") {
		t.Fatalf("expiry not UTC: %q", raw)
	}
	got, err := FromIssueResponse(s)
	if err != nil {
		t.Fatalf("FromIssueResponse: %v", err)
	}
	if !got.ExpiresAt.Equal(exp) || got.SID != "s" || got.LSID != "l" {
		t.Fatalf("mismatch: %+v", got)
	}

	noExp := ToIssueResponse(model.IssuedTokens{SID: "s", LSID: "l"})
	if _, ok := noExp.GetFields()[FieldExpiresAt]; ok {
		t.Fatalf("zero expiry must be omitted")
	}
	got, err = FromIssueResponse(noExp)
	if err != nil || !got.ExpiresAt.IsZero() {
		t.Fatalf("zero expiry: %+v %v", got, err)
	}
}

func TestFromIssueResponse_BadExpiry(t *testing.T) {
	t.Parallel()

	s := ToIssueResponse(model.IssuedTokens{SID: "s", LSID: "l"})
	s.Fields[FieldExpiresAt] = structpb.NewStringValue("tomorrow")
	if _, err := FromIssueResponse(s); err == nil || !strings.Contains(err.Error(), FieldExpiresAt) {
		t.Fatalf("want expires_at error, got %v", err)
	}
}

func TestRequestFields_WrongKind(t *testing.T) {
	t.Parallel()

	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldAccount: structpb.NewNumberValue(42),
		FieldSecret:  structpb.NewStringValue("x"),
	}}
	if _, _, err := FromIssueRequest(s); err == nil {
		t.Fatalf("want error on numeric account")
	}
	if _, _, err := FromEnrollRequest(nil); err == nil {
		t.Fatalf("want error on nil message")
	}
}

func TestRequestFields_MissingReadsEmpty(t *testing.T) {
	t.Parallel()

	acc, sec, err := FromEnrollRequest(&structpb.Struct{})
	if err != nil || acc != "" || sec != "" {
		t.Fatalf("acc=%q sec=%q err=%v", acc, sec, err)
	}
	tok, aud, err := FromVerifyRequest(ToVerifyRequest("t", "sid"))
	if err != nil || tok != "t" || aud != "sid" {
		t.Fatalf("tok=%q aud=%q err=%v", tok, aud, err)
	}
}

func TestAccountIDResponses(t *testing.T) {
	t.Parallel()

	id := u.Must(u.NewV4())
	got, err := FromEnrollResponse(ToEnrollResponse(id))
	if err != nil || got != id {
		t.Fatalf("enroll: %v %v", got, err)
	}
	got, err = FromVerifyResponse(ToVerifyResponse(id))
	if err != nil || got != id {
		t.Fatalf("verify: %v %v", got, err)
	}
	if _, err := FromEnrollResponse(strs(FieldAccountID, "nope")); err == nil {
		t.Fatalf("want invalid uuid error")
	}
	if _, err := FromVerifyResponse(nil); err == nil {
		t.Fatalf("want nil message error")
	}
}
