// Package convert maps token-service requests and responses to and from
// google.protobuf.Struct, the message type the service is declared with.
package convert

import (
	"fmt"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/autofill-glue/internal/model"
)

// Wire field names.
const (
	FieldAccount   = "account"
	FieldSecret    = "secret"
	FieldAccountID = "account_id"
	FieldSID       = "sid"
	FieldLSID      = "lsid"
	FieldExpiresAt = "expires_at"
	FieldToken     = "token"
	FieldAudience  = "audience"
)

// --- helpers ---

func strs(kv ...string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = structpb.NewStringValue(kv[i+1])
	}
	return &structpb.Struct{Fields: fields}
}

// str returns a string field. Missing fields read as "".
func str(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q: want string", key)
	}
	return sv.StringValue, nil
}

func pair(s *structpb.Struct, k1, k2 string) (string, string, error) {
	if s == nil {
		return "", "", fmt.Errorf("nil message")
	}
	a, err := str(s, k1)
	if err != nil {
		return "", "", err
	}
	b, err := str(s, k2)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func uuidField(s *structpb.Struct, key string) (u.UUID, error) {
	if s == nil {
		return u.Nil, fmt.Errorf("nil message")
	}
	raw, err := str(s, key)
	if err != nil {
		return u.Nil, err
	}
	var id u.UUID
	if err := id.UnmarshalText([]byte(raw)); err != nil {
		return u.Nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

// --- Enroll ---

// ToEnrollRequest builds an Enroll request.
func ToEnrollRequest(account, secret string) *structpb.Struct {
	return strs(FieldAccount, account, FieldSecret, secret)
}

// FromEnrollRequest reads an Enroll request.
func FromEnrollRequest(s *structpb.Struct) (account, secret string, err error) {
	return pair(s, FieldAccount, FieldSecret)
}

// ToEnrollResponse builds an Enroll response.
func ToEnrollResponse(id u.UUID) *structpb.Struct { return strs(FieldAccountID, id.String()) }

// FromEnrollResponse reads an Enroll response.
func FromEnrollResponse(s *structpb.Struct) (u.UUID, error) { return uuidField(s, FieldAccountID) }

// --- IssueTokens ---

// ToIssueRequest builds an IssueTokens request.
func ToIssueRequest(account, secret string) *structpb.Struct {
	return strs(FieldAccount, account, FieldSecret, secret)
}

// FromIssueRequest reads an IssueTokens request.
func FromIssueRequest(s *structpb.Struct) (account, secret string, err error) {
	return pair(s, FieldAccount, FieldSecret)
}

// ToIssueResponse builds an IssueTokens response. Expiry travels as RFC 3339.
func ToIssueResponse(t model.IssuedTokens) *structpb.Struct {
	out := strs(FieldSID, t.SID, FieldLSID, t.LSID)
	if !t.ExpiresAt.IsZero() {
		out.Fields[FieldExpiresAt] = structpb.NewStringValue(t.ExpiresAt.UTC().Format(time.RFC3339Nano))
	}
	return out
}

// FromIssueResponse reads an IssueTokens response.
func FromIssueResponse(s *structpb.Struct) (model.IssuedTokens, error) {
	sid, lsid, err := pair(s, FieldSID, FieldLSID)
	if err != nil {
		return model.IssuedTokens{}, err
	}
	out := model.IssuedTokens{SID: sid, LSID: lsid}
	exp, err := str(s, FieldExpiresAt)
	if err != nil {
		return model.IssuedTokens{}, err
	}
	if exp != "" {
		if out.ExpiresAt, err = time.Parse(time.RFC3339Nano, exp); err != nil {
			return model.IssuedTokens{}, fmt.Errorf("invalid %s: %w", FieldExpiresAt, err)
		}
	}
	return out, nil
}

// --- VerifyToken ---

// ToVerifyRequest builds a VerifyToken request.
func ToVerifyRequest(token, audience string) *structpb.Struct {
	return strs(FieldToken, token, FieldAudience, audience)
}

// FromVerifyRequest reads a VerifyToken request.
func FromVerifyRequest(s *structpb.Struct) (token, audience string, err error) {
	return pair(s, FieldToken, FieldAudience)
}

// ToVerifyResponse builds a VerifyToken response.
func ToVerifyResponse(id u.UUID) *structpb.Struct { return strs(FieldAccountID, id.String()) }

// FromVerifyResponse reads a VerifyToken response.
func FromVerifyResponse(s *structpb.Struct) (u.UUID, error) { return uuidField(s, FieldAccountID) }
