// Package model defines the dialog view-model snapshots and token service records.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/autofill-glue/internal/handle"
)

// NoSelection is the null selected index for menus and the account chooser.
const NoSelection = -1

// Image is an opaque image handle (resource name). Empty means no image.
type Image string

// Color is an ARGB color value.
type Color uint32

// Field is one input of a section. Identity is Handle, not position.
type Field struct {
	Handle      handle.Handle // controller-owned, forwarded uninterpreted
	Type        FieldType
	Placeholder string // may be empty
	Value       string // may be empty
}

// MenuItem is a selectable row in a section's menu.
type MenuItem struct {
	Index int // position within the section menu
	Line1 string
	Line2 string // may be empty
	Icon  Image
}

// Notification is an informational banner.
type Notification struct {
	BackgroundColor Color
	TextColor       Color
	HasArrow        bool
	HasCheckbox     bool
	Text            string
}

// Account is a device account; its index is its position in the list.
type Account struct {
	Name string
}

// Section is a snapshot of one dialog region as delivered by UpdateSection.
type Section struct {
	ID        SectionID
	Visible   bool
	Fields    []Field
	MenuItems []MenuItem
	Selected  int // NoSelection or an index into MenuItems
}

// Credentials is the payload of a sign-in continuation.
// The zero value is the explicit failure marker.
type Credentials struct {
	Account string
	SID     string
	LSID    string
}

// Empty reports whether c is the failure marker.
func (c Credentials) Empty() bool {
	return c.Account == "" && c.SID == "" && c.LSID == ""
}

// AccountRecord is an enrolled account stored by the token service.
// Device secrets are never stored in plaintext.
type AccountRecord struct {
	ID         uuid.UUID // PK
	Name       string    // unique, e.g. an email
	SecretHash []byte    // Argon2id(secret, Salt)
	Salt       []byte
	CreatedAt  time.Time
}

// TokenIssue is the audit record of one successful token exchange.
type TokenIssue struct {
	ID         uuid.UUID // SID jti
	AccountID  uuid.UUID
	DeviceHash []byte // SHA-256 of the device identifier
	ExpiresAt  time.Time
}

// IssuedTokens is the result of a successful token exchange.
type IssuedTokens struct {
	SID       string
	LSID      string
	ExpiresAt time.Time // SID expiry
}
