package model

import "strconv"

// SectionID identifies a dialog region.
type SectionID int

// Dialog sections.
const (
	SectionEmail SectionID = iota
	SectionCC
	SectionBilling
	SectionCCBilling
	SectionShipping

	SectionCount int = iota
)

var sectionNames = [...]string{
	SectionEmail:     "email",
	SectionCC:        "cc",
	SectionBilling:   "billing",
	SectionCCBilling: "cc_billing",
	SectionShipping:  "shipping",
}

// Valid reports whether s names a known section.
func (s SectionID) Valid() bool {
	return s >= 0 && int(s) < SectionCount
}

func (s SectionID) String() string {
	if !s.Valid() {
		return "section(" + strconv.Itoa(int(s)) + ")"
	}
	return sectionNames[s]
}

// Sections lists every section in display order.
func Sections() []SectionID {
	out := make([]SectionID, SectionCount)
	for i := range out {
		out[i] = SectionID(i)
	}
	return out
}

// FieldType is the autofill type of an input.
type FieldType int

// Field types understood by the dialog.
const (
	FieldUnknown FieldType = iota
	FieldEmail
	FieldName
	FieldPhone
	FieldAddressLine1
	FieldAddressLine2
	FieldCity
	FieldState
	FieldZip
	FieldCountry
	FieldCCName
	FieldCCNumber
	FieldCCExpMonth
	FieldCCExpYear
	FieldCCCVC
)

var fieldTypeNames = map[FieldType]string{
	FieldUnknown:      "unknown",
	FieldEmail:        "email",
	FieldName:         "name_full",
	FieldPhone:        "phone",
	FieldAddressLine1: "address_line1",
	FieldAddressLine2: "address_line2",
	FieldCity:         "address_city",
	FieldState:        "address_state",
	FieldZip:          "address_zip",
	FieldCountry:      "address_country",
	FieldCCName:       "cc_name",
	FieldCCNumber:     "cc_number",
	FieldCCExpMonth:   "cc_exp_month",
	FieldCCExpYear:    "cc_exp_year",
	FieldCCCVC:        "cc_cvc",
}

func (t FieldType) String() string {
	if n, ok := fieldTypeNames[t]; ok {
		return n
	}
	return "field(" + strconv.Itoa(int(t)) + ")"
}
