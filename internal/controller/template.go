package controller

import (
	"strings"

	"github.com/and161185/autofill-glue/internal/marshal"
	"github.com/and161185/autofill-glue/internal/model"
)

// Input is one templated field of a section.
type Input struct {
	Type        model.FieldType
	Placeholder string
}

// Card icons returned by IconForField.
const (
	IconVisa       model.Image = "card:visa"
	IconMastercard model.Image = "card:mastercard"
	IconAmex       model.Image = "card:amex"
	IconGeneric    model.Image = "card:generic"
)

// Banner colors.
const (
	colorInfoBg  model.Color = 0xFFE8F0FE
	colorInfoFg  model.Color = 0xFF1A73E8
	colorErrorBg model.Color = 0xFFFCE8E6
	colorErrorFg model.Color = 0xFFC5221F
)

var addressInputs = []Input{
	{model.FieldName, "Full name"},
	{model.FieldAddressLine1, "Street address"},
	{model.FieldAddressLine2, "Apt, suite, etc."},
	{model.FieldCity, "City"},
	{model.FieldState, "State"},
	{model.FieldZip, "ZIP code"},
	{model.FieldCountry, "Country"},
	{model.FieldPhone, "Phone"},
}

var cardInputs = []Input{
	{model.FieldCCName, "Cardholder name"},
	{model.FieldCCNumber, "Card number"},
	{model.FieldCCExpMonth, "MM"},
	{model.FieldCCExpYear, "YYYY"},
}

// DefaultTemplates returns the field layout of every section.
func DefaultTemplates() map[model.SectionID][]Input {
	ccBilling := make([]Input, 0, len(cardInputs)+len(addressInputs))
	ccBilling = append(ccBilling, cardInputs...)
	ccBilling = append(ccBilling, addressInputs[1:]...)
	return map[model.SectionID][]Input{
		model.SectionEmail:     {{model.FieldEmail, "Email"}},
		model.SectionCC:        append([]Input(nil), cardInputs...),
		model.SectionBilling:   append([]Input(nil), addressInputs...),
		model.SectionCCBilling: ccBilling,
		model.SectionShipping:  append([]Input(nil), addressInputs...),
	}
}

var sectionLabels = map[model.SectionID]string{
	model.SectionEmail:     "Contact email",
	model.SectionCC:        "Payment card",
	model.SectionBilling:   "Billing address",
	model.SectionCCBilling: "Payment",
	model.SectionShipping:  "Shipping address",
}

// LabelForSection implements adapter.Controller.
func (d *Dialog) LabelForSection(s model.SectionID) string { return sectionLabels[s] }

// PlaceholderForField implements adapter.Controller.
func (d *Dialog) PlaceholderForField(s model.SectionID, ft model.FieldType) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, in := range d.templates[s] {
		if in.Type == ft {
			return in.Placeholder
		}
	}
	return ""
}

// IconForField implements adapter.Controller. Only card numbers are decorated.
func (d *Dialog) IconForField(ft model.FieldType, input string) model.Image {
	if ft != model.FieldCCNumber {
		return ""
	}
	return CardIcon(input)
}

// CardIcon guesses the card network from the leading digits of number.
func CardIcon(number string) model.Image {
	n := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	switch {
	case n == "":
		return ""
	case strings.HasPrefix(n, "4"):
		return IconVisa
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return IconAmex
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return IconMastercard
	case len(n) >= 4 && n[:4] >= "2221" && n[:4] <= "2720":
		return IconMastercard
	default:
		return IconGeneric
	}
}

func failureNote() model.Notification {
	arr := marshal.NewNotificationArray(1)
	marshal.AddNotification(arr, 0, colorErrorBg, colorErrorFg, false, false,
		"Automatic sign-in failed. Enter your details manually.")
	return arr.MustSeal()[0]
}

func signedInNote(account string) model.Notification {
	arr := marshal.NewNotificationArray(1)
	marshal.AddNotification(arr, 0, colorInfoBg, colorInfoFg, true, false, "Signed in as "+account)
	return arr.MustSeal()[0]
}
