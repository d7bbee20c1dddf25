package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/and161185/autofill-glue/internal/controller"
	"github.com/and161185/autofill-glue/internal/model"
)

// ------- validators -------

var (
	reMonth = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	reYear  = regexp.MustCompile(`^\d{4}$`)
)

func luhn(num string) bool {
	if num == "" {
		return false
	}
	sum, alt := 0, false
	for i := len(num) - 1; i >= 0; i-- {
		c := int(num[i] - '0')
		if c < 0 || c > 9 {
			return false
		}
		if alt {
			c *= 2
			if c > 9 {
				c -= 9
			}
		}
		sum += c
		alt = !alt
	}
	return sum%10 == 0
}

// digits drops the separators people type inside card numbers.
func digits(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

func splitProfile(raw string, n int, layout string) ([]string, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != n {
		return nil, fmt.Errorf("want %q, got %d parts", layout, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

// ------- profiles -------

// parseCard reads "name|number|mm|yyyy" into a card suggestion.
func parseCard(raw string) (controller.Suggestion, error) {
	p, err := splitProfile(raw, 4, "name|number|mm|yyyy")
	if err != nil {
		return controller.Suggestion{}, fmt.Errorf("card: %w", err)
	}
	name, number, mm, yyyy := p[0], digits(p[1]), p[2], p[3]
	switch {
	case name == "":
		return controller.Suggestion{}, errors.New("card: name required")
	case !luhn(number):
		return controller.Suggestion{}, errors.New("card: invalid number")
	case !reMonth.MatchString(mm) || !reYear.MatchString(yyyy):
		return controller.Suggestion{}, errors.New("card: invalid expiry")
	}
	return controller.Suggestion{
		Line1: name,
		Line2: "•••• " + number[len(number)-4:],
		Icon:  controller.CardIcon(number),
		Values: map[model.FieldType]string{
			model.FieldCCName:     name,
			model.FieldCCNumber:   number,
			model.FieldCCExpMonth: mm,
			model.FieldCCExpYear:  yyyy,
		},
	}, nil
}

// parseAddress reads "name|line1|city|zip|country" into an address suggestion.
func parseAddress(raw string) (controller.Suggestion, error) {
	p, err := splitProfile(raw, 5, "name|line1|city|zip|country")
	if err != nil {
		return controller.Suggestion{}, fmt.Errorf("address: %w", err)
	}
	if p[0] == "" || p[1] == "" {
		return controller.Suggestion{}, errors.New("address: name and line1 required")
	}
	line2 := p[1]
	if p[2] != "" {
		line2 += ", " + p[2]
	}
	return controller.Suggestion{
		Line1: p[0],
		Line2: line2,
		Values: map[model.FieldType]string{
			model.FieldName:         p[0],
			model.FieldAddressLine1: p[1],
			model.FieldCity:         p[2],
			model.FieldZip:          p[3],
			model.FieldCountry:      p[4],
		},
	}, nil
}
