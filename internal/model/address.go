package model

import (
	"regexp"
	"strings"
)

var postalCodePattern = regexp.MustCompile(`^\d{8}$`)

// Address is a delivery address captured during checkout. It is never persisted.
type Address struct {
	PostalCode string `json:"cep"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// NormalisePostalCode strips the conventional "00000-000" separator and surrounding spaces.
func NormalisePostalCode(cep string) string {
	return strings.ReplaceAll(strings.TrimSpace(cep), "-", "")
}

// ValidPostalCode reports whether cep is exactly eight digits.
func ValidPostalCode(cep string) bool {
	return postalCodePattern.MatchString(cep)
}

// Validate checks the address fields required before a shipping quote can be requested.
func (a *Address) Validate() error {
	a.PostalCode = NormalisePostalCode(a.PostalCode)
	if !ValidPostalCode(a.PostalCode) {
		return Validationf("postal code must have 8 digits")
	}
	if len(strings.TrimSpace(a.Street)) < 3 {
		return Validationf("street is required")
	}
	if strings.TrimSpace(a.Number) == "" {
		return Validationf("number is required")
	}
	if len(strings.TrimSpace(a.City)) < 3 {
		return Validationf("city is required")
	}
	if len(strings.TrimSpace(a.State)) < 2 {
		return Validationf("state is required")
	}
	return nil
}
