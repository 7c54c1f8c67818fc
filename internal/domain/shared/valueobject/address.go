package valueobject

import "strings"

// Address represents a shipping destination address
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	// CountryCode is the ISO 3166-1 alpha-2 country code
	CountryCode string `json:"country_code"`
	Residential bool   `json:"residential"`
}

// IsZero returns true if the address carries no data
func (a Address) IsZero() bool {
	return a == Address{}
}

// IsDomestic returns true if the address is in the given home country
func (a Address) IsDomestic(homeCountry string) bool {
	return strings.EqualFold(a.CountryCode, homeCountry)
}

// Validate checks that the address has the minimum required fields
func (a Address) Validate() error {
	if a.Name == "" {
		return errMissingField("name")
	}
	if a.Street1 == "" {
		return errMissingField("street1")
	}
	if a.City == "" {
		return errMissingField("city")
	}
	if a.CountryCode == "" {
		return errMissingField("country_code")
	}
	return nil
}

// AddressFieldError indicates a required address field is missing
type AddressFieldError struct {
	Field string
}

// Error implements the error interface
func (e *AddressFieldError) Error() string {
	return "address: missing required field " + e.Field
}

func errMissingField(field string) error {
	return &AddressFieldError{Field: field}
}
