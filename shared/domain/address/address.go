// Package address implements the immutable delivery-address value object.
package address

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

var (
	ErrStreetTooLong     = errors.New("address: street must be at most 200 characters")
	ErrCityTooLong       = errors.New("address: city must be at most 100 characters")
	ErrStateTooLong      = errors.New("address: state must be at most 100 characters")
	ErrInvalidPostalCode = errors.New("address: postal code must be exactly 4 digits")
)

const defaultCountry = "Denmark"

// Address is an immutable value object. Construct via New; there are no
// exported setters.
type Address struct {
	street     string
	city       string
	postalCode string
	state      string
	country    string
}

// New validates and constructs an Address. state is optional (pass "").
func New(street, city, postalCode, state, country string) (Address, error) {
	if len(street) > 200 {
		return Address{}, ErrStreetTooLong
	}
	if len(city) > 100 {
		return Address{}, ErrCityTooLong
	}
	if len(state) > 100 {
		return Address{}, ErrStateTooLong
	}
	if !isFourDigits(postalCode) {
		return Address{}, ErrInvalidPostalCode
	}
	if strings.TrimSpace(country) == "" {
		country = defaultCountry
	}
	return Address{
		street:     street,
		city:       city,
		postalCode: postalCode,
		state:      state,
		country:    country,
	}, nil
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (a Address) Street() string     { return a.street }
func (a Address) City() string       { return a.city }
func (a Address) PostalCode() string { return a.postalCode }
func (a Address) State() string      { return a.state }
func (a Address) Country() string    { return a.country }

func (a Address) Equal(o Address) bool {
	return a.street == o.street &&
		a.city == o.city &&
		a.postalCode == o.postalCode &&
		a.state == o.state &&
		a.country == o.country
}

// addressJSON mirrors the wire shape (camelCase per spec.md §6).
type addressJSON struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Street:     a.street,
		City:       a.city,
		PostalCode: a.postalCode,
		State:      a.state,
		Country:    a.country,
	})
}

func (a *Address) UnmarshalJSON(b []byte) error {
	var aj addressJSON
	if err := json.Unmarshal(b, &aj); err != nil {
		return err
	}
	built, err := New(aj.Street, aj.City, aj.PostalCode, aj.State, aj.Country)
	if err != nil {
		return err
	}
	*a = built
	return nil
}
