package user

import (
	"errors"
	"regexp"
)

var (
	// ErrInvalidFullName signals the name fails the format rule.
	ErrInvalidFullName = errors.New("user: full name must be at least 3 letters, letters and spaces only")
	// ErrInvalidPhone signals the phone is not in international format.
	ErrInvalidPhone = errors.New("user: phone must be '+' followed by 10-15 digits")
)

var (
	fullNameRe = regexp.MustCompile(`^[a-zA-Zа-яА-Я\s]{3,}$`)
	phoneRe    = regexp.MustCompile(`^\+\d{10,15}$`)
)

// ValidateFullName checks a display name: at least 3 characters, Latin or
// Cyrillic letters and spaces only.
func ValidateFullName(name string) error {
	if !fullNameRe.MatchString(name) {
		return ErrInvalidFullName
	}
	return nil
}

// ValidatePhone checks a phone number: '+' followed by 10-15 digits.
func ValidatePhone(phone string) error {
	if !phoneRe.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}
