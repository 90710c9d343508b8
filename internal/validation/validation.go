// Package validation holds the field rules shared by signup, admin user and
// store creation, password change and rating submission.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	NameMin     = 20
	NameMax     = 60
	PasswordMin = 8
	PasswordMax = 16
	AddressMax  = 400
	RatingMin   = 1
	RatingMax   = 5
)

// PasswordSymbols is the set of characters that count as "special" in a password.
const PasswordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Client-facing messages.
const (
	MsgName     = "Name must be between 20 and 60 characters."
	MsgEmail    = "Invalid email format."
	MsgPassword = "Password must be 8-16 characters, include at least one uppercase letter and one special character."
	MsgAddress  = "Address cannot exceed 400 characters."
	MsgRating   = "Rating must be a number between 1 and 5."
	MsgRole     = "Invalid role specified."
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Name reports whether name holds 20 to 60 characters.
func Name(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= NameMin && n <= NameMax
}

func Email(email string) bool {
	return emailRe.MatchString(email)
}

// Password reports whether p is 8–16 characters long and contains at least
// one ASCII uppercase letter and one character from PasswordSymbols.
func Password(p string) bool {
	n := utf8.RuneCountInString(p)
	if n < PasswordMin || n > PasswordMax {
		return false
	}
	var upper, symbol bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return upper && symbol
}

// Address accepts an empty address or one of at most 400 characters.
func Address(a string) bool {
	return utf8.RuneCountInString(a) <= AddressMax
}

func Rating(r int) bool {
	return r >= RatingMin && r <= RatingMax
}
