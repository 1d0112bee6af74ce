package crypto

import (
	"errors"
	"strings"
)

var ErrInvalidIBAN = errors.New("invalid IBAN")

// ibanLengths lists the countries EFT senders are accepted from.
var ibanLengths = map[string]int{
	"TR": 26,
	"DE": 22,
	"GB": 22,
	"NL": 18,
	"FR": 27,
}

// NormalizeIBAN strips spaces and upper-cases the input.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// ValidateIBAN checks country length and the ISO 13616 mod-97 checksum.
func ValidateIBAN(iban string) error {
	iban = NormalizeIBAN(iban)
	if len(iban) < 4 {
		return ErrInvalidIBAN
	}
	want, ok := ibanLengths[iban[:2]]
	if !ok || len(iban) != want {
		return ErrInvalidIBAN
	}

	// Move the country code and check digits to the end, then reduce
	// digit by digit; letters expand to two digits (A=10 ... Z=35).
	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			remainder = (remainder*100 + v) % 97
		default:
			return ErrInvalidIBAN
		}
	}
	if remainder != 1 {
		return ErrInvalidIBAN
	}
	return nil
}

// MaskIBAN keeps the country code and the last four characters.
func MaskIBAN(iban string) string {
	iban = NormalizeIBAN(iban)
	if len(iban) <= 6 {
		return strings.Repeat("*", len(iban))
	}
	return iban[:2] + strings.Repeat("*", len(iban)-6) + iban[len(iban)-4:]
}
