package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// GenerateBookingNumber returns a human-readable booking identifier in the
// format BR-YYYY-NNNN. The caller is responsible for verifying uniqueness
// against storage and regenerating on collision.
func GenerateBookingNumber() string {
	year := time.Now().Year()
	return fmt.Sprintf("BR-%d-%04d", year, rand.Intn(10000))
}

// GenerateGuestUsername returns a username for an auto-provisioned guest
// account ("id" plus five random digits).
func GenerateGuestUsername() string {
	return fmt.Sprintf("id%05d", 10000+rand.Intn(90000))
}

// GuestPassword derives the initial password for an auto-provisioned account
// from the guest's name and phone: the first three characters of the name,
// lowercased, followed by the last four phone digits ("1234" when the phone
// is too short).
func GuestPassword(guestName, guestPhone string) string {
	namePart := strings.ToLower(guestName)
	if len([]rune(namePart)) > 3 {
		namePart = string([]rune(namePart)[:3])
	}
	phonePart := PhoneDigits(guestPhone)
	if len(phonePart) >= 4 {
		phonePart = phonePart[len(phonePart)-4:]
	} else {
		phonePart = "1234"
	}
	return namePart + phonePart
}

// PhoneDigits strips every non-digit character from a phone number, so that
// "+7 (912) 345-67-89" and "79123456789" compare equal.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
