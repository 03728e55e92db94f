package utils

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomCode returns n upper-case alphanumerics, used for referral codes
// handed out at registration.
func RandomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeCharset[rand.Intn(len(codeCharset))]
	}
	return string(b)
}

// DerivedReferralCode is the code issued to accounts created without one.
func DerivedReferralCode(id uuid.UUID) string {
	return "REF-" + strings.ToUpper(id.String()[:8])
}
