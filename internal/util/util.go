package util

import "strings"

// MaskEmail obscures the local part of an e-mail address for logging,
// keeping the first character and the full domain.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskCoupon obscures a coupon code for logging, showing only the leading
// and trailing characters.
func MaskCoupon(code string) string {
	if len(code) > 8 {
		return code[:4] + "..." + code[len(code)-4:]
	} else if len(code) > 4 {
		return code[:2] + "..." + code[len(code)-2:]
	} else if len(code) > 2 {
		return code[:1] + "..." + code[len(code)-1:]
	}
	return code
}
