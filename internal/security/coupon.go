package security

import (
	"crypto/rand"
	"fmt"
	"io"
)

// couponPrefix marks club redemption coupons at checkout.
const couponPrefix = "CLUB-"

// couponAlphabet excludes 0/O/1/I/L so codes survive being read aloud or
// typed from a phone screen.
const couponAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// couponRandomLength is the random portion length of a coupon code.
const couponRandomLength = 8

// GenerateCouponCode creates a new human-typeable coupon code.
//
// Codes are random, not sequential; uniqueness is enforced by the caller's
// unique index, with regeneration on collision.
func GenerateCouponCode() (string, error) {
	buf := make([]byte, couponRandomLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("generate coupon code: %w", err)
	}
	for i, b := range buf {
		buf[i] = couponAlphabet[int(b)%len(couponAlphabet)]
	}
	return couponPrefix + string(buf), nil
}
