package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderNumber produces a human-readable order number of the form
// ORD-YYYYMMDD-HHMMSS-XXXXXX. The random suffix makes collisions within the
// same second unlikely; the orders table additionally carries a unique index
// on the column, and callers retry once on conflict.
func GenerateOrderNumber() string {
	now := time.Now()

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the nanosecond clock rather than aborting order
		// creation.
		for i := range suffix {
			suffix[i] = orderNumberAlphabet[(now.Nanosecond()>>uint(i*5))%len(orderNumberAlphabet)]
		}
		return fmt.Sprintf("ORD-%s-%s-%s", now.Format("20060102"), now.Format("150405"), string(suffix))
	}

	for i := range suffix {
		suffix[i] = orderNumberAlphabet[int(suffix[i])%len(orderNumberAlphabet)]
	}

	return fmt.Sprintf("ORD-%s-%s-%s", now.Format("20060102"), now.Format("150405"), string(suffix))
}
