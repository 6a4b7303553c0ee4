package service

import (
	"math/rand/v2"
	"strconv"
)

const (
	pickupCodeMin = 100000
	pickupCodeMax = 999999
)

// newPickupCode draws a 6-digit code in [100000, 999999]. The code is a
// convenience lookup key for store staff, not a security credential, and
// uniqueness across concurrently pending orders is not guaranteed; over an
// hours-to-days validity window the collision probability is accepted.
func newPickupCode() string {
	n := pickupCodeMin + rand.IntN(pickupCodeMax-pickupCodeMin+1)
	return strconv.Itoa(n)
}
