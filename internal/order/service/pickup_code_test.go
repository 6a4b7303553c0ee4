package service

import (
	"strconv"
	"testing"
)

func TestPickupCodeRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		code := newPickupCode()
		if len(code) != 6 {
			t.Fatalf("expected 6-digit code, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < pickupCodeMin || n > pickupCodeMax {
			t.Fatalf("code %d outside [%d, %d]", n, pickupCodeMin, pickupCodeMax)
		}
	}
}
