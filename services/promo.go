package services

import (
	"fmt"
)

// Flat-rate promo codes. Evaluation never produces a discount below zero
// or above the item subtotal.
var promoCodes = map[string]float64{
	"CANTEEN10": 10,
	"CANTEEN25": 25,
	"FIRSTBITE": 40,
}

var ErrUnknownPromo = fmt.Errorf("unknown promo code")

// EvaluatePromo returns the discount for a code against a subtotal.
// An empty code is a zero discount, an unknown code is an error.
func EvaluatePromo(code string, subtotal float64) (float64, error) {
	if code == "" {
		return 0, nil
	}
	discount, ok := promoCodes[code]
	if !ok {
		return 0, ErrUnknownPromo
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}
