// Package pricing implements unit conversion and tax/discount price arithmetic
// for catalog materials. It is pure: no storage, no I/O.
package pricing

import (
	"fmt"
	"strings"

	"github.com/kirana-pos/kirana/internal/shared"
)

// Discount types.
const (
	DiscountPercent = "PERCENT"
	DiscountFixed   = "FIXED"
)

// Discount describes a price reduction attached to a material.
type Discount struct {
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

// UnitConfig is the unit configuration of a single material: the primary unit
// of account, an optional secondary unit and the secondary-to-primary
// conversion factor.
type UnitConfig struct {
	Primary          string
	Secondary        string
	ConversionFactor float64
}

// ToPrimaryUnit converts qty recorded in unit into the material's primary
// unit. Identity for the primary unit, multiplication by the conversion
// factor for the secondary unit; any other unit is rejected.
func ToPrimaryUnit(cfg UnitConfig, qty float64, unit string) (float64, error) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return 0, fmt.Errorf("%w: unit is required", shared.ErrInvalidArgument)
	}
	if strings.EqualFold(unit, cfg.Primary) {
		return qty, nil
	}
	if cfg.Secondary != "" && strings.EqualFold(unit, cfg.Secondary) {
		if cfg.ConversionFactor <= 0 {
			return 0, fmt.Errorf("%w: conversion factor must be positive", shared.ErrInvalidArgument)
		}
		return qty * cfg.ConversionFactor, nil
	}
	return 0, fmt.Errorf("%w: unit %q not recognised for this material", shared.ErrInvalidArgument, unit)
}

// DisplayPrice resolves the price to show for a rate configured with or
// without tax. includeTax reports how the stored rate is configured;
// wantInclusive selects whether the caller needs the tax-inclusive or
// tax-exclusive figure. Tax rates are validated at the tax registry boundary;
// the check here is a backstop, not a clamp.
func DisplayPrice(baseRate, taxRatePercent float64, includeTax, wantInclusive bool) (float64, error) {
	if taxRatePercent < 0 || taxRatePercent > 100 {
		return 0, fmt.Errorf("%w: tax rate %.2f outside [0,100]", shared.ErrInvalidArgument, taxRatePercent)
	}
	factor := 1 + taxRatePercent/100
	switch {
	case includeTax && wantInclusive:
		return baseRate, nil
	case includeTax && !wantInclusive:
		return baseRate / factor, nil
	case !includeTax && wantInclusive:
		return baseRate * factor, nil
	default:
		return baseRate, nil
	}
}

// ApplyDiscount applies a FIXED or PERCENT discount to price. The result
// never goes below zero; a zero or absent discount is the identity.
func ApplyDiscount(price float64, d Discount) float64 {
	if d.Amount == 0 {
		return price
	}
	switch d.Type {
	case DiscountFixed:
		out := price - d.Amount
		if out < 0 {
			return 0
		}
		return out
	case DiscountPercent:
		amount := d.Amount
		if amount < 0 {
			amount = 0
		}
		if amount > 100 {
			amount = 100
		}
		out := price * (1 - amount/100)
		if out < 0 {
			return 0
		}
		return out
	default:
		return price
	}
}
