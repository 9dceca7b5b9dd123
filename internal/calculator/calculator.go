// Package calculator computes signed compliance units for report line items.
// All arithmetic happens in arbitrary-precision decimal; the integer boundary
// is only crossed at the very end.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

// LineKind selects the formula branch for a line item.
type LineKind string

const (
	LineFuelSupply          LineKind = "fuel_supply"
	LineFuelExport          LineKind = "fuel_export"
	LineOtherUses           LineKind = "other_uses"
	LineNotionalTransfer    LineKind = "notional_transfer"
	LineAllocationAgreement LineKind = "allocation_agreement"
)

// LineInput carries one line item's quantity plus the intensities resolved
// for it. AllocationType is only read for allocation-agreement lines.
type LineInput struct {
	Kind           LineKind
	Quantity       decimal.Decimal
	EnergyDensity  decimal.Decimal
	TargetCI       decimal.Decimal
	EER            decimal.Decimal
	EffectiveCI    decimal.Decimal
	UCI            decimal.Decimal
	AllocationType enums.AllocationTransactionType
}

var million = decimal.NewFromInt(1_000_000)

// ComputeUnits returns the signed compliance units for a line. Export lines
// negate the formula, other-use and notional-transfer lines record zero
// units, and allocation-agreement lines carry units only on the
// "Allocated from" side.
func ComputeUnits(in LineInput) (int64, error) {
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidLine, "quantity must be positive").
			WithDetails(map[string]any{"quantity": in.Quantity.String()})
	}

	switch in.Kind {
	case LineOtherUses, LineNotionalTransfer:
		return 0, nil
	case LineAllocationAgreement:
		if in.AllocationType == enums.AllocationAllocatedTo {
			return 0, nil
		}
		return formulaUnits(in, false)
	case LineFuelExport:
		return formulaUnits(in, true)
	case LineFuelSupply:
		return formulaUnits(in, false)
	default:
		return 0, pkgerrors.New(pkgerrors.CodeInvalidLine, "unknown line kind").
			WithDetails(map[string]any{"kind": string(in.Kind)})
	}
}

func formulaUnits(in LineInput, negate bool) (int64, error) {
	if in.EnergyDensity.LessThanOrEqual(decimal.Zero) {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidLine, "energy density must be positive").
			WithDetails(map[string]any{"energy_density": in.EnergyDensity.String()})
	}

	raw := RawUnits(in.Quantity, in.EnergyDensity, in.TargetCI, in.EER, in.EffectiveCI, in.UCI)
	if negate {
		raw = raw.Neg()
	}
	// Truncate toward zero so a fractional surplus never mints a unit and a
	// fractional deficit never owes one.
	return raw.IntPart(), nil
}

// RawUnits evaluates the compliance-unit formula without rounding:
// quantity x density x (targetCI x eer - (effectiveCI + uci)) / 1,000,000.
func RawUnits(quantity, density, targetCI, eer, effectiveCI, uci decimal.Decimal) decimal.Decimal {
	intensityDelta := targetCI.Mul(eer).Sub(effectiveCI.Add(uci))
	return quantity.Mul(density).Mul(intensityDelta).Div(million)
}
