package billing

import (
	"errors"
	"fmt"

	"itineramio/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Input is everything Compute needs for one reservation.
type Input struct {
	Reservation *model.Reservation
	Config      *model.PropertyBillingConfig
	// OwnerType decides retention eligibility (only COMPANY owners are withheld).
	OwnerType string
}

// Breakdown is the per-reservation money split. Every field is rounded to
// cents, and the parts always add back to Gross:
//
//	Commission + CommissionVat + ManagerCleaning + OwnerCleaning + Retention + OwnerNet == Gross
type Breakdown struct {
	Gross decimal.Decimal
	// GrossApproximated is set when gross was rebuilt from NET host earnings.
	GrossApproximated bool
	CleaningFee       decimal.Decimal
	Commission        decimal.Decimal
	CommissionVat     decimal.Decimal
	ManagerCleaning   decimal.Decimal
	OwnerCleaning     decimal.Decimal
	Retention         decimal.Decimal
	// OwnerNet is what is left of gross after every deduction and both cleaning shares.
	OwnerNet decimal.Decimal
	// OwnerPayable is what the owner receives for the stay: OwnerNet plus the owner's cleaning share.
	OwnerPayable decimal.Decimal
}

// round2 rounds half away from zero to the currency minor unit.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

func pct(base, rate decimal.Decimal) decimal.Decimal {
	return round2(base.Mul(rate).Div(hundred))
}

// Compute turns one reservation and its billing configuration into a Breakdown.
// It never clamps: a negative intermediate is returned as *NegativeResultError.
func Compute(in Input) (Breakdown, error) {
	var b Breakdown
	cfg := in.Config
	if cfg == nil {
		return b, ErrConfigMissing
	}
	r := in.Reservation
	if r == nil {
		return b, errors.New("billing: nil reservation")
	}

	b.Gross, b.GrossApproximated = grossOf(r, cfg)
	if b.Gross.IsNegative() {
		return b, &NegativeResultError{Field: "gross", Value: b.Gross}
	}

	b.CleaningFee = cleaningFeeOf(r, cfg, b.Gross)
	if b.CleaningFee.IsNegative() {
		return b, &NegativeResultError{Field: "cleaningFee", Value: b.CleaningFee}
	}

	if cfg.CommissionValue.IsNegative() {
		return b, &NegativeResultError{Field: "commissionValue", Value: cfg.CommissionValue}
	}
	switch cfg.CommissionType {
	case model.RatePercentage:
		b.Commission = pct(b.Gross, cfg.CommissionValue)
	case model.RateFixed:
		b.Commission = decimal.Min(round2(cfg.CommissionValue), b.Gross)
	default:
		return b, fmt.Errorf("%w: commission type %q", ErrInvalidConfig, cfg.CommissionType)
	}
	b.CommissionVat = pct(b.Commission, cfg.CommissionVat)

	switch cfg.CleaningFeeRecipient {
	case model.CleaningToOwner:
		b.OwnerCleaning = b.CleaningFee
	case model.CleaningToManager:
		b.ManagerCleaning = b.CleaningFee
	case model.CleaningSplit:
		if cfg.CleaningFeeSplitPct == nil {
			return b, fmt.Errorf("%w: SPLIT without cleaning split percentage", ErrInvalidConfig)
		}
		split := *cfg.CleaningFeeSplitPct
		if split.IsNegative() || split.GreaterThan(hundred) {
			return b, fmt.Errorf("%w: cleaning split percentage %s out of range", ErrInvalidConfig, split)
		}
		// manager share first, owner takes the remainder so the two always sum to the fee
		b.ManagerCleaning = pct(b.CleaningFee, split)
		b.OwnerCleaning = b.CleaningFee.Sub(b.ManagerCleaning)
	default:
		return b, fmt.Errorf("%w: cleaning fee recipient %q", ErrInvalidConfig, cfg.CleaningFeeRecipient)
	}

	if in.OwnerType == model.OwnerCompany {
		b.Retention = pct(b.Gross, cfg.DefaultRetentionRate)
	} else {
		b.Retention = decimal.Zero
	}

	b.OwnerNet = b.Gross.
		Sub(b.Commission).
		Sub(b.CommissionVat).
		Sub(b.ManagerCleaning).
		Sub(b.OwnerCleaning).
		Sub(b.Retention)
	b.OwnerPayable = b.OwnerNet.Add(b.OwnerCleaning)
	if b.OwnerPayable.IsNegative() {
		return b, &NegativeResultError{Field: "ownerPayable", Value: b.OwnerPayable}
	}
	return b, nil
}

// grossOf rebuilds the guest-paid total. NET imports only know what the
// platform paid out, so their gross is always flagged as approximated.
func grossOf(r *model.Reservation, cfg *model.PropertyBillingConfig) (decimal.Decimal, bool) {
	if r.AmountType == model.AmountNet {
		if cfg.NetGrossStrategy != model.NetGrossHostEarnings && !r.HostServiceFee.IsZero() {
			return round2(r.HostEarnings.Add(r.HostServiceFee)), true
		}
		return round2(r.HostEarnings), true
	}
	gross := r.RoomTotal
	if !cfg.CleaningIncludedInRoomTotal {
		gross = gross.Add(r.CleaningFee)
	}
	return round2(gross), false
}

// cleaningFeeOf prefers the configured fee over the one reported by the platform.
func cleaningFeeOf(r *model.Reservation, cfg *model.PropertyBillingConfig, gross decimal.Decimal) decimal.Decimal {
	if cfg.CleaningValue.IsPositive() {
		switch cfg.CleaningType {
		case model.RateFixed:
			return round2(cfg.CleaningValue)
		case model.RatePercentage:
			return pct(gross, cfg.CleaningValue)
		}
	}
	return round2(r.CleaningFee)
}

// Totals accumulates rounded breakdowns. Rounding happens only at the leaves,
// so a running total is never rounded again.
type Totals struct {
	Gross           decimal.Decimal
	Commission      decimal.Decimal
	CommissionVat   decimal.Decimal
	ManagerCleaning decimal.Decimal
	OwnerCleaning   decimal.Decimal
	Retention       decimal.Decimal
	OwnerNet        decimal.Decimal
	OwnerPayable    decimal.Decimal
	Count           int
}

func (t *Totals) Add(b Breakdown) {
	t.Gross = t.Gross.Add(b.Gross)
	t.Commission = t.Commission.Add(b.Commission)
	t.CommissionVat = t.CommissionVat.Add(b.CommissionVat)
	t.ManagerCleaning = t.ManagerCleaning.Add(b.ManagerCleaning)
	t.OwnerCleaning = t.OwnerCleaning.Add(b.OwnerCleaning)
	t.Retention = t.Retention.Add(b.Retention)
	t.OwnerNet = t.OwnerNet.Add(b.OwnerNet)
	t.OwnerPayable = t.OwnerPayable.Add(b.OwnerPayable)
	t.Count++
}
