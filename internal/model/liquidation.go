package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Liquidation status.
const (
	LiquidationGenerated = "GENERATED"
	LiquidationInvoiced  = "INVOICED"
)

// Liquidation is the settlement of one property for one period.
// Included reservations and expenses point back to it through their
// liquidation_id column; the liquidation itself never stores copies.
type Liquidation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PropertyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`

	TotalGross           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCommission      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCommissionVat   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalManagerCleaning decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalOwnerCleaning   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalRetention       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalOwnerNet        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalOwnerExpenses   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalManagerExpenses decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// NetPayable = Σ owner payable − owner-charged expenses
	NetPayable decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	// AppliedTerms is the LiquidationTerms snapshot the totals were computed with.
	AppliedTerms datatypes.JSON `gorm:"type:jsonb"`

	ReservationCount int        `gorm:"not null;default:0"`
	ExpenseCount     int        `gorm:"not null;default:0"`
	Status           string     `gorm:"type:varchar(20);not null;default:'GENERATED'"`
	InvoiceID        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (l *Liquidation) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

var ErrNoAppliedTerms = errors.New("liquidation has no applied billing terms")

// LiquidationTerms freezes the billing rules in force when a liquidation was
// aggregated. Its breakdown and invoice are always rebuilt from these, never
// from the property's current config.
type LiquidationTerms struct {
	ConfigID                    uuid.UUID        `json:"config_id"`
	OwnerID                     *uuid.UUID       `json:"owner_id,omitempty"`
	OwnerType                   string           `json:"owner_type"`
	CommissionType              string           `json:"commission_type"`
	CommissionValue             decimal.Decimal  `json:"commission_value"`
	CommissionVat               decimal.Decimal  `json:"commission_vat"`
	CleaningType                string           `json:"cleaning_type"`
	CleaningValue               decimal.Decimal  `json:"cleaning_value"`
	CleaningFeeRecipient        string           `json:"cleaning_fee_recipient"`
	CleaningFeeSplitPct         *decimal.Decimal `json:"cleaning_fee_split_pct,omitempty"`
	CleaningIncludedInRoomTotal bool             `json:"cleaning_included_in_room_total"`
	DefaultVatRate              decimal.Decimal  `json:"default_vat_rate"`
	DefaultRetentionRate        decimal.Decimal  `json:"default_retention_rate"`
	InvoiceDetailLevel          string           `json:"invoice_detail_level"`
	NetGrossStrategy            string           `json:"net_gross_strategy"`
	InvoiceSeriesID             *uuid.UUID       `json:"invoice_series_id,omitempty"`
}

// TermsOf snapshots cfg. owner may be nil when no owner is linked.
func TermsOf(cfg *PropertyBillingConfig, owner *PropertyOwner) LiquidationTerms {
	t := LiquidationTerms{
		ConfigID:                    cfg.ID,
		OwnerType:                   OwnerIndividual,
		CommissionType:              cfg.CommissionType,
		CommissionValue:             cfg.CommissionValue,
		CommissionVat:               cfg.CommissionVat,
		CleaningType:                cfg.CleaningType,
		CleaningValue:               cfg.CleaningValue,
		CleaningFeeRecipient:        cfg.CleaningFeeRecipient,
		CleaningFeeSplitPct:         cfg.CleaningFeeSplitPct,
		CleaningIncludedInRoomTotal: cfg.CleaningIncludedInRoomTotal,
		DefaultVatRate:              cfg.DefaultVatRate,
		DefaultRetentionRate:        cfg.DefaultRetentionRate,
		InvoiceDetailLevel:          cfg.InvoiceDetailLevel,
		NetGrossStrategy:            cfg.NetGrossStrategy,
		InvoiceSeriesID:             cfg.InvoiceSeriesID,
	}
	if owner != nil {
		t.OwnerID = &owner.ID
		t.OwnerType = owner.Type
	}
	return t
}

// Config rebuilds the money rules of the snapshot as a billing config.
func (t LiquidationTerms) Config(propertyID uuid.UUID) *PropertyBillingConfig {
	return &PropertyBillingConfig{
		ID:                          t.ConfigID,
		PropertyID:                  propertyID,
		OwnerID:                     t.OwnerID,
		CommissionType:              t.CommissionType,
		CommissionValue:             t.CommissionValue,
		CommissionVat:               t.CommissionVat,
		CleaningType:                t.CleaningType,
		CleaningValue:               t.CleaningValue,
		CleaningFeeRecipient:        t.CleaningFeeRecipient,
		CleaningFeeSplitPct:         t.CleaningFeeSplitPct,
		CleaningIncludedInRoomTotal: t.CleaningIncludedInRoomTotal,
		DefaultVatRate:              t.DefaultVatRate,
		DefaultRetentionRate:        t.DefaultRetentionRate,
		InvoiceDetailLevel:          t.InvoiceDetailLevel,
		NetGrossStrategy:            t.NetGrossStrategy,
		InvoiceSeriesID:             t.InvoiceSeriesID,
		Active:                      true,
	}
}

// RetentionRate is the rate withheld on invoice lines: only COMPANY owners are withheld.
func (t LiquidationTerms) RetentionRate() decimal.Decimal {
	if t.OwnerType == OwnerCompany {
		return t.DefaultRetentionRate
	}
	return decimal.Zero
}

func (l *Liquidation) SetTerms(t LiquidationTerms) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	l.AppliedTerms = datatypes.JSON(raw)
	return nil
}

func (l *Liquidation) Terms() (LiquidationTerms, error) {
	var t LiquidationTerms
	if len(l.AppliedTerms) == 0 {
		return t, ErrNoAppliedTerms
	}
	err := json.Unmarshal(l.AppliedTerms, &t)
	return t, err
}
