package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Owner types. Retention is withheld on COMPANY owners.
const (
	OwnerIndividual = "INDIVIDUAL"
	OwnerCompany    = "COMPANY"
)

// PropertyOwner receives the liquidation and the invoice.
type PropertyOwner struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	TaxID     *string   `gorm:"type:varchar(30)"`
	Email     *string
	Type      string `gorm:"type:varchar(20);not null;default:'INDIVIDUAL'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *PropertyOwner) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Property is a managed rental unit.
type Property struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"not null;index"`
	OwnerID   *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Owner *PropertyOwner `gorm:"foreignKey:OwnerID"`
}

func (p *Property) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Commission / cleaning computation types.
const (
	RatePercentage = "PERCENTAGE"
	RateFixed      = "FIXED"
)

// Cleaning fee recipients.
const (
	CleaningToOwner   = "OWNER"
	CleaningToManager = "MANAGER"
	CleaningSplit     = "SPLIT"
)

// How gross is rebuilt when only net host earnings were imported.
const (
	NetGrossReportedFees = "REPORTED_FEES" // hostEarnings + reported platform fee
	NetGrossHostEarnings = "HOST_EARNINGS" // hostEarnings only
)

// Invoice detail levels.
const (
	DetailSummary  = "SUMMARY"
	DetailDetailed = "DETAILED"
)

// PropertyBillingConfig is the ruleset used for every money computation on a property.
// Invariant: CleaningFeeRecipient=SPLIT ⇒ CleaningFeeSplitPct != nil && 0 <= pct <= 100.
type PropertyBillingConfig struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	PropertyID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	OwnerID              *uuid.UUID       `gorm:"type:uuid"`
	CommissionType       string           `gorm:"type:varchar(20);not null"`
	CommissionValue      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	CommissionVat        decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0"`
	CleaningType         string           `gorm:"type:varchar(20);not null;default:'FIXED'"`
	CleaningValue        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	CleaningFeeRecipient string           `gorm:"type:varchar(20);not null;default:'OWNER'"`
	CleaningFeeSplitPct  *decimal.Decimal `gorm:"type:decimal(5,2)"`
	// CleaningIncludedInRoomTotal is false when the platform reports the
	// cleaning fee on top of the room total.
	CleaningIncludedInRoomTotal bool            `gorm:"not null"`
	IncomeReceiver              string          `gorm:"type:varchar(20);not null;default:'MANAGER'"`
	DefaultVatRate              decimal.Decimal `gorm:"type:decimal(5,2);not null;default:21"`
	DefaultRetentionRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	InvoiceDetailLevel          string          `gorm:"type:varchar(20);not null;default:'SUMMARY'"`
	NetGrossStrategy            string          `gorm:"type:varchar(20);not null;default:'REPORTED_FEES'"`
	InvoiceSeriesID             *uuid.UUID      `gorm:"type:uuid"`
	// Alias lists: raw names used by each platform for this property
	AirbnbNames  datatypes.JSON `gorm:"type:jsonb"`
	BookingNames datatypes.JSON `gorm:"type:jsonb"`
	VrboNames    datatypes.JSON `gorm:"type:jsonb"`
	Active       bool           `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Property *Property `gorm:"foreignKey:PropertyID"`
}

func (c *PropertyBillingConfig) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
