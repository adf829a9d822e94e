package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PropertyExpense is an operating cost attached to a property.
// ChargeToOwner=true deducts Amount+VatAmount from the owner's liquidation.
// Like Reservation, it is frozen once LiquidationID is set.
type PropertyExpense struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date          time.Time       `gorm:"type:date;not null;index"`
	Concept       string          `gorm:"not null"`
	Category      string          `gorm:"type:varchar(40);not null;default:'OTHER'"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VatAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ChargeToOwner bool            `gorm:"not null"`
	SupplierName  *string
	InvoiceNumber *string    `gorm:"type:varchar(60)"`
	LiquidationID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (e *PropertyExpense) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Total is the amount charged for the expense, VAT included.
func (e *PropertyExpense) Total() decimal.Decimal {
	return e.Amount.Add(e.VatAmount)
}
