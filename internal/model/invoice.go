package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice status values. Transitions are enforced by billing.Transition.
const (
	InvoiceDraft    = "DRAFT"
	InvoiceProforma = "PROFORMA"
	InvoiceIssued   = "ISSUED"
	InvoiceSent     = "SENT"
	InvoicePaid     = "PAID"
	InvoiceOverdue  = "OVERDUE"
)

// InvoiceSeries is the numbering source for issued invoices. The counter
// restarts at 1 with each calendar year; within a year it only moves forward.
// Year is 0 until the first invoice of the series is issued.
type InvoiceSeries struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix     string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Year       int       `gorm:"not null;default:0"`
	NextNumber int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s *InvoiceSeries) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ClientInvoice is the formal billing document sent to a property owner.
// FullNumber stays nil until the invoice is issued and never changes afterwards.
type ClientInvoice struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SeriesID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_series_number"`
	Number          *int64          `gorm:""`
	FullNumber      *string         `gorm:"type:varchar(40);uniqueIndex:idx_invoice_series_number"`
	OwnerID         *uuid.UUID      `gorm:"type:uuid;index"`
	PropertyID      *uuid.UUID      `gorm:"type:uuid;index"`
	LiquidationID   *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	IssueDate       *time.Time      `gorm:"type:date"`
	DueDate         *time.Time      `gorm:"type:date"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalVat        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RetentionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	RetentionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	Status          string          `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	PublicToken     string          `gorm:"type:varchar(80);not null;uniqueIndex"`
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items  []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Series *InvoiceSeries  `gorm:"foreignKey:SeriesID"`
	Owner  *PropertyOwner  `gorm:"foreignKey:OwnerID"`
}

func (i *ClientInvoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceItem is one line of a ClientInvoice. Total = Quantity × UnitPrice (VAT excluded).
type InvoiceItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Position      int             `gorm:"not null;default:0"`
	Concept       string          `gorm:"not null"`
	Description   *string
	Quantity      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:1"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VatRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	RetentionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (it *InvoiceItem) BeforeCreate(_ *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}
