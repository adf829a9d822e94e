package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Platform identifies where a booking was made.
const (
	PlatformAirbnb  = "AIRBNB"
	PlatformBooking = "BOOKING"
	PlatformVrbo    = "VRBO"
	PlatformDirect  = "DIRECT"
	PlatformOther   = "OTHER"
)

// Import sources.
const (
	SourceCSV    = "CSV"
	SourceEmail  = "EMAIL"
	SourceManual = "MANUAL"
)

// Reservation status.
const (
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// Amount types: how the imported "amount" column must be read.
const (
	AmountNet   = "NET"   // host earnings reported by the platform
	AmountGross = "GROSS" // total paid by the guest
)

// Reservation is the canonical unit of a guest stay.
// Once LiquidationID is set or Invoiced is true the row is frozen: only the
// liquidation claim and the invoice stamp ever write to it after insert.
type Reservation struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	PropertyID       uuid.UUID `gorm:"type:uuid;not null;index"`
	BillingConfigID  uuid.UUID `gorm:"type:uuid;not null"`
	ConfirmationCode string    `gorm:"type:varchar(64);index"`
	GuestName        string    `gorm:"not null"`
	CheckIn          time.Time `gorm:"type:date;not null;index"`
	CheckOut         time.Time `gorm:"type:date;not null"`
	Nights           int       `gorm:"not null"`
	Platform         string    `gorm:"type:varchar(20);not null"`
	RoomTotal        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CleaningFee      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// HostServiceFee is the commission/fee as reported by the platform export
	HostServiceFee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	HostEarnings   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	AmountType     string          `gorm:"type:varchar(10);not null"`
	ImportSource   string          `gorm:"type:varchar(10);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'CONFIRMED'"`
	// SourceRow is the spreadsheet row the record came from (0 for non-CSV sources)
	SourceRow     int
	LiquidationID *uuid.UUID `gorm:"type:uuid;index"`
	Invoiced      bool       `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Reservation) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Locked reports whether the reservation is excluded from aggregation and deletion.
func (r *Reservation) Locked() bool {
	return r.LiquidationID != nil || r.Invoiced
}

// RequiresConfirmationCode reports whether bookings on platform always carry a code.
func RequiresConfirmationCode(platform string) bool {
	switch platform {
	case PlatformAirbnb, PlatformBooking, PlatformVrbo:
		return true
	}
	return false
}

// ValidPlatform reports whether p is one of the known platforms.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformAirbnb, PlatformBooking, PlatformVrbo, PlatformDirect, PlatformOther:
		return true
	}
	return false
}
