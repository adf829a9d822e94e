package importer

import (
	"strings"
	"time"

	"itineramio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row-level validation messages.
const (
	ErrMsgMissingGuest     = "missing guestName"
	ErrMsgInvalidCheckIn   = "invalid checkIn"
	ErrMsgInvalidCheckOut  = "invalid checkOut"
	ErrMsgCheckOutOrder    = "checkOut must be after checkIn"
	ErrMsgMissingCode      = "missing confirmationCode"
	ErrMsgMissingAmount    = "missing amount"
	ErrMsgNonNumericAmount = "non-numeric amount"
	ErrMsgNegativeAmount   = "negative amount"
	ErrMsgNonNumericClean  = "non-numeric cleaningFee"
	ErrMsgNegativeClean    = "negative cleaningFee"
	ErrMsgNonNumericComm   = "non-numeric commission"
	ErrMsgNonNumericNights = "non-numeric nights"
	ErrMsgNightsMismatch   = "nights mismatch"
	ErrMsgDuplicate        = "duplicate reservation"
)

// Validated is a candidate that passed every row check and can be persisted.
type Validated struct {
	Row              int
	GuestName        string
	ConfirmationCode string
	CheckIn          time.Time
	CheckOut         time.Time
	Nights           int
	Amount           decimal.Decimal
	CleaningFee      decimal.Decimal
	Commission       decimal.Decimal
	Status           string
	AmountType       string
	Platform         string
}

// Validate checks one candidate. It returns every problem found on the row,
// never just the first, and a zero Validated when the list is non-empty.
func Validate(c Candidate) (Validated, []string) {
	var errs []string

	guest := strings.TrimSpace(c.GuestName)
	if guest == "" {
		errs = append(errs, ErrMsgMissingGuest)
	}
	if c.CheckIn == nil {
		errs = append(errs, ErrMsgInvalidCheckIn)
	}
	if c.CheckOut == nil {
		errs = append(errs, ErrMsgInvalidCheckOut)
	}
	datesOK := c.CheckIn != nil && c.CheckOut != nil
	if datesOK && !c.CheckOut.After(*c.CheckIn) {
		errs = append(errs, ErrMsgCheckOutOrder)
		datesOK = false
	}

	code := strings.TrimSpace(c.ConfirmationCode)
	if code == "" && model.RequiresConfirmationCode(c.Platform) {
		errs = append(errs, ErrMsgMissingCode)
	}

	switch {
	case strings.TrimSpace(c.AmountRaw) == "" && c.Amount == nil:
		errs = append(errs, ErrMsgMissingAmount)
	case c.Amount == nil:
		errs = append(errs, ErrMsgNonNumericAmount)
	case c.Amount.IsNegative():
		errs = append(errs, ErrMsgNegativeAmount)
	}

	cleaning := decimal.Zero
	if c.CleaningFeeRaw != "" || c.CleaningFee != nil {
		switch {
		case c.CleaningFee == nil:
			errs = append(errs, ErrMsgNonNumericClean)
		case c.CleaningFee.IsNegative():
			errs = append(errs, ErrMsgNegativeClean)
		default:
			cleaning = *c.CleaningFee
		}
	}

	commission := decimal.Zero
	if c.CommissionRaw != "" || c.Commission != nil {
		if c.Commission == nil {
			errs = append(errs, ErrMsgNonNumericComm)
		} else {
			// exports list the platform fee either as a charge or as a deduction
			commission = c.Commission.Abs()
		}
	}

	nights := 0
	if datesOK {
		nights = daysBetween(*c.CheckIn, *c.CheckOut)
	}
	if c.NightsRaw != "" || c.Nights != nil {
		switch {
		case c.Nights == nil:
			errs = append(errs, ErrMsgNonNumericNights)
		case datesOK && *c.Nights != nights:
			errs = append(errs, ErrMsgNightsMismatch)
		}
	}

	if len(errs) > 0 {
		return Validated{}, errs
	}
	status := c.Status
	if status == "" {
		status = model.ReservationConfirmed
	}
	return Validated{
		Row:              c.Row,
		GuestName:        guest,
		ConfirmationCode: code,
		CheckIn:          *c.CheckIn,
		CheckOut:         *c.CheckOut,
		Nights:           nights,
		Amount:           *c.Amount,
		CleaningFee:      cleaning,
		Commission:       commission,
		Status:           status,
		AmountType:       c.AmountType,
		Platform:         c.Platform,
	}, nil
}

func daysBetween(in, out time.Time) int {
	a := time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(out.Year(), out.Month(), out.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ToReservation maps a validated row onto the canonical model. The amount
// column lands in RoomTotal for GROSS imports and in HostEarnings for NET ones.
func (v Validated) ToReservation(propertyID, configID uuid.UUID, source, currency string) model.Reservation {
	r := model.Reservation{
		PropertyID:       propertyID,
		BillingConfigID:  configID,
		ConfirmationCode: v.ConfirmationCode,
		GuestName:        v.GuestName,
		CheckIn:          v.CheckIn,
		CheckOut:         v.CheckOut,
		Nights:           v.Nights,
		Platform:         v.Platform,
		CleaningFee:      v.CleaningFee,
		HostServiceFee:   v.Commission,
		Currency:         currency,
		AmountType:       v.AmountType,
		ImportSource:     source,
		Status:           v.Status,
		SourceRow:        v.Row,
	}
	if v.AmountType == model.AmountNet {
		r.HostEarnings = v.Amount
	} else {
		r.RoomTotal = v.Amount
	}
	return r
}
