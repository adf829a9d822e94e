package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type BillingConfigRequest struct {
	OwnerID                     *string          `json:"owner_id"                        validate:"omitempty,uuid"`
	CommissionType              string           `json:"commission_type"                 validate:"required,oneof=PERCENTAGE FIXED"`
	CommissionValue             decimal.Decimal  `json:"commission_value"                validate:"min=0"`
	CommissionVat               decimal.Decimal  `json:"commission_vat"                  validate:"min=0,max=100"`
	CleaningType                string           `json:"cleaning_type"                   validate:"omitempty,oneof=PERCENTAGE FIXED"`
	CleaningValue               decimal.Decimal  `json:"cleaning_value"                  validate:"min=0"`
	CleaningFeeRecipient        string           `json:"cleaning_fee_recipient"          validate:"required,oneof=OWNER MANAGER SPLIT"`
	CleaningFeeSplitPct         *decimal.Decimal `json:"cleaning_fee_split_pct"`
	CleaningIncludedInRoomTotal bool             `json:"cleaning_included_in_room_total"`
	IncomeReceiver              string           `json:"income_receiver"                 validate:"omitempty,oneof=MANAGER OWNER"`
	DefaultVatRate              decimal.Decimal  `json:"default_vat_rate"                validate:"min=0,max=100"`
	DefaultRetentionRate        decimal.Decimal  `json:"default_retention_rate"          validate:"min=0,max=100"`
	InvoiceDetailLevel          string           `json:"invoice_detail_level"            validate:"omitempty,oneof=SUMMARY DETAILED"`
	NetGrossStrategy            string           `json:"net_gross_strategy"              validate:"omitempty,oneof=REPORTED_FEES HOST_EARNINGS"`
	InvoiceSeriesPrefix         string           `json:"invoice_series_prefix"           validate:"omitempty,alphanum,max=20"`
	AirbnbNames                 []string         `json:"airbnb_names"`
	BookingNames                []string         `json:"booking_names"`
	VrboNames                   []string         `json:"vrbo_names"`
	Active                      *bool            `json:"active"`
}

type ExpenseRequest struct {
	Date          string          `json:"date"           validate:"required,datetime=2006-01-02"`
	Concept       string          `json:"concept"        validate:"required,max=200"`
	Category      string          `json:"category"       validate:"omitempty,max=40"`
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	VatAmount     decimal.Decimal `json:"vat_amount"     validate:"min=0"`
	ChargeToOwner *bool           `json:"charge_to_owner"`
	SupplierName  *string         `json:"supplier_name"`
	InvoiceNumber *string         `json:"invoice_number"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BillingConfigResponse struct {
	ID                          string           `json:"id"`
	PropertyID                  string           `json:"property_id"`
	OwnerID                     *string          `json:"owner_id"`
	CommissionType              string           `json:"commission_type"`
	CommissionValue             decimal.Decimal  `json:"commission_value"`
	CommissionVat               decimal.Decimal  `json:"commission_vat"`
	CleaningType                string           `json:"cleaning_type"`
	CleaningValue               decimal.Decimal  `json:"cleaning_value"`
	CleaningFeeRecipient        string           `json:"cleaning_fee_recipient"`
	CleaningFeeSplitPct         *decimal.Decimal `json:"cleaning_fee_split_pct"`
	CleaningIncludedInRoomTotal bool             `json:"cleaning_included_in_room_total"`
	IncomeReceiver              string           `json:"income_receiver"`
	DefaultVatRate              decimal.Decimal  `json:"default_vat_rate"`
	DefaultRetentionRate        decimal.Decimal  `json:"default_retention_rate"`
	InvoiceDetailLevel          string           `json:"invoice_detail_level"`
	NetGrossStrategy            string           `json:"net_gross_strategy"`
	InvoiceSeriesID             *string          `json:"invoice_series_id"`
	AirbnbNames                 []string         `json:"airbnb_names"`
	BookingNames                []string         `json:"booking_names"`
	VrboNames                   []string         `json:"vrbo_names"`
	Active                      bool             `json:"active"`
}

type ExpenseResponse struct {
	ID            string          `json:"id"`
	PropertyID    string          `json:"property_id"`
	Date          string          `json:"date"`
	Concept       string          `json:"concept"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	VatAmount     decimal.Decimal `json:"vat_amount"`
	ChargeToOwner bool            `json:"charge_to_owner"`
	LiquidationID *string         `json:"liquidation_id"`
}
