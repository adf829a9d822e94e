package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AggregateRequest struct {
	PeriodStart     string `json:"period_start"      validate:"required,datetime=2006-01-02"`
	PeriodEnd       string `json:"period_end"        validate:"required,datetime=2006-01-02"`
	RequireNonEmpty bool   `json:"require_non_empty"`
}

// BatchLiquidationRequest liquidates one calendar month for many properties.
// An empty PropertyIDs means every property with an active billing config.
type BatchLiquidationRequest struct {
	Year        int      `json:"year"         validate:"required,min=2000,max=2100"`
	Month       int      `json:"month"        validate:"required,min=1,max=12"`
	PropertyIDs []string `json:"property_ids" validate:"omitempty,dive,uuid"`
}

// BulkDeleteRequest selects reservations or expenses of one month, one year, or all.
type BulkDeleteRequest struct {
	Year      int  `form:"year"       json:"year"       validate:"omitempty,min=2000,max=2100"`
	Month     int  `form:"month"      json:"month"      validate:"omitempty,min=1,max=12"`
	DeleteAll bool `form:"delete_all" json:"delete_all"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LiquidationResponse struct {
	ID                   string          `json:"id"`
	PropertyID           string          `json:"property_id"`
	PeriodStart          string          `json:"period_start"`
	PeriodEnd            string          `json:"period_end"`
	TotalGross           decimal.Decimal `json:"total_gross"`
	TotalCommission      decimal.Decimal `json:"total_commission"`
	TotalCommissionVat   decimal.Decimal `json:"total_commission_vat"`
	TotalManagerCleaning decimal.Decimal `json:"total_manager_cleaning"`
	TotalOwnerCleaning   decimal.Decimal `json:"total_owner_cleaning"`
	TotalRetention       decimal.Decimal `json:"total_retention"`
	TotalOwnerNet        decimal.Decimal `json:"total_owner_net"`
	TotalOwnerExpenses   decimal.Decimal `json:"total_owner_expenses"`
	TotalManagerExpenses decimal.Decimal `json:"total_manager_expenses"`
	NetPayable           decimal.Decimal `json:"net_payable"`
	ReservationCount     int             `json:"reservation_count"`
	ExpenseCount         int             `json:"expense_count"`
	Status               string          `json:"status"`
	InvoiceID            *string         `json:"invoice_id"`
	CreatedAt            string          `json:"created_at"`
}

type ReservationBreakdown struct {
	ReservationID     string          `json:"reservation_id"`
	ConfirmationCode  string          `json:"confirmation_code"`
	GuestName         string          `json:"guest_name"`
	CheckIn           string          `json:"check_in"`
	CheckOut          string          `json:"check_out"`
	Platform          string          `json:"platform"`
	Gross             decimal.Decimal `json:"gross"`
	GrossApproximated bool            `json:"gross_approximated"`
	Commission        decimal.Decimal `json:"commission"`
	CommissionVat     decimal.Decimal `json:"commission_vat"`
	ManagerCleaning   decimal.Decimal `json:"manager_cleaning"`
	OwnerCleaning     decimal.Decimal `json:"owner_cleaning"`
	Retention         decimal.Decimal `json:"retention"`
	OwnerPayable      decimal.Decimal `json:"owner_payable"`
}

type LiquidationDetailResponse struct {
	LiquidationResponse
	Reservations []ReservationBreakdown `json:"reservations"`
	Expenses     []ExpenseResponse      `json:"expenses"`
}

type BatchLiquidationResult struct {
	PropertyID    string  `json:"property_id"`
	LiquidationID *string `json:"liquidation_id,omitempty"`
	Error         string  `json:"error,omitempty"`
}

type BulkDeleteDetails struct {
	Invoiced      int `json:"invoiced"`
	InLiquidation int `json:"in_liquidation"`
}

type BulkDeleteResult struct {
	Deleted int               `json:"deleted"`
	Skipped int               `json:"skipped"`
	Details BulkDeleteDetails `json:"details"`
}
