package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type InvoiceItemRequest struct {
	Concept       string          `json:"concept"        validate:"required,max=200"`
	Description   *string         `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"       validate:"required,gt=0"`
	UnitPrice     decimal.Decimal `json:"unit_price"     validate:"min=0"`
	VatRate       decimal.Decimal `json:"vat_rate"       validate:"min=0,max=100"`
	RetentionRate decimal.Decimal `json:"retention_rate" validate:"min=0,max=100"`
}

type CreateInvoiceRequest struct {
	SeriesPrefix string               `json:"series_prefix" validate:"omitempty,alphanum,max=20"`
	OwnerID      *string              `json:"owner_id"      validate:"omitempty,uuid"`
	PropertyID   *string              `json:"property_id"   validate:"omitempty,uuid"`
	Status       string               `json:"status"        validate:"omitempty,oneof=DRAFT PROFORMA"`
	Currency     string               `json:"currency"      validate:"omitempty,len=3"`
	Notes        *string              `json:"notes"`
	Items        []InvoiceItemRequest `json:"items"         validate:"required,min=1,dive"`
}

type InvoiceFromLiquidationRequest struct {
	SeriesPrefix string  `json:"series_prefix" validate:"omitempty,alphanum,max=20"`
	Status       string  `json:"status"        validate:"omitempty,oneof=DRAFT PROFORMA"`
	Notes        *string `json:"notes"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT PROFORMA ISSUED SENT PAID OVERDUE"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceItemResponse struct {
	Concept       string          `json:"concept"`
	Description   *string         `json:"description,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VatRate       decimal.Decimal `json:"vat_rate"`
	RetentionRate decimal.Decimal `json:"retention_rate"`
	Total         decimal.Decimal `json:"total"`
}

type InvoiceResponse struct {
	ID              string                `json:"id"`
	SeriesID        string                `json:"series_id"`
	Number          *int64                `json:"number"`
	FullNumber      *string               `json:"full_number"`
	OwnerID         *string               `json:"owner_id"`
	PropertyID      *string               `json:"property_id"`
	LiquidationID   *string               `json:"liquidation_id"`
	IssueDate       *string               `json:"issue_date"`
	DueDate         *string               `json:"due_date"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TotalVat        decimal.Decimal       `json:"total_vat"`
	RetentionRate   decimal.Decimal       `json:"retention_rate"`
	RetentionAmount decimal.Decimal       `json:"retention_amount"`
	Total           decimal.Decimal       `json:"total"`
	Currency        string                `json:"currency"`
	Status          string                `json:"status"`
	PublicToken     string                `json:"public_token"`
	PublicURL       string                `json:"public_url,omitempty"`
	AllowedStatuses []string              `json:"allowed_statuses"`
	Notes           *string               `json:"notes,omitempty"`
	Items           []InvoiceItemResponse `json:"items"`
}

// PublicInvoiceResponse is the redacted view served without authentication:
// it carries no internal identifiers.
type PublicInvoiceResponse struct {
	FullNumber      *string               `json:"full_number"`
	Status          string                `json:"status"`
	IssueDate       *string               `json:"issue_date"`
	DueDate         *string               `json:"due_date"`
	OwnerName       string                `json:"owner_name,omitempty"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TotalVat        decimal.Decimal       `json:"total_vat"`
	RetentionAmount decimal.Decimal       `json:"retention_amount"`
	Total           decimal.Decimal       `json:"total"`
	Currency        string                `json:"currency"`
	Items           []InvoiceItemResponse `json:"items"`
}
