package dto

import (
	"itineramio/internal/importer"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ImportRequest carries a CSV already split into cells. Either Mapping+Config
// or TemplateID must be given; inline values win over the template.
type ImportRequest struct {
	Rows           [][]string              `json:"rows"            validate:"required"`
	Mapping        *importer.ColumnMapping `json:"mapping"`
	Config         *importer.ImportConfig  `json:"config"`
	TemplateID     *string                 `json:"template_id"     validate:"omitempty,uuid"`
	HasHeader      *bool                   `json:"has_header"`
	SkipDuplicates bool                    `json:"skip_duplicates"`
	MaxRows        int                     `json:"max_rows"        validate:"min=0"`
	MaxErrors      int                     `json:"max_errors"      validate:"min=0"`
}

// ParsedEmailReservation is the output shape of the external email parser.
// HostEarnings set means the email reported a payout (NET); otherwise
// RoomTotal is read as the guest-paid total (GROSS).
type ParsedEmailReservation struct {
	PropertyName     string           `json:"property_name"     validate:"required"`
	Platform         string           `json:"platform"          validate:"required,max=20"`
	ConfirmationCode string           `json:"confirmation_code"`
	GuestName        string           `json:"guest_name"`
	CheckIn          string           `json:"check_in"`
	CheckOut         string           `json:"check_out"`
	Nights           *int             `json:"nights"`
	RoomTotal        *decimal.Decimal `json:"room_total"`
	CleaningFee      *decimal.Decimal `json:"cleaning_fee"`
	HostServiceFee   *decimal.Decimal `json:"host_service_fee"`
	HostEarnings     *decimal.Decimal `json:"host_earnings"`
	Currency         string           `json:"currency"`
	Status           string           `json:"status"`
}

type EmailIngestRequest struct {
	Reservations []ParsedEmailReservation `json:"reservations" validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ImportRowError struct {
	Row   int      `json:"row"`
	Error string   `json:"error"`
	Data  []string `json:"data,omitempty"`
}

// ImportReport always satisfies ImportedCount + SkippedCount + ErrorCount == TotalRows.
type ImportReport struct {
	TotalRows     int              `json:"total_rows"`
	ImportedCount int              `json:"imported_count"`
	SkippedCount  int              `json:"skipped_count"`
	ErrorCount    int              `json:"error_count"`
	Errors        []ImportRowError `json:"errors"`
	Truncated     bool             `json:"truncated"`
}

// Email ingest outcomes.
const (
	IngestImported = "imported"
	IngestSkipped  = "skipped"
	IngestRejected = "rejected"
)

type EmailIngestResult struct {
	Outcome       string   `json:"outcome"`
	PropertyID    string   `json:"property_id,omitempty"`
	ReservationID string   `json:"reservation_id,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

type JobAcceptedResponse struct {
	Queued int    `json:"queued"`
	Queue  string `json:"queue"`
}

// ─── Import templates ────────────────────────────────────────────────────────

type ImportTemplateRequest struct {
	Name      string                 `json:"name"       validate:"required,max=120"`
	Mapping   importer.ColumnMapping `json:"mapping"`
	Config    importer.ImportConfig  `json:"config"`
	HasHeader bool                   `json:"has_header"`
}

type ImportTemplateResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Platform  string                 `json:"platform"`
	Mapping   importer.ColumnMapping `json:"mapping"`
	Config    importer.ImportConfig  `json:"config"`
	HasHeader bool                   `json:"has_header"`
}

type QueueStats struct {
	Pending      int64 `json:"pending"`
	DeadLettered int64 `json:"dead_lettered"`
}
