package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OwnerRequest struct {
	Name  string  `json:"name"   validate:"required,max=200"`
	TaxID *string `json:"tax_id" validate:"omitempty,max=30"`
	Email *string `json:"email"  validate:"omitempty,email"`
	Type  string  `json:"type"   validate:"omitempty,oneof=INDIVIDUAL COMPANY"`
}

type PropertyRequest struct {
	Name    string  `json:"name"     validate:"required,max=200"`
	OwnerID *string `json:"owner_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OwnerResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	TaxID *string `json:"tax_id"`
	Email *string `json:"email"`
	Type  string  `json:"type"`
}

type PropertyResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	OwnerID *string `json:"owner_id"`
}
