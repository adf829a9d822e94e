package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"itineramio/internal/dto"
	"itineramio/internal/service"

	"github.com/rs/zerolog/log"
)

// EmailIngestWorker stores reservations parsed from platform confirmation
// emails. Rejections (unknown alias, invalid data) are final; storage errors
// are returned so the pool retries them.
type EmailIngestWorker struct {
	imports service.ImportService
}

func NewEmailIngestWorker(imports service.ImportService) *EmailIngestWorker {
	return &EmailIngestWorker{imports: imports}
}

func (w *EmailIngestWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload dto.ParsedEmailReservation
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: email payload: %v", ErrPermanent, err)
	}
	res, err := w.imports.IngestParsedEmail(ctx, payload)
	if err != nil {
		return err
	}
	if res.Outcome == dto.IngestRejected {
		log.Warn().
			Str("property_name", payload.PropertyName).
			Str("confirmation_code", payload.ConfirmationCode).
			Strs("errors", res.Errors).
			Msg("email_worker: reservation rejected")
	}
	return nil
}
