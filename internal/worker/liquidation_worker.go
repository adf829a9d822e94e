package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"itineramio/internal/dto"
	"itineramio/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LiquidationWorker runs queued monthly liquidation batches. Per-property
// failures (no config, nothing to liquidate) are reported in the log and do
// not fail the job.
type LiquidationWorker struct {
	liquidations service.LiquidationService
}

func NewLiquidationWorker(liquidations service.LiquidationService) *LiquidationWorker {
	return &LiquidationWorker{liquidations: liquidations}
}

func (w *LiquidationWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var req dto.BatchLiquidationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("%w: batch payload: %v", ErrPermanent, err)
	}
	ids := make([]uuid.UUID, 0, len(req.PropertyIDs))
	for _, s := range req.PropertyIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("%w: property id %q", ErrPermanent, s)
		}
		ids = append(ids, id)
	}

	results, err := w.liquidations.AggregateMonth(ctx, req.Year, req.Month, ids)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			log.Warn().Str("property_id", r.PropertyID).Str("error", r.Error).Msg("liquidation_worker: property skipped")
		}
	}
	log.Info().
		Int("year", req.Year).
		Int("month", req.Month).
		Int("properties", len(results)).
		Int("failed", failed).
		Msg("liquidation_worker: batch done")
	return nil
}
