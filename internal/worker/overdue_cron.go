package worker

import (
	"context"
	"time"

	"itineramio/internal/service"

	"github.com/rs/zerolog/log"
)

const defaultOverdueInterval = time.Hour

// StartOverdueCron launches a background goroutine that periodically moves
// issued or sent invoices past their due date to OVERDUE. It sweeps once at
// start and respects ctx for graceful shutdown.
func StartOverdueCron(ctx context.Context, invoices service.InvoiceService, interval time.Duration) {
	if interval <= 0 {
		interval = defaultOverdueInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("overdue_cron: started")
		sweepOverdue(ctx, invoices, time.Now())

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("overdue_cron: shutting down")
				return
			case now := <-ticker.C:
				sweepOverdue(ctx, invoices, now)
			}
		}
	}()
}

func sweepOverdue(ctx context.Context, invoices service.InvoiceService, now time.Time) int {
	n, err := invoices.MarkOverdue(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("overdue_cron: sweep failed")
		return 0
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("overdue_cron: invoices marked overdue")
	}
	return n
}
