package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"itineramio/internal/billing"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notFound folds gorm's record-not-found into billing.ErrNotFound so handlers
// only need to know one sentinel.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, billing.ErrNotFound)
	}
	return err
}

const dateLayout = "2006-01-02"

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func fmtDay(t time.Time) string { return t.UTC().Format(dateLayout) }

func fmtDayPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtDay(*t)
	return &s
}

// monthPeriod returns the first and last day of year/month.
func monthPeriod(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, -1)
}
