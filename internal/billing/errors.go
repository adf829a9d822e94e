// Package billing holds the pure money and invoice-status rules shared by the
// liquidation and invoice services. Nothing in here touches storage.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNotConfigured     = errors.New("property has no active billing configuration")
	ErrConfigMissing     = errors.New("billing configuration missing")
	ErrInvalidConfig     = errors.New("invalid billing configuration")
	ErrAliasNotFound     = errors.New("no property matches alias")
	ErrAliasAmbiguous    = errors.New("alias matches more than one property")
	ErrEmptyLiquidation  = errors.New("no reservations or expenses to liquidate in period")
	ErrAlreadyInvoiced   = errors.New("liquidation already invoiced")
	ErrAlreadyIssued     = errors.New("invoice already issued")
	ErrUseIssueEndpoint  = errors.New("use the issue endpoint to move an invoice to ISSUED")
	ErrMalformedToken    = errors.New("malformed public token")
	ErrNotIssuable       = errors.New("only DRAFT or PROFORMA invoices can be issued")
)

// NegativeResultError reports a computed money field that came out negative.
// It signals a misconfigured rate; callers must reject instead of clamping.
type NegativeResultError struct {
	Field string
	Value decimal.Decimal
}

func (e *NegativeResultError) Error() string {
	return fmt.Sprintf("negative %s: %s", e.Field, e.Value.StringFixed(2))
}

// InvalidTransitionError names both ends of a rejected status change.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid invoice transition %s -> %s", e.From, e.To)
}

// ConfigError carries the offending fields of a rejected billing configuration.
// It matches ErrInvalidConfig with errors.Is.
type ConfigError struct {
	Fields map[string]string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid billing configuration: %d field(s)", len(e.Fields))
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }
