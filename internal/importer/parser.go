// Package importer turns a raw spreadsheet matrix into typed reservation
// candidates and validates them row by row. It does no I/O: persistence and
// deduplication live in the import service.
package importer

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"itineramio/internal/model"

	"github.com/shopspring/decimal"
)

var ErrInvalidMapping = errors.New("invalid column mapping")

// ColumnMapping maps each semantic field to a zero-based source column.
// The four required fields are plain ints; optional ones are nil when absent.
type ColumnMapping struct {
	GuestName        int  `json:"guestName"`
	CheckIn          int  `json:"checkIn"`
	CheckOut         int  `json:"checkOut"`
	Amount           int  `json:"amount"`
	ConfirmationCode *int `json:"confirmationCode,omitempty"`
	Nights           *int `json:"nights,omitempty"`
	CleaningFee      *int `json:"cleaningFee,omitempty"`
	Commission       *int `json:"commission,omitempty"`
	Status           *int `json:"status,omitempty"`
}

// ImportConfig governs how raw strings are read. It is not stored on the reservation.
type ImportConfig struct {
	DateFormat   string `json:"dateFormat"`
	NumberFormat string `json:"numberFormat"`
	AmountType   string `json:"amountType"`
	Platform     string `json:"platform"`
}

// Check validates the mapping against the header width of the matrix.
func (m ColumnMapping) Check(width int) error {
	required := []struct {
		name string
		idx  int
	}{
		{"guestName", m.GuestName},
		{"checkIn", m.CheckIn},
		{"checkOut", m.CheckOut},
		{"amount", m.Amount},
	}
	for _, f := range required {
		if f.idx < 0 {
			return fmt.Errorf("%w: %s column is required", ErrInvalidMapping, f.name)
		}
		if f.idx >= width {
			return fmt.Errorf("%w: %s column %d out of range (%d columns)", ErrInvalidMapping, f.name, f.idx, width)
		}
	}
	optional := []struct {
		name string
		idx  *int
	}{
		{"confirmationCode", m.ConfirmationCode},
		{"nights", m.Nights},
		{"cleaningFee", m.CleaningFee},
		{"commission", m.Commission},
		{"status", m.Status},
	}
	for _, f := range optional {
		if f.idx == nil {
			continue
		}
		if *f.idx < 0 || *f.idx >= width {
			return fmt.Errorf("%w: %s column %d out of range (%d columns)", ErrInvalidMapping, f.name, *f.idx, width)
		}
	}
	return nil
}

// Check validates the format selectors.
func (c ImportConfig) Check() error {
	if !ValidDateFormat(c.DateFormat) {
		return fmt.Errorf("%w: unsupported date format %q", ErrInvalidMapping, c.DateFormat)
	}
	if !ValidNumberFormat(c.NumberFormat) {
		return fmt.Errorf("%w: unsupported number format %q", ErrInvalidMapping, c.NumberFormat)
	}
	if c.AmountType != model.AmountNet && c.AmountType != model.AmountGross {
		return fmt.Errorf("%w: amount type must be NET or GROSS", ErrInvalidMapping)
	}
	if !model.ValidPlatform(c.Platform) {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidMapping, c.Platform)
	}
	return nil
}

// Candidate is one typed row. Parsed fields are nil when the raw cell could not
// be read; the raw text is kept so the validator can tell "missing" from "invalid".
type Candidate struct {
	Row              int // spreadsheet row, header = 1
	GuestName        string
	CheckIn          *time.Time
	CheckOut         *time.Time
	Amount           *decimal.Decimal
	AmountRaw        string
	ConfirmationCode string
	Nights           *int
	NightsRaw        string
	CleaningFee      *decimal.Decimal
	CleaningFeeRaw   string
	Commission       *decimal.Decimal
	CommissionRaw    string
	Status           string
	AmountType       string
	Platform         string
	Raw              []string
	Blank            bool
}

// Parser yields candidates from a matrix. It keeps no cursor, so every call to
// Candidates starts over and produces the same sequence.
type Parser struct {
	rows      [][]string
	mapping   ColumnMapping
	cfg       ImportConfig
	hasHeader bool
}

func NewParser(rows [][]string, mapping ColumnMapping, cfg ImportConfig, hasHeader bool) (*Parser, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	if err := mapping.Check(width); err != nil {
		return nil, err
	}
	return &Parser{rows: rows, mapping: mapping, cfg: cfg, hasHeader: hasHeader}, nil
}

// Len is the number of data rows.
func (p *Parser) Len() int {
	if p.hasHeader && len(p.rows) > 0 {
		return len(p.rows) - 1
	}
	return len(p.rows)
}

func (p *Parser) Candidates() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		start := 0
		if p.hasHeader {
			start = 1
		}
		for i := start; i < len(p.rows); i++ {
			if !yield(p.parseRow(i+1, p.rows[i])) {
				return
			}
		}
	}
}

func (p *Parser) parseRow(rowNum int, row []string) Candidate {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	opt := func(idx *int) string {
		if idx == nil {
			return ""
		}
		return cell(*idx)
	}

	c := Candidate{
		Row:        rowNum,
		Raw:        row,
		AmountType: p.cfg.AmountType,
		Platform:   p.cfg.Platform,
		Blank:      isBlank(row),
	}
	if c.Blank {
		return c
	}

	c.GuestName = cell(p.mapping.GuestName)
	c.CheckIn = ParseDate(cell(p.mapping.CheckIn), p.cfg.DateFormat)
	c.CheckOut = ParseDate(cell(p.mapping.CheckOut), p.cfg.DateFormat)
	c.AmountRaw = cell(p.mapping.Amount)
	if c.AmountRaw != "" {
		c.Amount = ParseNumber(c.AmountRaw, p.cfg.NumberFormat)
	}
	c.ConfirmationCode = opt(p.mapping.ConfirmationCode)
	c.NightsRaw = opt(p.mapping.Nights)
	if c.NightsRaw != "" {
		if n, err := strconv.Atoi(c.NightsRaw); err == nil {
			c.Nights = &n
		}
	}
	c.CleaningFeeRaw = opt(p.mapping.CleaningFee)
	if c.CleaningFeeRaw != "" {
		c.CleaningFee = ParseNumber(c.CleaningFeeRaw, p.cfg.NumberFormat)
	}
	c.CommissionRaw = opt(p.mapping.Commission)
	if c.CommissionRaw != "" {
		c.Commission = ParseNumber(c.CommissionRaw, p.cfg.NumberFormat)
	}
	c.Status = NormalizeStatus(opt(p.mapping.Status))
	return c
}

// NormalizeStatus maps platform status labels onto CONFIRMED or CANCELLED.
func NormalizeStatus(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if strings.Contains(s, "CANCEL") || strings.Contains(s, "ANULAD") {
		return model.ReservationCancelled
	}
	return model.ReservationConfirmed
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
