package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"itineramio/internal/billing"
	"itineramio/internal/config"
	"itineramio/internal/dto"
	"itineramio/internal/model"
	"itineramio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultSeriesPrefix = "F"
	// minTokenLength rejects obviously truncated public links before touching storage.
	minTokenLength = 32
)

type InvoiceService interface {
	Create(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	CreateFromLiquidation(ctx context.Context, liquidationID uuid.UUID, req dto.InvoiceFromLiquidationRequest) (*dto.InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	GetPublic(ctx context.Context, token string) (*dto.PublicInvoiceResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*dto.InvoiceResponse, error)
	Issue(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	// MarkOverdue moves every ISSUED or SENT invoice whose due date is before now to OVERDUE.
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

type invoiceService struct {
	invoices     repository.InvoiceRepository
	liquidations repository.LiquidationRepository
	reservations repository.ReservationRepository
	details      LiquidationService
	cfg          *config.Config
	now          func() time.Time
}

func NewInvoiceService(
	invoices repository.InvoiceRepository,
	liquidations repository.LiquidationRepository,
	reservations repository.ReservationRepository,
	details LiquidationService,
	cfg *config.Config,
) InvoiceService {
	return &invoiceService{
		invoices:     invoices,
		liquidations: liquidations,
		reservations: reservations,
		details:      details,
		cfg:          cfg,
		now:          time.Now,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *invoiceService) Create(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	series, err := s.invoices.EnsureSeries(ctx, seriesPrefix(req.SeriesPrefix))
	if err != nil {
		return nil, err
	}
	inv := &model.ClientInvoice{
		SeriesID: series.ID,
		Status:   orDefault(req.Status, model.InvoiceDraft),
		Currency: s.currencyOr(req.Currency),
		Notes:    req.Notes,
	}
	if inv.OwnerID, err = parseOptionalID(req.OwnerID, "owner_id"); err != nil {
		return nil, err
	}
	if inv.PropertyID, err = parseOptionalID(req.PropertyID, "property_id"); err != nil {
		return nil, err
	}
	for i, it := range req.Items {
		inv.Items = append(inv.Items, model.InvoiceItem{
			Position:      i + 1,
			Concept:       it.Concept,
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			VatRate:       it.VatRate,
			RetentionRate: it.RetentionRate,
		})
	}
	if err := s.insert(ctx, nil, inv); err != nil {
		return nil, err
	}
	inv.Series = series
	return s.toResponse(inv), nil
}

// CreateFromLiquidation bills the manager's share of a liquidation to the
// owner. The liquidation and its reservations are locked as invoiced in the
// same transaction that stores the invoice.
func (s *invoiceService) CreateFromLiquidation(ctx context.Context, liquidationID uuid.UUID, req dto.InvoiceFromLiquidationRequest) (*dto.InvoiceResponse, error) {
	l, err := s.liquidations.FindByID(ctx, liquidationID)
	if err != nil {
		return nil, notFound(err, "liquidation")
	}
	if l.Status == model.LiquidationInvoiced {
		return nil, billing.ErrAlreadyInvoiced
	}
	terms, err := l.Terms()
	if err != nil {
		return nil, fmt.Errorf("liquidation %s: %w", l.ID, err)
	}

	series, err := s.seriesFor(ctx, terms.InvoiceSeriesID, req.SeriesPrefix)
	if err != nil {
		return nil, err
	}
	items, err := s.liquidationItems(ctx, l, terms)
	if err != nil {
		return nil, err
	}

	inv := &model.ClientInvoice{
		SeriesID:      series.ID,
		PropertyID:    &l.PropertyID,
		LiquidationID: &l.ID,
		Status:        orDefault(req.Status, model.InvoiceDraft),
		Currency:      s.currencyOr(""),
		Notes:         req.Notes,
		OwnerID:       terms.OwnerID,
		Items:         items,
	}

	err = runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		if err := s.insert(ctx, tx, inv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return billing.ErrAlreadyInvoiced
			}
			return err
		}
		ok, err := s.liquidations.MarkInvoicedTx(ctx, tx, l.ID, inv.ID)
		if err != nil {
			return err
		}
		if !ok {
			return billing.ErrAlreadyInvoiced
		}
		return s.reservations.MarkInvoicedTx(ctx, tx, l.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("invoice_id", inv.ID.String()).
		Str("liquidation_id", l.ID.String()).
		Str("total", inv.Total.StringFixed(2)).
		Msg("invoice_service: invoice from liquidation")
	inv.Series = series
	return s.toResponse(inv), nil
}

// liquidationItems builds the invoice lines from the terms the liquidation was
// aggregated under. SUMMARY bills the commission as a single line; DETAILED
// bills it per reservation. Manager-kept cleaning is always one extra line.
func (s *invoiceService) liquidationItems(ctx context.Context, l *model.Liquidation, terms model.LiquidationTerms) ([]model.InvoiceItem, error) {
	retention := terms.RetentionRate()
	period := fmt.Sprintf("%s / %s", fmtDay(l.PeriodStart), fmtDay(l.PeriodEnd))
	one := decimal.NewFromInt(1)

	var items []model.InvoiceItem
	if terms.InvoiceDetailLevel == model.DetailDetailed && l.ReservationCount > 0 {
		detail, err := s.details.Breakdown(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range detail.Reservations {
			desc := fmt.Sprintf("%s %s (%s - %s)", r.Platform, r.ConfirmationCode, r.CheckIn, r.CheckOut)
			items = append(items, model.InvoiceItem{
				Concept:       "Comision de gestion: " + r.GuestName,
				Description:   &desc,
				Quantity:      one,
				UnitPrice:     r.Commission,
				VatRate:       terms.CommissionVat,
				RetentionRate: retention,
			})
		}
	} else {
		items = append(items, model.InvoiceItem{
			Concept:       "Comision de gestion " + period,
			Quantity:      one,
			UnitPrice:     l.TotalCommission,
			VatRate:       terms.CommissionVat,
			RetentionRate: retention,
		})
	}
	if l.TotalManagerCleaning.IsPositive() {
		items = append(items, model.InvoiceItem{
			Concept:       "Servicio de limpieza " + period,
			Quantity:      one,
			UnitPrice:     l.TotalManagerCleaning,
			VatRate:       terms.DefaultVatRate,
			RetentionRate: retention,
		})
	}
	for i := range items {
		items[i].Position = i + 1
	}
	return items, nil
}

func (s *invoiceService) seriesFor(ctx context.Context, seriesID *uuid.UUID, prefix string) (*model.InvoiceSeries, error) {
	if prefix == "" && seriesID != nil {
		series, err := s.invoices.FindSeries(ctx, *seriesID)
		if err != nil {
			return nil, notFound(err, "invoice series")
		}
		return series, nil
	}
	return s.invoices.EnsureSeries(ctx, seriesPrefix(prefix))
}

// insert fills totals and the public token, then stores the invoice with its items.
func (s *invoiceService) insert(ctx context.Context, tx *gorm.DB, inv *model.ClientInvoice) error {
	if inv.Status != model.InvoiceDraft && inv.Status != model.InvoiceProforma {
		return &billing.InvalidTransitionError{From: model.InvoiceDraft, To: inv.Status}
	}
	t := billing.SumItems(inv.Items)
	inv.Subtotal = t.Subtotal
	inv.TotalVat = t.TotalVat
	inv.RetentionAmount = t.RetentionAmount
	inv.Total = t.Total
	inv.RetentionRate = headerRetention(inv.Items)
	inv.PublicToken = newPublicToken()
	return s.invoices.CreateTx(ctx, tx, inv)
}

// headerRetention is the rate shown on the invoice header: the highest line rate.
func headerRetention(items []model.InvoiceItem) decimal.Decimal {
	rate := decimal.Zero
	for _, it := range items {
		if it.RetentionRate.GreaterThan(rate) {
			rate = it.RetentionRate
		}
	}
	return rate
}

// newPublicToken returns 64 hex characters of random material.
func newPublicToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func (s *invoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*dto.InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	if err := billing.Transition(inv.Status, target); err != nil {
		return nil, err
	}
	ok, err := s.invoices.UpdateStatus(ctx, id, inv.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// someone else moved it first; report against what is stored now
		current, err := s.invoices.FindByID(ctx, id)
		if err != nil {
			return nil, notFound(err, "invoice")
		}
		return nil, &billing.InvalidTransitionError{From: current.Status, To: target}
	}
	log.Info().Str("invoice_id", id.String()).Str("from", inv.Status).Str("to", target).Msg("invoice_service: status changed")
	inv.Status = target
	return s.toResponse(inv), nil
}

// Issue assigns the next number of the invoice's series. The series row is
// held FOR UPDATE until commit, so numbers are gap-free and never reused.
func (s *invoiceService) Issue(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	var issued *model.ClientInvoice
	err := runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		inv, err := s.invoices.FindByIDTx(ctx, tx, id)
		if err != nil {
			return notFound(err, "invoice")
		}
		if err := billing.CanIssue(inv.Status, inv.FullNumber); err != nil {
			return err
		}
		series, err := s.invoices.LockSeriesTx(ctx, tx, inv.SeriesID)
		if err != nil {
			return notFound(err, "invoice series")
		}

		now := s.now().UTC()
		issueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dueDate := issueDate.AddDate(0, 0, s.dueDays())
		year := issueDate.Year()
		n := nextInSeries(series, year)
		full := billing.FormatNumber(series.Prefix, issueDate, n)

		inv.Number = &n
		inv.FullNumber = &full
		inv.Status = model.InvoiceIssued
		inv.IssueDate = &issueDate
		inv.DueDate = &dueDate

		ok, err := s.invoices.IssueTx(ctx, tx, inv)
		if err != nil {
			return err
		}
		if !ok {
			return billing.ErrAlreadyIssued
		}
		if err := s.invoices.AdvanceSeriesTx(ctx, tx, series.ID, max(year, series.Year), n+1); err != nil {
			return err
		}
		inv.Series = series
		issued = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("invoice_id", id.String()).Str("full_number", *issued.FullNumber).Msg("invoice_service: issued")
	return s.toResponse(issued), nil
}

// nextInSeries restarts numbering on the first issue of a new year. A clock
// behind the series year keeps the current counter.
func nextInSeries(series *model.InvoiceSeries, year int) int64 {
	if series.Year != 0 && year > series.Year {
		return 1
	}
	return series.NextNumber
}

func (s *invoiceService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	list, err := s.invoices.ListOverdue(ctx, today)
	if err != nil {
		return 0, err
	}
	moved := 0
	for i := range list {
		inv := &list[i]
		if billing.Transition(inv.Status, model.InvoiceOverdue) != nil {
			continue
		}
		ok, err := s.invoices.UpdateStatus(ctx, inv.ID, inv.Status, model.InvoiceOverdue)
		if err != nil {
			return moved, err
		}
		if ok {
			moved++
		}
	}
	if moved > 0 {
		log.Info().Int("count", moved).Msg("invoice_service: marked overdue")
	}
	return moved, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	return s.toResponse(inv), nil
}

func (s *invoiceService) GetPublic(ctx context.Context, token string) (*dto.PublicInvoiceResponse, error) {
	token = strings.TrimSpace(token)
	if len(token) < minTokenLength {
		return nil, billing.ErrMalformedToken
	}
	inv, err := s.invoices.FindByToken(ctx, token)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	return publicView(inv), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func publicView(inv *model.ClientInvoice) *dto.PublicInvoiceResponse {
	resp := &dto.PublicInvoiceResponse{
		FullNumber:      inv.FullNumber,
		Status:          inv.Status,
		IssueDate:       fmtDayPtr(inv.IssueDate),
		DueDate:         fmtDayPtr(inv.DueDate),
		Subtotal:        inv.Subtotal,
		TotalVat:        inv.TotalVat,
		RetentionAmount: inv.RetentionAmount,
		Total:           inv.Total,
		Currency:        inv.Currency,
		Items:           itemsToResponse(inv.Items),
	}
	if inv.Owner != nil {
		resp.OwnerName = inv.Owner.Name
	}
	return resp
}

func (s *invoiceService) toResponse(inv *model.ClientInvoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:              inv.ID.String(),
		SeriesID:        inv.SeriesID.String(),
		Number:          inv.Number,
		FullNumber:      inv.FullNumber,
		OwnerID:         uuidPtrString(inv.OwnerID),
		PropertyID:      uuidPtrString(inv.PropertyID),
		LiquidationID:   uuidPtrString(inv.LiquidationID),
		IssueDate:       fmtDayPtr(inv.IssueDate),
		DueDate:         fmtDayPtr(inv.DueDate),
		Subtotal:        inv.Subtotal,
		TotalVat:        inv.TotalVat,
		RetentionRate:   inv.RetentionRate,
		RetentionAmount: inv.RetentionAmount,
		Total:           inv.Total,
		Currency:        inv.Currency,
		Status:          inv.Status,
		PublicToken:     inv.PublicToken,
		AllowedStatuses: billing.AllowedTargets(inv.Status),
		Notes:           inv.Notes,
		Items:           itemsToResponse(inv.Items),
	}
	if s.cfg != nil && s.cfg.PublicBaseURL != "" {
		resp.PublicURL = strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/public/invoices/" + inv.PublicToken
	}
	return resp
}

func itemsToResponse(items []model.InvoiceItem) []dto.InvoiceItemResponse {
	out := make([]dto.InvoiceItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.InvoiceItemResponse{
			Concept:       it.Concept,
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			VatRate:       it.VatRate,
			RetentionRate: it.RetentionRate,
			Total:         it.Total,
		})
	}
	return out
}

func (s *invoiceService) dueDays() int {
	if s.cfg != nil && s.cfg.InvoiceDueDays > 0 {
		return s.cfg.InvoiceDueDays
	}
	return 30
}

func (s *invoiceService) currencyOr(c string) string {
	if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
		return c
	}
	if s.cfg != nil && s.cfg.DefaultCurrency != "" {
		return s.cfg.DefaultCurrency
	}
	return "EUR"
}

func seriesPrefix(p string) string {
	return strings.ToUpper(orDefault(strings.TrimSpace(p), defaultSeriesPrefix))
}

func parseOptionalID(s *string, field string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, &billing.ConfigError{Fields: map[string]string{field: "uuid"}}
	}
	return &id, nil
}
