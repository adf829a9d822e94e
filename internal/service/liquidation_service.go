package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"itineramio/internal/billing"
	"itineramio/internal/dto"
	"itineramio/internal/model"
	"itineramio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LiquidationService interface {
	Aggregate(ctx context.Context, propertyID uuid.UUID, req dto.AggregateRequest) (*dto.LiquidationResponse, error)
	AggregateMonth(ctx context.Context, year, month int, propertyIDs []uuid.UUID) ([]dto.BatchLiquidationResult, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.LiquidationResponse, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]dto.LiquidationResponse, error)
	Breakdown(ctx context.Context, id uuid.UUID) (*dto.LiquidationDetailResponse, error)

	CreateExpense(ctx context.Context, propertyID uuid.UUID, req dto.ExpenseRequest) (*dto.ExpenseResponse, error)
	BulkDeleteReservations(ctx context.Context, propertyID uuid.UUID, req dto.BulkDeleteRequest) (*dto.BulkDeleteResult, error)
	BulkDeleteExpenses(ctx context.Context, propertyID uuid.UUID, req dto.BulkDeleteRequest) (*dto.BulkDeleteResult, error)
}

type liquidationService struct {
	liquidations repository.LiquidationRepository
	reservations repository.ReservationRepository
	expenses     repository.ExpenseRepository
	properties   repository.PropertyRepository
	configs      BillingConfigService
}

func NewLiquidationService(
	liquidations repository.LiquidationRepository,
	reservations repository.ReservationRepository,
	expenses repository.ExpenseRepository,
	properties repository.PropertyRepository,
	configs BillingConfigService,
) LiquidationService {
	return &liquidationService{
		liquidations: liquidations,
		reservations: reservations,
		expenses:     expenses,
		properties:   properties,
		configs:      configs,
	}
}

// ── Aggregate ─────────────────────────────────────────────────────────────────
// One transaction: insert the liquidation, claim what is still free, compute
// over what was actually claimed. Rows taken by a concurrent aggregation are
// left out silently; any error rolls every claim back.

func (s *liquidationService) Aggregate(ctx context.Context, propertyID uuid.UUID, req dto.AggregateRequest) (*dto.LiquidationResponse, error) {
	period, err := periodOf(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configs.Resolve(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	owner, err := s.configs.ResolveOwner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	terms := model.TermsOf(cfg, owner)

	var liq *model.Liquidation
	err = runTx(ctx, s.liquidations.DB(), func(tx *gorm.DB) error {
		var txErr error
		liq, txErr = s.aggregateTx(ctx, tx, propertyID, period, terms, req.RequireNonEmpty)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("liquidation_id", liq.ID.String()).
		Str("property_id", propertyID.String()).
		Int("reservations", liq.ReservationCount).
		Int("expenses", liq.ExpenseCount).
		Str("net_payable", liq.NetPayable.StringFixed(2)).
		Msg("liquidation_service: aggregated")
	return liquidationToResponse(liq), nil
}

func (s *liquidationService) aggregateTx(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	period repository.Period,
	terms model.LiquidationTerms,
	requireNonEmpty bool,
) (*model.Liquidation, error) {
	candidates, err := s.reservations.ListUnclaimedTx(ctx, tx, propertyID, period)
	if err != nil {
		return nil, err
	}
	candidateExpenses, err := s.expenses.ListUnclaimedTx(ctx, tx, propertyID, period)
	if err != nil {
		return nil, err
	}
	if requireNonEmpty && len(candidates) == 0 && len(candidateExpenses) == 0 {
		return nil, billing.ErrEmptyLiquidation
	}

	liq := &model.Liquidation{
		PropertyID:  propertyID,
		PeriodStart: period.From,
		PeriodEnd:   period.To,
		Status:      model.LiquidationGenerated,
	}
	if err := liq.SetTerms(terms); err != nil {
		return nil, err
	}
	if err := s.liquidations.CreateTx(ctx, tx, liq); err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		ids := make([]uuid.UUID, len(candidates))
		for i := range candidates {
			ids[i] = candidates[i].ID
		}
		if _, err := s.reservations.ClaimTx(ctx, tx, ids, liq.ID); err != nil {
			return nil, err
		}
	}
	if len(candidateExpenses) > 0 {
		ids := make([]uuid.UUID, len(candidateExpenses))
		for i := range candidateExpenses {
			ids[i] = candidateExpenses[i].ID
		}
		if _, err := s.expenses.ClaimTx(ctx, tx, ids, liq.ID); err != nil {
			return nil, err
		}
	}

	claimed, err := s.reservations.ListByLiquidationTx(ctx, tx, liq.ID)
	if err != nil {
		return nil, err
	}
	claimedExpenses, err := s.expenses.ListByLiquidationTx(ctx, tx, liq.ID)
	if err != nil {
		return nil, err
	}
	if requireNonEmpty && len(claimed) == 0 && len(claimedExpenses) == 0 {
		return nil, billing.ErrEmptyLiquidation
	}

	cfg := terms.Config(propertyID)
	var totals billing.Totals
	for i := range claimed {
		b, err := billing.Compute(billing.Input{Reservation: &claimed[i], Config: cfg, OwnerType: terms.OwnerType})
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", claimed[i].ID, err)
		}
		totals.Add(b)
	}
	ownerExpenses, managerExpenses := splitExpenses(claimedExpenses)

	liq.TotalGross = totals.Gross
	liq.TotalCommission = totals.Commission
	liq.TotalCommissionVat = totals.CommissionVat
	liq.TotalManagerCleaning = totals.ManagerCleaning
	liq.TotalOwnerCleaning = totals.OwnerCleaning
	liq.TotalRetention = totals.Retention
	liq.TotalOwnerNet = totals.OwnerNet
	liq.TotalOwnerExpenses = ownerExpenses
	liq.TotalManagerExpenses = managerExpenses
	liq.NetPayable = totals.OwnerPayable.Sub(ownerExpenses)
	liq.ReservationCount = totals.Count
	liq.ExpenseCount = len(claimedExpenses)

	if err := s.liquidations.SaveTotalsTx(ctx, tx, liq); err != nil {
		return nil, err
	}
	return liq, nil
}

// splitExpenses sums expense totals (VAT included) by who bears them.
func splitExpenses(list []model.PropertyExpense) (owner, manager decimal.Decimal) {
	for i := range list {
		if list[i].ChargeToOwner {
			owner = owner.Add(list[i].Total())
		} else {
			manager = manager.Add(list[i].Total())
		}
	}
	return owner, manager
}

// AggregateMonth liquidates one calendar month for each property. A failure
// on one property is recorded in its result and the batch goes on.
func (s *liquidationService) AggregateMonth(ctx context.Context, year, month int, propertyIDs []uuid.UUID) ([]dto.BatchLiquidationResult, error) {
	if month < 1 || month > 12 {
		return nil, &billing.ConfigError{Fields: map[string]string{"month": "range_1_12"}}
	}
	if len(propertyIDs) == 0 {
		ids, err := s.configs.ActivePropertyIDs(ctx)
		if err != nil {
			return nil, err
		}
		propertyIDs = ids
	}
	from, to := monthPeriod(year, month)
	req := dto.AggregateRequest{PeriodStart: fmtDay(from), PeriodEnd: fmtDay(to)}

	results := make([]dto.BatchLiquidationResult, 0, len(propertyIDs))
	for _, id := range propertyIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r := dto.BatchLiquidationResult{PropertyID: id.String()}
		liq, err := s.Aggregate(ctx, id, req)
		if err != nil {
			log.Warn().Err(err).Str("property_id", id.String()).Msg("liquidation_service: batch item failed")
			r.Error = err.Error()
		} else {
			r.LiquidationID = &liq.ID
		}
		results = append(results, r)
	}
	return results, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *liquidationService) Get(ctx context.Context, id uuid.UUID) (*dto.LiquidationResponse, error) {
	l, err := s.liquidations.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "liquidation")
	}
	return liquidationToResponse(l), nil
}

func (s *liquidationService) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]dto.LiquidationResponse, error) {
	list, err := s.liquidations.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LiquidationResponse, 0, len(list))
	for i := range list {
		out = append(out, *liquidationToResponse(&list[i]))
	}
	return out, nil
}

// Breakdown replays the per-reservation split of a stored liquidation with the
// terms it was aggregated under, so it always adds up to the stored totals.
func (s *liquidationService) Breakdown(ctx context.Context, id uuid.UUID) (*dto.LiquidationDetailResponse, error) {
	l, err := s.liquidations.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "liquidation")
	}
	terms, err := l.Terms()
	if err != nil {
		return nil, fmt.Errorf("liquidation %s: %w", id, err)
	}
	cfg := terms.Config(l.PropertyID)

	reservations, err := s.reservations.ListByLiquidationTx(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListByLiquidationTx(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	detail := &dto.LiquidationDetailResponse{
		LiquidationResponse: *liquidationToResponse(l),
		Reservations:        make([]dto.ReservationBreakdown, 0, len(reservations)),
		Expenses:            make([]dto.ExpenseResponse, 0, len(expenses)),
	}
	for i := range reservations {
		r := &reservations[i]
		b, err := billing.Compute(billing.Input{Reservation: r, Config: cfg, OwnerType: terms.OwnerType})
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		detail.Reservations = append(detail.Reservations, dto.ReservationBreakdown{
			ReservationID:     r.ID.String(),
			ConfirmationCode:  r.ConfirmationCode,
			GuestName:         r.GuestName,
			CheckIn:           fmtDay(r.CheckIn),
			CheckOut:          fmtDay(r.CheckOut),
			Platform:          r.Platform,
			Gross:             b.Gross,
			GrossApproximated: b.GrossApproximated,
			Commission:        b.Commission,
			CommissionVat:     b.CommissionVat,
			ManagerCleaning:   b.ManagerCleaning,
			OwnerCleaning:     b.OwnerCleaning,
			Retention:         b.Retention,
			OwnerPayable:      b.OwnerPayable,
		})
	}
	for i := range expenses {
		detail.Expenses = append(detail.Expenses, *expenseToResponse(&expenses[i]))
	}
	return detail, nil
}

// ── Expenses ──────────────────────────────────────────────────────────────────

func (s *liquidationService) CreateExpense(ctx context.Context, propertyID uuid.UUID, req dto.ExpenseRequest) (*dto.ExpenseResponse, error) {
	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, notFound(err, "property")
	}
	date, err := parseDay(req.Date)
	if err != nil {
		return nil, &billing.ConfigError{Fields: map[string]string{"date": "datetime"}}
	}
	e := &model.PropertyExpense{
		PropertyID:    propertyID,
		Date:          date,
		Concept:       strings.TrimSpace(req.Concept),
		Category:      strings.ToUpper(orDefault(req.Category, "OTHER")),
		Amount:        req.Amount.Round(2),
		VatAmount:     req.VatAmount.Round(2),
		ChargeToOwner: req.ChargeToOwner == nil || *req.ChargeToOwner,
		SupplierName:  req.SupplierName,
		InvoiceNumber: req.InvoiceNumber,
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, err
	}
	return expenseToResponse(e), nil
}

// ── Bulk delete ───────────────────────────────────────────────────────────────
// Each item is judged on its own: invoiced first, then liquidated, then a
// conditional delete that loses cleanly to a concurrent claim.

func (s *liquidationService) BulkDeleteReservations(ctx context.Context, propertyID uuid.UUID, req dto.BulkDeleteRequest) (*dto.BulkDeleteResult, error) {
	period, err := bulkPeriod(req)
	if err != nil {
		return nil, err
	}
	list, err := s.reservations.ListByProperty(ctx, propertyID, period)
	if err != nil {
		return nil, err
	}

	result := &dto.BulkDeleteResult{}
	err = runTx(ctx, s.reservations.DB(), func(tx *gorm.DB) error {
		for i := range list {
			r := &list[i]
			switch {
			case r.Invoiced:
				result.Skipped++
				result.Details.Invoiced++
			case r.LiquidationID != nil:
				result.Skipped++
				result.Details.InLiquidation++
			default:
				ok, err := s.reservations.DeleteUnlockedTx(ctx, tx, r.ID)
				if err != nil {
					return err
				}
				if ok {
					result.Deleted++
				} else {
					result.Skipped++
					result.Details.InLiquidation++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logBulkDelete("reservations", propertyID, result)
	return result, nil
}

func (s *liquidationService) BulkDeleteExpenses(ctx context.Context, propertyID uuid.UUID, req dto.BulkDeleteRequest) (*dto.BulkDeleteResult, error) {
	period, err := bulkPeriod(req)
	if err != nil {
		return nil, err
	}
	list, err := s.expenses.ListByProperty(ctx, propertyID, period)
	if err != nil {
		return nil, err
	}

	// expenses carry no invoiced flag of their own; their liquidation does
	invoiced := map[uuid.UUID]bool{}
	isInvoiced := func(tx *gorm.DB, id uuid.UUID) (bool, error) {
		if v, ok := invoiced[id]; ok {
			return v, nil
		}
		l, err := s.liquidations.FindByIDTx(ctx, tx, id)
		if err != nil {
			return false, notFound(err, "liquidation")
		}
		invoiced[id] = l.Status == model.LiquidationInvoiced
		return invoiced[id], nil
	}

	result := &dto.BulkDeleteResult{}
	err = runTx(ctx, s.reservations.DB(), func(tx *gorm.DB) error {
		for i := range list {
			e := &list[i]
			if e.LiquidationID != nil {
				inv, err := isInvoiced(tx, *e.LiquidationID)
				if err != nil {
					return err
				}
				result.Skipped++
				if inv {
					result.Details.Invoiced++
				} else {
					result.Details.InLiquidation++
				}
				continue
			}
			ok, err := s.expenses.DeleteUnlockedTx(ctx, tx, e.ID)
			if err != nil {
				return err
			}
			if ok {
				result.Deleted++
			} else {
				result.Skipped++
				result.Details.InLiquidation++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logBulkDelete("expenses", propertyID, result)
	return result, nil
}

func logBulkDelete(kind string, propertyID uuid.UUID, r *dto.BulkDeleteResult) {
	log.Info().
		Str("kind", kind).
		Str("property_id", propertyID.String()).
		Int("deleted", r.Deleted).
		Int("skipped", r.Skipped).
		Int("invoiced", r.Details.Invoiced).
		Int("in_liquidation", r.Details.InLiquidation).
		Msg("liquidation_service: bulk delete")
}

// bulkPeriod turns a delete selector into a date range; nil means everything.
func bulkPeriod(req dto.BulkDeleteRequest) (*repository.Period, error) {
	switch {
	case req.DeleteAll:
		return nil, nil
	case req.Year != 0 && req.Month != 0:
		from, to := monthPeriod(req.Year, req.Month)
		return &repository.Period{From: from, To: to}, nil
	case req.Year != 0:
		from := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &repository.Period{From: from, To: from.AddDate(1, 0, -1)}, nil
	}
	return nil, &billing.ConfigError{Fields: map[string]string{"year": "required_without_delete_all"}}
}

func periodOf(start, end string) (repository.Period, error) {
	from, err := parseDay(start)
	if err != nil {
		return repository.Period{}, &billing.ConfigError{Fields: map[string]string{"period_start": "datetime"}}
	}
	to, err := parseDay(end)
	if err != nil {
		return repository.Period{}, &billing.ConfigError{Fields: map[string]string{"period_end": "datetime"}}
	}
	if to.Before(from) {
		return repository.Period{}, &billing.ConfigError{Fields: map[string]string{"period_end": "gtefield"}}
	}
	return repository.Period{From: from, To: to}, nil
}

func liquidationToResponse(l *model.Liquidation) *dto.LiquidationResponse {
	return &dto.LiquidationResponse{
		ID:                   l.ID.String(),
		PropertyID:           l.PropertyID.String(),
		PeriodStart:          fmtDay(l.PeriodStart),
		PeriodEnd:            fmtDay(l.PeriodEnd),
		TotalGross:           l.TotalGross,
		TotalCommission:      l.TotalCommission,
		TotalCommissionVat:   l.TotalCommissionVat,
		TotalManagerCleaning: l.TotalManagerCleaning,
		TotalOwnerCleaning:   l.TotalOwnerCleaning,
		TotalRetention:       l.TotalRetention,
		TotalOwnerNet:        l.TotalOwnerNet,
		TotalOwnerExpenses:   l.TotalOwnerExpenses,
		TotalManagerExpenses: l.TotalManagerExpenses,
		NetPayable:           l.NetPayable,
		ReservationCount:     l.ReservationCount,
		ExpenseCount:         l.ExpenseCount,
		Status:               l.Status,
		InvoiceID:            uuidPtrString(l.InvoiceID),
		CreatedAt:            l.CreatedAt.Format(time.RFC3339),
	}
}

func expenseToResponse(e *model.PropertyExpense) *dto.ExpenseResponse {
	return &dto.ExpenseResponse{
		ID:            e.ID.String(),
		PropertyID:    e.PropertyID.String(),
		Date:          fmtDay(e.Date),
		Concept:       e.Concept,
		Category:      e.Category,
		Amount:        e.Amount,
		VatAmount:     e.VatAmount,
		ChargeToOwner: e.ChargeToOwner,
		LiquidationID: uuidPtrString(e.LiquidationID),
	}
}
