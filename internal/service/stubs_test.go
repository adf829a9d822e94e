package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"itineramio/internal/config"
	"itineramio/internal/dto"
	"itineramio/internal/model"
	"itineramio/internal/repository"
	"itineramio/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────
// One mutex guards every table so conditional updates behave like the
// database's row-level compare-and-set.

type memStore struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]model.Reservation
	expenses     map[uuid.UUID]model.PropertyExpense
	liquidations map[uuid.UUID]model.Liquidation
	invoices     map[uuid.UUID]model.ClientInvoice
	series       map[uuid.UUID]model.InvoiceSeries
	properties   map[uuid.UUID]model.Property
	owners       map[uuid.UUID]model.PropertyOwner
	configs      map[uuid.UUID]model.PropertyBillingConfig // by property
	templates    map[uuid.UUID]model.ImportTemplate
}

func newMemStore() *memStore {
	return &memStore{
		reservations: map[uuid.UUID]model.Reservation{},
		expenses:     map[uuid.UUID]model.PropertyExpense{},
		liquidations: map[uuid.UUID]model.Liquidation{},
		invoices:     map[uuid.UUID]model.ClientInvoice{},
		series:       map[uuid.UUID]model.InvoiceSeries{},
		properties:   map[uuid.UUID]model.Property{},
		owners:       map[uuid.UUID]model.PropertyOwner{},
		configs:      map[uuid.UUID]model.PropertyBillingConfig{},
		templates:    map[uuid.UUID]model.ImportTemplate{},
	}
}

func inPeriod(d time.Time, p repository.Period) bool {
	return !d.Before(p.From) && !d.After(p.To)
}

// ── Reservations ──────────────────────────────────────────────────────────────

type stubReservationRepo struct{ s *memStore }

func sameIdentity(a, b *model.Reservation) bool {
	if a.PropertyID != b.PropertyID || a.Platform != b.Platform {
		return false
	}
	if a.ConfirmationCode != "" || b.ConfirmationCode != "" {
		return a.ConfirmationCode == b.ConfirmationCode
	}
	return a.GuestName == b.GuestName && a.CheckIn.Equal(b.CheckIn) && a.CheckOut.Equal(b.CheckOut)
}

func (r *stubReservationRepo) Create(_ context.Context, res *model.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if res.ConfirmationCode != "" {
		for _, existing := range r.s.reservations {
			if sameIdentity(&existing, res) {
				return repository.ErrDuplicate
			}
		}
	}
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.s.reservations[res.ID] = *res
	return nil
}

func (r *stubReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &res, nil
}

func (r *stubReservationRepo) FindDuplicate(_ context.Context, res *model.Reservation) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reservations {
		if sameIdentity(&existing, res) {
			found := existing
			return &found, nil
		}
	}
	return nil, nil
}

func (r *stubReservationRepo) filter(keep func(*model.Reservation) bool) []model.Reservation {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Reservation
	for _, res := range r.s.reservations {
		if keep(&res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *stubReservationRepo) ListUnclaimedTx(_ context.Context, _ *gorm.DB, propertyID uuid.UUID, p repository.Period) ([]model.Reservation, error) {
	return r.filter(func(res *model.Reservation) bool {
		return res.PropertyID == propertyID && inPeriod(res.CheckIn, p) && res.LiquidationID == nil && !res.Invoiced
	}), nil
}

func (r *stubReservationRepo) ClaimTx(_ context.Context, _ *gorm.DB, ids []uuid.UUID, liquidationID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		res, ok := r.s.reservations[id]
		if !ok || res.LiquidationID != nil || res.Invoiced {
			continue
		}
		lid := liquidationID
		res.LiquidationID = &lid
		r.s.reservations[id] = res
		n++
	}
	return n, nil
}

func (r *stubReservationRepo) ListByLiquidationTx(_ context.Context, _ *gorm.DB, liquidationID uuid.UUID) ([]model.Reservation, error) {
	return r.filter(func(res *model.Reservation) bool {
		return res.LiquidationID != nil && *res.LiquidationID == liquidationID
	}), nil
}

func (r *stubReservationRepo) MarkInvoicedTx(_ context.Context, _ *gorm.DB, liquidationID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, res := range r.s.reservations {
		if res.LiquidationID != nil && *res.LiquidationID == liquidationID {
			res.Invoiced = true
			r.s.reservations[id] = res
		}
	}
	return nil
}

func (r *stubReservationRepo) ListByProperty(_ context.Context, propertyID uuid.UUID, p *repository.Period) ([]model.Reservation, error) {
	return r.filter(func(res *model.Reservation) bool {
		return res.PropertyID == propertyID && (p == nil || inPeriod(res.CheckIn, *p))
	}), nil
}

func (r *stubReservationRepo) DeleteUnlockedTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok || res.LiquidationID != nil || res.Invoiced {
		return false, nil
	}
	delete(r.s.reservations, id)
	return true, nil
}

func (r *stubReservationRepo) DB() *gorm.DB { return nil }

var _ repository.ReservationRepository = (*stubReservationRepo)(nil)

// ── Expenses ──────────────────────────────────────────────────────────────────

type stubExpenseRepo struct{ s *memStore }

func (r *stubExpenseRepo) Create(_ context.Context, e *model.PropertyExpense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.s.expenses[e.ID] = *e
	return nil
}

func (r *stubExpenseRepo) filter(keep func(*model.PropertyExpense) bool) []model.PropertyExpense {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.PropertyExpense
	for _, e := range r.s.expenses {
		if keep(&e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (r *stubExpenseRepo) ListUnclaimedTx(_ context.Context, _ *gorm.DB, propertyID uuid.UUID, p repository.Period) ([]model.PropertyExpense, error) {
	return r.filter(func(e *model.PropertyExpense) bool {
		return e.PropertyID == propertyID && inPeriod(e.Date, p) && e.LiquidationID == nil
	}), nil
}

func (r *stubExpenseRepo) ClaimTx(_ context.Context, _ *gorm.DB, ids []uuid.UUID, liquidationID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		e, ok := r.s.expenses[id]
		if !ok || e.LiquidationID != nil {
			continue
		}
		lid := liquidationID
		e.LiquidationID = &lid
		r.s.expenses[id] = e
		n++
	}
	return n, nil
}

func (r *stubExpenseRepo) ListByLiquidationTx(_ context.Context, _ *gorm.DB, liquidationID uuid.UUID) ([]model.PropertyExpense, error) {
	return r.filter(func(e *model.PropertyExpense) bool {
		return e.LiquidationID != nil && *e.LiquidationID == liquidationID
	}), nil
}

func (r *stubExpenseRepo) ListByProperty(_ context.Context, propertyID uuid.UUID, p *repository.Period) ([]model.PropertyExpense, error) {
	return r.filter(func(e *model.PropertyExpense) bool {
		return e.PropertyID == propertyID && (p == nil || inPeriod(e.Date, *p))
	}), nil
}

func (r *stubExpenseRepo) DeleteUnlockedTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[id]
	if !ok || e.LiquidationID != nil {
		return false, nil
	}
	delete(r.s.expenses, id)
	return true, nil
}

var _ repository.ExpenseRepository = (*stubExpenseRepo)(nil)

// ── Liquidations ──────────────────────────────────────────────────────────────

type stubLiquidationRepo struct{ s *memStore }

func (r *stubLiquidationRepo) CreateTx(_ context.Context, _ *gorm.DB, l *model.Liquidation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	r.s.liquidations[l.ID] = *l
	return nil
}

func (r *stubLiquidationRepo) SaveTotalsTx(_ context.Context, _ *gorm.DB, l *model.Liquidation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.liquidations[l.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	status, invoiceID := stored.Status, stored.InvoiceID
	stored = *l
	stored.Status, stored.InvoiceID = status, invoiceID
	r.s.liquidations[l.ID] = stored
	return nil
}

func (r *stubLiquidationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Liquidation, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *stubLiquidationRepo) FindByIDTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Liquidation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.liquidations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *stubLiquidationRepo) ListByProperty(_ context.Context, propertyID uuid.UUID) ([]model.Liquidation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Liquidation
	for _, l := range r.s.liquidations {
		if l.PropertyID == propertyID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubLiquidationRepo) MarkInvoicedTx(_ context.Context, _ *gorm.DB, id, invoiceID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.liquidations[id]
	if !ok || l.Status != model.LiquidationGenerated {
		return false, nil
	}
	l.Status = model.LiquidationInvoiced
	l.InvoiceID = &invoiceID
	r.s.liquidations[id] = l
	return true, nil
}

func (r *stubLiquidationRepo) DB() *gorm.DB { return nil }

var _ repository.LiquidationRepository = (*stubLiquidationRepo)(nil)

// ── Invoices ──────────────────────────────────────────────────────────────────

type stubInvoiceRepo struct{ s *memStore }

func (r *stubInvoiceRepo) CreateTx(_ context.Context, _ *gorm.DB, inv *model.ClientInvoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv.LiquidationID != nil {
		for _, existing := range r.s.invoices {
			if existing.LiquidationID != nil && *existing.LiquidationID == *inv.LiquidationID {
				return repository.ErrDuplicate
			}
		}
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
		if inv.Items[i].ID == uuid.Nil {
			inv.Items[i].ID = uuid.New()
		}
	}
	stored := *inv
	stored.Items = append([]model.InvoiceItem(nil), inv.Items...)
	stored.Series, stored.Owner = nil, nil
	r.s.invoices[inv.ID] = stored
	return nil
}

func (r *stubInvoiceRepo) load(id uuid.UUID) (*model.ClientInvoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	inv.Items = append([]model.InvoiceItem(nil), inv.Items...)
	if s, ok := r.s.series[inv.SeriesID]; ok {
		inv.Series = &s
	}
	if inv.OwnerID != nil {
		if o, ok := r.s.owners[*inv.OwnerID]; ok {
			inv.Owner = &o
		}
	}
	return &inv, nil
}

func (r *stubInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ClientInvoice, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *stubInvoiceRepo) FindByIDTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.ClientInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.load(id)
}

func (r *stubInvoiceRepo) FindByToken(_ context.Context, token string) (*model.ClientInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, inv := range r.s.invoices {
		if inv.PublicToken == token {
			return r.load(id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInvoiceRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	r.s.invoices[id] = inv
	return true, nil
}

func (r *stubInvoiceRepo) ListOverdue(_ context.Context, asOf time.Time) ([]model.ClientInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ClientInvoice
	for _, inv := range r.s.invoices {
		open := inv.Status == model.InvoiceIssued || inv.Status == model.InvoiceSent
		if open && inv.DueDate != nil && inv.DueDate.Before(asOf) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *stubInvoiceRepo) EnsureSeries(_ context.Context, prefix string) (*model.InvoiceSeries, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.series {
		if s.Prefix == prefix {
			return &s, nil
		}
	}
	s := model.InvoiceSeries{ID: uuid.New(), Prefix: prefix, NextNumber: 1}
	r.s.series[s.ID] = s
	return &s, nil
}

func (r *stubInvoiceRepo) FindSeries(_ context.Context, id uuid.UUID) (*model.InvoiceSeries, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.series[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *stubInvoiceRepo) LockSeriesTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.InvoiceSeries, error) {
	return r.FindSeries(ctx, id)
}

func (r *stubInvoiceRepo) AdvanceSeriesTx(_ context.Context, _ *gorm.DB, id uuid.UUID, year int, next int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.series[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Year, s.NextNumber = year, next
	r.s.series[id] = s
	return nil
}

func (r *stubInvoiceRepo) IssueTx(_ context.Context, _ *gorm.DB, inv *model.ClientInvoice) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.invoices[inv.ID]
	if !ok || stored.FullNumber != nil {
		return false, nil
	}
	stored.Number, stored.FullNumber = inv.Number, inv.FullNumber
	stored.Status = inv.Status
	stored.IssueDate, stored.DueDate = inv.IssueDate, inv.DueDate
	r.s.invoices[inv.ID] = stored
	return true, nil
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

// ── Properties & billing configs ──────────────────────────────────────────────

type stubPropertyRepo struct{ s *memStore }

func (r *stubPropertyRepo) Create(_ context.Context, p *model.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.properties[p.ID] = *p
	return nil
}

func (r *stubPropertyRepo) CreateOwner(_ context.Context, o *model.PropertyOwner) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.s.owners[o.ID] = *o
	return nil
}

func (r *stubPropertyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *stubPropertyRepo) FindOwner(_ context.Context, id uuid.UUID) (*model.PropertyOwner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.owners[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *stubPropertyRepo) List(_ context.Context) ([]model.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Property, 0, len(r.s.properties))
	for _, p := range r.s.properties {
		out = append(out, p)
	}
	return out, nil
}

var _ repository.PropertyRepository = (*stubPropertyRepo)(nil)

type stubBillingConfigRepo struct{ s *memStore }

func (r *stubBillingConfigRepo) FindByProperty(_ context.Context, propertyID uuid.UUID) (*model.PropertyBillingConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.configs[propertyID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *stubBillingConfigRepo) Save(_ context.Context, cfg *model.PropertyBillingConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.configs[cfg.PropertyID]; ok {
		cfg.ID = existing.ID
	} else if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	r.s.configs[cfg.PropertyID] = *cfg
	return nil
}

func (r *stubBillingConfigRepo) ListActive(_ context.Context) ([]model.PropertyBillingConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.PropertyBillingConfig
	for _, c := range r.s.configs {
		if !c.Active {
			continue
		}
		if p, ok := r.s.properties[c.PropertyID]; ok {
			c.Property = &p
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID.String() < out[j].PropertyID.String() })
	return out, nil
}

var _ repository.BillingConfigRepository = (*stubBillingConfigRepo)(nil)

// ── Import templates ──────────────────────────────────────────────────────────

type stubTemplateRepo struct{ s *memStore }

func (r *stubTemplateRepo) Upsert(_ context.Context, t *model.ImportTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.templates {
		if existing.Name == t.Name {
			t.ID = id
			break
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.templates[t.ID] = *t
	return nil
}

func (r *stubTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ImportTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (r *stubTemplateRepo) List(_ context.Context) ([]model.ImportTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.ImportTemplate, 0, len(r.s.templates))
	for _, t := range r.s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubTemplateRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[id]; !ok {
		return false, nil
	}
	delete(r.s.templates, id)
	return true, nil
}

var _ repository.ImportTemplateRepository = (*stubTemplateRepo)(nil)

// ── Service wiring ────────────────────────────────────────────────────────────

type fixture struct {
	store        *memStore
	reservations *stubReservationRepo
	expenses     *stubExpenseRepo
	liquidations *stubLiquidationRepo
	invoices     *stubInvoiceRepo
	properties   *stubPropertyRepo
	configRepo   *stubBillingConfigRepo
	templates    *stubTemplateRepo

	configs     service.BillingConfigService
	imports     service.ImportService
	liquidation service.LiquidationService
	invoice     service.InvoiceService
	property    service.PropertyService
}

func testConfig() *config.Config {
	return &config.Config{
		ImportMaxRows:   5000,
		ImportMaxErrors: 500,
		InvoiceDueDays:  30,
		DefaultCurrency: "EUR",
		PublicBaseURL:   "https://billing.example.test",
	}
}

func newFixture() *fixture {
	s := newMemStore()
	f := &fixture{
		store:        s,
		reservations: &stubReservationRepo{s},
		expenses:     &stubExpenseRepo{s},
		liquidations: &stubLiquidationRepo{s},
		invoices:     &stubInvoiceRepo{s},
		properties:   &stubPropertyRepo{s},
		configRepo:   &stubBillingConfigRepo{s},
		templates:    &stubTemplateRepo{s},
	}
	cfg := testConfig()
	f.configs = service.NewBillingConfigService(f.configRepo, f.properties, f.invoices)
	f.imports = service.NewImportService(f.reservations, f.templates, f.configs, cfg)
	f.liquidation = service.NewLiquidationService(f.liquidations, f.reservations, f.expenses, f.properties, f.configs)
	f.invoice = service.NewInvoiceService(f.invoices, f.liquidations, f.reservations, f.liquidation, cfg)
	f.property = service.NewPropertyService(f.properties)
	return f
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// splitConfigRequest is 15 % commission, 21 % VAT on it, a fixed 40 cleaning
// fee split 50/50 and 19 % retention for company owners.
func splitConfigRequest() dto.BillingConfigRequest {
	return dto.BillingConfigRequest{
		CommissionType:              model.RatePercentage,
		CommissionValue:             d("15"),
		CommissionVat:               d("21"),
		CleaningType:                model.RateFixed,
		CleaningValue:               d("40"),
		CleaningFeeRecipient:        model.CleaningSplit,
		CleaningFeeSplitPct:         dp("50"),
		CleaningIncludedInRoomTotal: true,
		DefaultVatRate:              d("21"),
		DefaultRetentionRate:        d("19"),
	}
}

// seedProperty stores an owner, a property and its billing config.
func (f *fixture) seedProperty(t *testing.T, name, ownerType string, req dto.BillingConfigRequest) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	owner := &model.PropertyOwner{Name: name + " owner", Type: ownerType}
	require.NoError(t, f.properties.CreateOwner(ctx, owner))
	p := &model.Property{Name: name, OwnerID: &owner.ID}
	require.NoError(t, f.properties.Create(ctx, p))
	_, err := f.configs.Upsert(ctx, p.ID, req)
	require.NoError(t, err)
	return p.ID
}

// seedReservation stores a GROSS Airbnb reservation of 500 with a 40 cleaning fee.
func (f *fixture) seedReservation(t *testing.T, propertyID uuid.UUID, code, checkIn string) model.Reservation {
	t.Helper()
	in := day(checkIn)
	r := model.Reservation{
		PropertyID:       propertyID,
		ConfirmationCode: code,
		GuestName:        "Guest " + code,
		CheckIn:          in,
		CheckOut:         in.AddDate(0, 0, 3),
		Nights:           3,
		Platform:         model.PlatformAirbnb,
		RoomTotal:        d("500"),
		CleaningFee:      d("40"),
		Currency:         "EUR",
		AmountType:       model.AmountGross,
		ImportSource:     model.SourceManual,
		Status:           model.ReservationConfirmed,
	}
	require.NoError(t, f.reservations.Create(context.Background(), &r))
	return r
}
