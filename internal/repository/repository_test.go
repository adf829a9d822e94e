package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"itineramio/internal/infra"
	"itineramio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))
	return db
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func seedReservation(t *testing.T, repo ReservationRepository, propertyID uuid.UUID, code string, checkIn time.Time) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		PropertyID:       propertyID,
		BillingConfigID:  uuid.New(),
		ConfirmationCode: code,
		GuestName:        "Guest " + code,
		CheckIn:          checkIn,
		CheckOut:         checkIn.AddDate(0, 0, 2),
		Nights:           2,
		Platform:         model.PlatformAirbnb,
		RoomTotal:        decimal.NewFromInt(200),
		Currency:         "EUR",
		AmountType:       model.AmountGross,
		ImportSource:     model.SourceCSV,
		Status:           model.ReservationConfirmed,
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func TestReservationRepo_DuplicateLookupAndUniqueIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(newTestDB(t))
	pid := uuid.New()
	stored := seedReservation(t, repo, pid, "HM1", day(2024, 3, 1))

	dup, err := repo.FindDuplicate(ctx, &model.Reservation{PropertyID: pid, ConfirmationCode: "HM1", Platform: model.PlatformAirbnb})
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, stored.ID, dup.ID)

	none, err := repo.FindDuplicate(ctx, &model.Reservation{PropertyID: pid, ConfirmationCode: "HM1", Platform: model.PlatformBooking})
	require.NoError(t, err)
	assert.Nil(t, none)

	again := *stored
	again.ID = uuid.Nil
	assert.ErrorIs(t, repo.Create(ctx, &again), ErrDuplicate)
}

func TestReservationRepo_FallbackIdentityWithoutCode(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(newTestDB(t))
	pid := uuid.New()
	r := seedReservation(t, repo, pid, "", day(2024, 3, 1))

	dup, err := repo.FindDuplicate(ctx, &model.Reservation{
		PropertyID: pid, Platform: model.PlatformAirbnb,
		GuestName: r.GuestName, CheckIn: r.CheckIn, CheckOut: r.CheckOut,
	})
	require.NoError(t, err)
	require.NotNil(t, dup)

	// two code-less rows are not caught by the unique index
	other := seedReservation(t, repo, pid, "", day(2024, 3, 10))
	assert.NotEqual(t, r.ID, other.ID)
}

func TestReservationRepo_ClaimIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(newTestDB(t))
	pid := uuid.New()
	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		ids = append(ids, seedReservation(t, repo, pid, fmt.Sprintf("C%d", i), day(2024, 3, 1+i)).ID)
	}

	period := Period{From: day(2024, 3, 1), To: day(2024, 3, 31)}
	candidates, err := repo.ListUnclaimedTx(ctx, nil, pid, period)
	require.NoError(t, err)
	assert.Len(t, candidates, 4)

	first, second := uuid.New(), uuid.New()
	n, err := repo.ClaimTx(ctx, nil, ids[:3], first)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.ClaimTx(ctx, nil, ids, second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	claimed, err := repo.ListByLiquidationTx(ctx, nil, first)
	require.NoError(t, err)
	assert.Len(t, claimed, 3)

	left, err := repo.ListUnclaimedTx(ctx, nil, pid, period)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestReservationRepo_DeleteUnlocked(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	pid := uuid.New()
	free := seedReservation(t, repo, pid, "F1", day(2024, 3, 1))
	liq := seedReservation(t, repo, pid, "L1", day(2024, 3, 2))
	inv := seedReservation(t, repo, pid, "I1", day(2024, 3, 3))

	_, err := repo.ClaimTx(ctx, nil, []uuid.UUID{liq.ID}, uuid.New())
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Reservation{}).Where("id = ?", inv.ID).Update("invoiced", true).Error)

	ok, err := repo.DeleteUnlockedTx(ctx, nil, free.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, id := range []uuid.UUID{liq.ID, inv.ID} {
		ok, err = repo.DeleteUnlockedTx(ctx, nil, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestInvoiceRepo_SeriesAndIssue(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestDB(t))

	s1, err := repo.EnsureSeries(ctx, "FAC")
	require.NoError(t, err)
	s2, err := repo.EnsureSeries(ctx, "FAC")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)
	assert.EqualValues(t, 1, s2.NextNumber)

	inv := &model.ClientInvoice{
		SeriesID:    s1.ID,
		Status:      model.InvoiceDraft,
		PublicToken: strings.Repeat("a", 64),
		Currency:    "EUR",
		Items: []model.InvoiceItem{
			{Concept: "Comisión", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(75), Total: decimal.NewFromInt(75)},
		},
	}
	require.NoError(t, repo.CreateTx(ctx, nil, inv))

	err = repo.DB().Transaction(func(tx *gorm.DB) error {
		series, err := repo.LockSeriesTx(ctx, tx, s1.ID)
		if err != nil {
			return err
		}
		num := series.NextNumber
		full := "FAC-2026-00001"
		now := day(2026, 1, 15)
		inv.Number, inv.FullNumber, inv.Status, inv.IssueDate = &num, &full, model.InvoiceIssued, &now
		ok, err := repo.IssueTx(ctx, tx, inv)
		if err != nil {
			return err
		}
		assert.True(t, ok)
		return repo.AdvanceSeriesTx(ctx, tx, s1.ID, 2026, num+1)
	})
	require.NoError(t, err)

	// a second issue attempt never overwrites the number
	other := "FAC-2026-00009"
	inv.FullNumber = &other
	ok, err := repo.IssueTx(ctx, nil, inv)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByToken(ctx, strings.Repeat("a", 64))
	require.NoError(t, err)
	require.NotNil(t, got.FullNumber)
	assert.Equal(t, "FAC-2026-00001", *got.FullNumber)
	assert.Len(t, got.Items, 1)

	series, err := repo.FindSeries(ctx, s1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, series.NextNumber)
	assert.Equal(t, 2026, series.Year)
}

func TestInvoiceRepo_StatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestDB(t))
	s, err := repo.EnsureSeries(ctx, "FAC")
	require.NoError(t, err)
	inv := &model.ClientInvoice{SeriesID: s.ID, Status: model.InvoiceIssued, PublicToken: strings.Repeat("b", 64)}
	require.NoError(t, repo.CreateTx(ctx, nil, inv))

	ok, err := repo.UpdateStatus(ctx, inv.ID, model.InvoiceIssued, model.InvoiceSent)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, inv.ID, model.InvoiceIssued, model.InvoicePaid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImportTemplateRepo_UpsertByName(t *testing.T) {
	ctx := context.Background()
	repo := NewImportTemplateRepository(newTestDB(t))

	first := &model.ImportTemplate{Name: "airbnb-es", Platform: model.PlatformAirbnb,
		Mapping: datatypes.JSON(`{"guestName":1}`), Config: datatypes.JSON(`{}`), HasHeader: true}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &model.ImportTemplate{Name: "airbnb-es", Platform: model.PlatformBooking,
		Mapping: datatypes.JSON(`{"guestName":2}`), Config: datatypes.JSON(`{}`)}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.PlatformBooking, list[0].Platform)
	assert.False(t, list[0].HasHeader)

	ok, err := repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLiquidationRepo_AppliedTermsSurviveTotalsUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewLiquidationRepository(db)
	ctx := context.Background()

	split := decimal.NewFromInt(50)
	cfg := &model.PropertyBillingConfig{
		ID:                   uuid.New(),
		CommissionType:       model.RatePercentage,
		CommissionValue:      decimal.NewFromInt(15),
		CommissionVat:        decimal.NewFromInt(21),
		CleaningFeeRecipient: model.CleaningSplit,
		CleaningFeeSplitPct:  &split,
		InvoiceDetailLevel:   model.DetailDetailed,
	}
	l := &model.Liquidation{
		PropertyID:  uuid.New(),
		PeriodStart: day(2025, 3, 1),
		PeriodEnd:   day(2025, 3, 31),
		Status:      model.LiquidationGenerated,
	}
	require.NoError(t, l.SetTerms(model.TermsOf(cfg, &model.PropertyOwner{ID: uuid.New(), Type: model.OwnerCompany})))
	require.NoError(t, repo.CreateTx(ctx, nil, l))

	l.TotalCommission = decimal.NewFromInt(75)
	require.NoError(t, repo.SaveTotalsTx(ctx, nil, l))

	got, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "75.00", got.TotalCommission.StringFixed(2))
	terms, err := got.Terms()
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, terms.ConfigID)
	assert.Equal(t, model.OwnerCompany, terms.OwnerType)
	assert.Equal(t, model.DetailDetailed, terms.InvoiceDetailLevel)
	assert.Equal(t, "21", terms.CommissionVat.String())
	require.NotNil(t, terms.CleaningFeeSplitPct)
	assert.Equal(t, "50", terms.CleaningFeeSplitPct.String())

	_, err = (&model.Liquidation{}).Terms()
	assert.ErrorIs(t, err, model.ErrNoAppliedTerms)
}
