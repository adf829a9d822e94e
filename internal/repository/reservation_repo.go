package repository

import (
	"context"
	"errors"
	"time"

	"itineramio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Period is a closed date range [From, To].
type Period struct {
	From time.Time
	To   time.Time
}

type ReservationRepository interface {
	Create(ctx context.Context, r *model.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// FindDuplicate returns the stored reservation with the same identity as r, or nil.
	FindDuplicate(ctx context.Context, r *model.Reservation) (*model.Reservation, error)
	ListUnclaimedTx(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, p Period) ([]model.Reservation, error)
	// ClaimTx stamps liquidationID on the given rows that are still unclaimed and
	// returns how many it actually took.
	ClaimTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, liquidationID uuid.UUID) (int64, error)
	ListByLiquidationTx(ctx context.Context, tx *gorm.DB, liquidationID uuid.UUID) ([]model.Reservation, error)
	MarkInvoicedTx(ctx context.Context, tx *gorm.DB, liquidationID uuid.UUID) error
	ListByProperty(ctx context.Context, propertyID uuid.UUID, p *Period) ([]model.Reservation, error)
	// DeleteUnlockedTx deletes the row only while it is neither liquidated nor invoiced.
	DeleteUnlockedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	DB() *gorm.DB
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationRepository(db *gorm.DB) ReservationRepository { return &reservationRepo{db: db} }

func (r *reservationRepo) DB() *gorm.DB { return r.db }

func (r *reservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	err := r.db.WithContext(ctx).Create(res).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *reservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error
	return &res, err
}

func (r *reservationRepo) FindDuplicate(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	q := r.db.WithContext(ctx).Where("property_id = ? AND platform = ?", res.PropertyID, res.Platform)
	if res.ConfirmationCode != "" {
		q = q.Where("confirmation_code = ?", res.ConfirmationCode)
	} else {
		q = q.Where("guest_name = ? AND check_in = ? AND check_out = ?", res.GuestName, res.CheckIn, res.CheckOut)
	}
	var found model.Reservation
	err := q.First(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *reservationRepo) ListUnclaimedTx(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, p Period) ([]model.Reservation, error) {
	var out []model.Reservation
	err := pick(r.db, tx).WithContext(ctx).
		Where("property_id = ? AND check_in BETWEEN ? AND ? AND liquidation_id IS NULL AND invoiced = ?",
			propertyID, p.From, p.To, false).
		Order("check_in ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *reservationRepo) ClaimTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, liquidationID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := pick(r.db, tx).WithContext(ctx).Model(&model.Reservation{}).
		Where("id IN ? AND liquidation_id IS NULL AND invoiced = ?", ids, false).
		Update("liquidation_id", liquidationID)
	return res.RowsAffected, res.Error
}

func (r *reservationRepo) ListByLiquidationTx(ctx context.Context, tx *gorm.DB, liquidationID uuid.UUID) ([]model.Reservation, error) {
	var out []model.Reservation
	err := pick(r.db, tx).WithContext(ctx).
		Where("liquidation_id = ?", liquidationID).
		Order("check_in ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *reservationRepo) MarkInvoicedTx(ctx context.Context, tx *gorm.DB, liquidationID uuid.UUID) error {
	return pick(r.db, tx).WithContext(ctx).Model(&model.Reservation{}).
		Where("liquidation_id = ?", liquidationID).
		Update("invoiced", true).Error
}

func (r *reservationRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID, p *Period) ([]model.Reservation, error) {
	var out []model.Reservation
	q := r.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if p != nil {
		q = q.Where("check_in BETWEEN ? AND ?", p.From, p.To)
	}
	err := q.Order("check_in ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *reservationRepo) DeleteUnlockedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := pick(r.db, tx).WithContext(ctx).
		Where("id = ? AND liquidation_id IS NULL AND invoiced = ?", id, false).
		Delete(&model.Reservation{})
	return res.RowsAffected == 1, res.Error
}
