package repository

import (
	"context"

	"itineramio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(ctx context.Context, e *model.PropertyExpense) error
	ListUnclaimedTx(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, p Period) ([]model.PropertyExpense, error)
	ClaimTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, liquidationID uuid.UUID) (int64, error)
	ListByLiquidationTx(ctx context.Context, tx *gorm.DB, liquidationID uuid.UUID) ([]model.PropertyExpense, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID, p *Period) ([]model.PropertyExpense, error)
	DeleteUnlockedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type expenseRepo struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) ExpenseRepository { return &expenseRepo{db: db} }

func (r *expenseRepo) Create(ctx context.Context, e *model.PropertyExpense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *expenseRepo) ListUnclaimedTx(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, p Period) ([]model.PropertyExpense, error) {
	var out []model.PropertyExpense
	err := pick(r.db, tx).WithContext(ctx).
		Where("property_id = ? AND date BETWEEN ? AND ? AND liquidation_id IS NULL", propertyID, p.From, p.To).
		Order("date ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *expenseRepo) ClaimTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, liquidationID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := pick(r.db, tx).WithContext(ctx).Model(&model.PropertyExpense{}).
		Where("id IN ? AND liquidation_id IS NULL", ids).
		Update("liquidation_id", liquidationID)
	return res.RowsAffected, res.Error
}

func (r *expenseRepo) ListByLiquidationTx(ctx context.Context, tx *gorm.DB, liquidationID uuid.UUID) ([]model.PropertyExpense, error) {
	var out []model.PropertyExpense
	err := pick(r.db, tx).WithContext(ctx).
		Where("liquidation_id = ?", liquidationID).
		Order("date ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *expenseRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID, p *Period) ([]model.PropertyExpense, error) {
	var out []model.PropertyExpense
	q := r.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if p != nil {
		q = q.Where("date BETWEEN ? AND ?", p.From, p.To)
	}
	err := q.Order("date ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *expenseRepo) DeleteUnlockedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := pick(r.db, tx).WithContext(ctx).
		Where("id = ? AND liquidation_id IS NULL", id).
		Delete(&model.PropertyExpense{})
	return res.RowsAffected == 1, res.Error
}
