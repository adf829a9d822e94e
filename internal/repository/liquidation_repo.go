package repository

import (
	"context"

	"itineramio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LiquidationRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, l *model.Liquidation) error
	SaveTotalsTx(ctx context.Context, tx *gorm.DB, l *model.Liquidation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Liquidation, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Liquidation, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]model.Liquidation, error)
	// MarkInvoicedTx flips GENERATED -> INVOICED and reports whether this call did it.
	MarkInvoicedTx(ctx context.Context, tx *gorm.DB, id, invoiceID uuid.UUID) (bool, error)
	DB() *gorm.DB
}

type liquidationRepo struct{ db *gorm.DB }

func NewLiquidationRepository(db *gorm.DB) LiquidationRepository { return &liquidationRepo{db: db} }

func (r *liquidationRepo) DB() *gorm.DB { return r.db }

func (r *liquidationRepo) CreateTx(ctx context.Context, tx *gorm.DB, l *model.Liquidation) error {
	return pick(r.db, tx).WithContext(ctx).Create(l).Error
}

func (r *liquidationRepo) SaveTotalsTx(ctx context.Context, tx *gorm.DB, l *model.Liquidation) error {
	return pick(r.db, tx).WithContext(ctx).Model(l).
		Select(
			"total_gross", "total_commission", "total_commission_vat",
			"total_manager_cleaning", "total_owner_cleaning", "total_retention",
			"total_owner_net", "total_owner_expenses", "total_manager_expenses",
			"net_payable", "reservation_count", "expense_count",
		).
		Updates(l).Error
}

func (r *liquidationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Liquidation, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *liquidationRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Liquidation, error) {
	var l model.Liquidation
	err := pick(r.db, tx).WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *liquidationRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]model.Liquidation, error) {
	var out []model.Liquidation
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("period_start DESC, created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *liquidationRepo) MarkInvoicedTx(ctx context.Context, tx *gorm.DB, id, invoiceID uuid.UUID) (bool, error) {
	res := pick(r.db, tx).WithContext(ctx).Model(&model.Liquidation{}).
		Where("id = ? AND status = ?", id, model.LiquidationGenerated).
		Updates(map[string]any{"status": model.LiquidationInvoiced, "invoice_id": invoiceID})
	return res.RowsAffected == 1, res.Error
}
