package repository

import (
	"context"
	"time"

	"itineramio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, inv *model.ClientInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ClientInvoice, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ClientInvoice, error)
	FindByToken(ctx context.Context, token string) (*model.ClientInvoice, error)
	// UpdateStatus is a compare-and-set on status; false means another writer moved it first.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.ClientInvoice, error)

	EnsureSeries(ctx context.Context, prefix string) (*model.InvoiceSeries, error)
	FindSeries(ctx context.Context, id uuid.UUID) (*model.InvoiceSeries, error)
	// LockSeriesTx reads the series row with SELECT … FOR UPDATE.
	LockSeriesTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.InvoiceSeries, error)
	// AdvanceSeriesTx stores the year the counter belongs to and its next value.
	AdvanceSeriesTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, year int, next int64) error
	// IssueTx writes the number only if the invoice has none yet.
	IssueTx(ctx context.Context, tx *gorm.DB, inv *model.ClientInvoice) (bool, error)
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(ctx context.Context, tx *gorm.DB, inv *model.ClientInvoice) error {
	err := pick(r.db, tx).WithContext(ctx).Omit("Series", "Owner").Create(inv).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ClientInvoice, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *invoiceRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ClientInvoice, error) {
	var inv model.ClientInvoice
	err := pick(r.db, tx).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Series").
		First(&inv, "id = ?", id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByToken(ctx context.Context, token string) (*model.ClientInvoice, error) {
	var inv model.ClientInvoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Owner").
		Where("public_token = ?", token).
		First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ClientInvoice{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

func (r *invoiceRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]model.ClientInvoice, error) {
	var out []model.ClientInvoice
	err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date IS NOT NULL AND due_date < ?",
			[]string{model.InvoiceIssued, model.InvoiceSent}, asOf).
		Order("due_date ASC").
		Limit(500).
		Find(&out).Error
	return out, err
}

func (r *invoiceRepo) EnsureSeries(ctx context.Context, prefix string) (*model.InvoiceSeries, error) {
	s := model.InvoiceSeries{Prefix: prefix, NextNumber: 1}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "prefix"}}, DoNothing: true}).
		Create(&s).Error
	if err != nil {
		return nil, err
	}
	var out model.InvoiceSeries
	err = r.db.WithContext(ctx).Where("prefix = ?", prefix).First(&out).Error
	return &out, err
}

func (r *invoiceRepo) FindSeries(ctx context.Context, id uuid.UUID) (*model.InvoiceSeries, error) {
	var s model.InvoiceSeries
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *invoiceRepo) LockSeriesTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.InvoiceSeries, error) {
	var s model.InvoiceSeries
	err := pick(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *invoiceRepo) AdvanceSeriesTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, year int, next int64) error {
	return pick(r.db, tx).WithContext(ctx).Model(&model.InvoiceSeries{}).
		Where("id = ?", id).
		Updates(map[string]any{"year": year, "next_number": next}).Error
}

func (r *invoiceRepo) IssueTx(ctx context.Context, tx *gorm.DB, inv *model.ClientInvoice) (bool, error) {
	res := pick(r.db, tx).WithContext(ctx).Model(&model.ClientInvoice{}).
		Where("id = ? AND full_number IS NULL", inv.ID).
		Updates(map[string]any{
			"number":      inv.Number,
			"full_number": inv.FullNumber,
			"status":      inv.Status,
			"issue_date":  inv.IssueDate,
			"due_date":    inv.DueDate,
		})
	if isUniqueViolation(res.Error) {
		return false, ErrDuplicate
	}
	return res.RowsAffected == 1, res.Error
}
