package repository

import (
	"context"
	"errors"

	"itineramio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *model.Property) error
	CreateOwner(ctx context.Context, o *model.PropertyOwner) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	FindOwner(ctx context.Context, id uuid.UUID) (*model.PropertyOwner, error)
	List(ctx context.Context) ([]model.Property, error)
}

type propertyRepo struct{ db *gorm.DB }

func NewPropertyRepository(db *gorm.DB) PropertyRepository { return &propertyRepo{db: db} }

func (r *propertyRepo) Create(ctx context.Context, p *model.Property) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *propertyRepo) CreateOwner(ctx context.Context, o *model.PropertyOwner) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *propertyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var p model.Property
	err := r.db.WithContext(ctx).Preload("Owner").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *propertyRepo) FindOwner(ctx context.Context, id uuid.UUID) (*model.PropertyOwner, error) {
	var o model.PropertyOwner
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return &o, err
}

func (r *propertyRepo) List(ctx context.Context) ([]model.Property, error) {
	var out []model.Property
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

type BillingConfigRepository interface {
	FindByProperty(ctx context.Context, propertyID uuid.UUID) (*model.PropertyBillingConfig, error)
	// Save inserts or replaces the single config of cfg.PropertyID.
	Save(ctx context.Context, cfg *model.PropertyBillingConfig) error
	// ListActive returns every active config with its property preloaded.
	ListActive(ctx context.Context) ([]model.PropertyBillingConfig, error)
}

type billingConfigRepo struct{ db *gorm.DB }

func NewBillingConfigRepository(db *gorm.DB) BillingConfigRepository {
	return &billingConfigRepo{db: db}
}

func (r *billingConfigRepo) FindByProperty(ctx context.Context, propertyID uuid.UUID) (*model.PropertyBillingConfig, error) {
	var cfg model.PropertyBillingConfig
	err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).First(&cfg).Error
	return &cfg, err
}

func (r *billingConfigRepo) Save(ctx context.Context, cfg *model.PropertyBillingConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.PropertyBillingConfig
		err := tx.Where("property_id = ?", cfg.PropertyID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(cfg).Error
		case err != nil:
			return err
		}
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
		return tx.Omit("Property").Save(cfg).Error
	})
}

func (r *billingConfigRepo) ListActive(ctx context.Context) ([]model.PropertyBillingConfig, error) {
	var out []model.PropertyBillingConfig
	err := r.db.WithContext(ctx).Preload("Property").Where("active = ?", true).Find(&out).Error
	return out, err
}
