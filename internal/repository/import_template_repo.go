package repository

import (
	"context"

	"itineramio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImportTemplateRepository interface {
	// Upsert saves t, replacing the stored template with the same name.
	Upsert(ctx context.Context, t *model.ImportTemplate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ImportTemplate, error)
	List(ctx context.Context) ([]model.ImportTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type importTemplateRepo struct{ db *gorm.DB }

func NewImportTemplateRepository(db *gorm.DB) ImportTemplateRepository {
	return &importTemplateRepo{db: db}
}

func (r *importTemplateRepo) Upsert(ctx context.Context, t *model.ImportTemplate) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"platform", "mapping", "config", "has_header", "updated_at"}),
		}).
		Create(t).Error
	if err != nil {
		return err
	}
	// on conflict the generated id was discarded; reload the stored row
	var stored model.ImportTemplate
	if err := r.db.WithContext(ctx).Where("name = ?", t.Name).First(&stored).Error; err != nil {
		return err
	}
	*t = stored
	return nil
}

func (r *importTemplateRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ImportTemplate, error) {
	var t model.ImportTemplate
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *importTemplateRepo) List(ctx context.Context) ([]model.ImportTemplate, error) {
	var out []model.ImportTemplate
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *importTemplateRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.ImportTemplate{}, "id = ?", id)
	return res.RowsAffected == 1, res.Error
}
