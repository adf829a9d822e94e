package service

import (
	"context"
	"strings"

	"itineramio/internal/dto"
	"itineramio/internal/model"
	"itineramio/internal/repository"

	"github.com/rs/zerolog/log"
)

// PropertyService registers the owners and rental units that billing
// configs, reservations and liquidations hang from.
type PropertyService interface {
	CreateOwner(ctx context.Context, req dto.OwnerRequest) (*dto.OwnerResponse, error)
	CreateProperty(ctx context.Context, req dto.PropertyRequest) (*dto.PropertyResponse, error)
	ListProperties(ctx context.Context) ([]dto.PropertyResponse, error)
}

type propertyService struct {
	repo repository.PropertyRepository
}

func NewPropertyService(repo repository.PropertyRepository) PropertyService {
	return &propertyService{repo: repo}
}

func (s *propertyService) CreateOwner(ctx context.Context, req dto.OwnerRequest) (*dto.OwnerResponse, error) {
	o := &model.PropertyOwner{
		Name:  strings.TrimSpace(req.Name),
		TaxID: req.TaxID,
		Email: req.Email,
		Type:  orDefault(req.Type, model.OwnerIndividual),
	}
	if err := s.repo.CreateOwner(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("owner_id", o.ID.String()).Str("type", o.Type).Msg("property_service: owner created")
	return &dto.OwnerResponse{ID: o.ID.String(), Name: o.Name, TaxID: o.TaxID, Email: o.Email, Type: o.Type}, nil
}

func (s *propertyService) CreateProperty(ctx context.Context, req dto.PropertyRequest) (*dto.PropertyResponse, error) {
	ownerID, err := parseOptionalID(req.OwnerID, "owner_id")
	if err != nil {
		return nil, err
	}
	if ownerID != nil {
		if _, err := s.repo.FindOwner(ctx, *ownerID); err != nil {
			return nil, notFound(err, "owner")
		}
	}
	p := &model.Property{Name: strings.TrimSpace(req.Name), OwnerID: ownerID}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return propertyToResponse(p), nil
}

func (s *propertyService) ListProperties(ctx context.Context) ([]dto.PropertyResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PropertyResponse, 0, len(list))
	for i := range list {
		out = append(out, *propertyToResponse(&list[i]))
	}
	return out, nil
}

func propertyToResponse(p *model.Property) *dto.PropertyResponse {
	return &dto.PropertyResponse{ID: p.ID.String(), Name: p.Name, OwnerID: uuidPtrString(p.OwnerID)}
}
