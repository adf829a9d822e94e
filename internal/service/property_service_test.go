package service_test

import (
	"context"
	"errors"
	"testing"

	"itineramio/internal/billing"
	"itineramio/internal/dto"
	"itineramio/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProperty_LinksExistingOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	owner, err := f.property.CreateOwner(ctx, dto.OwnerRequest{Name: " Inversiones Mar SL "})
	require.NoError(t, err)
	assert.Equal(t, "Inversiones Mar SL", owner.Name)
	assert.Equal(t, model.OwnerIndividual, owner.Type)

	p, err := f.property.CreateProperty(ctx, dto.PropertyRequest{Name: "Sea View 2B", OwnerID: &owner.ID})
	require.NoError(t, err)
	require.NotNil(t, p.OwnerID)
	assert.Equal(t, owner.ID, *p.OwnerID)

	list, err := f.property.ListProperties(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateProperty_RejectsUnknownOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	missing := uuid.NewString()
	_, err := f.property.CreateProperty(ctx, dto.PropertyRequest{Name: "Loft", OwnerID: &missing})
	assert.True(t, errors.Is(err, billing.ErrNotFound))

	bad := "nope"
	_, err = f.property.CreateProperty(ctx, dto.PropertyRequest{Name: "Loft", OwnerID: &bad})
	var cfgErr *billing.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
