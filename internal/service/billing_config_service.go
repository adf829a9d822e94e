package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"itineramio/internal/billing"
	"itineramio/internal/dto"
	"itineramio/internal/model"
	"itineramio/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BillingConfigService interface {
	// Resolve returns the active config of a property or billing.ErrNotConfigured.
	Resolve(ctx context.Context, propertyID uuid.UUID) (*model.PropertyBillingConfig, error)
	// ResolveOwner returns the owner billed under cfg, or nil when none is linked.
	ResolveOwner(ctx context.Context, cfg *model.PropertyBillingConfig) (*model.PropertyOwner, error)
	// ResolveAlias maps a platform-reported property name onto a property id.
	ResolveAlias(ctx context.Context, rawName, platform string) (uuid.UUID, error)
	// ActivePropertyIDs lists every property that can be liquidated.
	ActivePropertyIDs(ctx context.Context) ([]uuid.UUID, error)
	Get(ctx context.Context, propertyID uuid.UUID) (*dto.BillingConfigResponse, error)
	Upsert(ctx context.Context, propertyID uuid.UUID, req dto.BillingConfigRequest) (*dto.BillingConfigResponse, error)
}

type billingConfigService struct {
	repo       repository.BillingConfigRepository
	properties repository.PropertyRepository
	invoices   repository.InvoiceRepository
}

func NewBillingConfigService(
	repo repository.BillingConfigRepository,
	properties repository.PropertyRepository,
	invoices repository.InvoiceRepository,
) BillingConfigService {
	return &billingConfigService{repo: repo, properties: properties, invoices: invoices}
}

func (s *billingConfigService) Resolve(ctx context.Context, propertyID uuid.UUID) (*model.PropertyBillingConfig, error) {
	cfg, err := s.repo.FindByProperty(ctx, propertyID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && (cfg == nil || !cfg.Active)) {
		return nil, fmt.Errorf("property %s: %w", propertyID, billing.ErrNotConfigured)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *billingConfigService) ResolveOwner(ctx context.Context, cfg *model.PropertyBillingConfig) (*model.PropertyOwner, error) {
	ownerID := cfg.OwnerID
	if ownerID == nil {
		p, err := s.properties.FindByID(ctx, cfg.PropertyID)
		if err != nil {
			return nil, notFound(err, "property")
		}
		ownerID = p.OwnerID
	}
	if ownerID == nil {
		return nil, nil
	}
	o, err := s.properties.FindOwner(ctx, *ownerID)
	if err != nil {
		return nil, notFound(err, "owner")
	}
	return o, nil
}

func (s *billingConfigService) ResolveAlias(ctx context.Context, rawName, platform string) (uuid.UUID, error) {
	key := aliasKey(rawName)
	if key == "" {
		return uuid.Nil, billing.ErrAliasNotFound
	}
	configs, err := s.repo.ListActive(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	matches := map[uuid.UUID]struct{}{}
	for i := range configs {
		cfg := &configs[i]
		names := aliasesFor(cfg, platform)
		if cfg.Property != nil {
			names = append(names, cfg.Property.Name)
		}
		for _, n := range names {
			if aliasKey(n) == key {
				matches[cfg.PropertyID] = struct{}{}
				break
			}
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("%q: %w", rawName, billing.ErrAliasNotFound)
	case 1:
		for id := range matches {
			return id, nil
		}
	}
	return uuid.Nil, fmt.Errorf("%q: %w", rawName, billing.ErrAliasAmbiguous)
}

func (s *billingConfigService) ActivePropertyIDs(ctx context.Context) ([]uuid.UUID, error) {
	configs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(configs))
	for _, c := range configs {
		ids = append(ids, c.PropertyID)
	}
	return ids, nil
}

func (s *billingConfigService) Get(ctx context.Context, propertyID uuid.UUID) (*dto.BillingConfigResponse, error) {
	cfg, err := s.repo.FindByProperty(ctx, propertyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("property %s: %w", propertyID, billing.ErrNotConfigured)
	}
	if err != nil {
		return nil, err
	}
	return configToResponse(cfg), nil
}

func (s *billingConfigService) Upsert(ctx context.Context, propertyID uuid.UUID, req dto.BillingConfigRequest) (*dto.BillingConfigResponse, error) {
	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, notFound(err, "property")
	}
	if err := checkConfig(req); err != nil {
		return nil, err
	}

	cfg := &model.PropertyBillingConfig{
		PropertyID:                  propertyID,
		CommissionType:              req.CommissionType,
		CommissionValue:             req.CommissionValue,
		CommissionVat:               req.CommissionVat,
		CleaningType:                orDefault(req.CleaningType, model.RateFixed),
		CleaningValue:               req.CleaningValue,
		CleaningFeeRecipient:        req.CleaningFeeRecipient,
		CleaningIncludedInRoomTotal: req.CleaningIncludedInRoomTotal,
		IncomeReceiver:              orDefault(req.IncomeReceiver, "MANAGER"),
		DefaultVatRate:              req.DefaultVatRate,
		DefaultRetentionRate:        req.DefaultRetentionRate,
		InvoiceDetailLevel:          orDefault(req.InvoiceDetailLevel, model.DetailSummary),
		NetGrossStrategy:            orDefault(req.NetGrossStrategy, model.NetGrossReportedFees),
		AirbnbNames:                 jsonList(req.AirbnbNames),
		BookingNames:                jsonList(req.BookingNames),
		VrboNames:                   jsonList(req.VrboNames),
		Active:                      req.Active == nil || *req.Active,
	}
	if req.CleaningFeeRecipient == model.CleaningSplit {
		cfg.CleaningFeeSplitPct = req.CleaningFeeSplitPct
	}
	if req.OwnerID != nil {
		oid, err := uuid.Parse(*req.OwnerID)
		if err != nil {
			return nil, &billing.ConfigError{Fields: map[string]string{"owner_id": "uuid"}}
		}
		if _, err := s.properties.FindOwner(ctx, oid); err != nil {
			return nil, notFound(err, "owner")
		}
		cfg.OwnerID = &oid
	}
	if req.InvoiceSeriesPrefix != "" {
		series, err := s.invoices.EnsureSeries(ctx, strings.ToUpper(req.InvoiceSeriesPrefix))
		if err != nil {
			return nil, err
		}
		cfg.InvoiceSeriesID = &series.ID
	}

	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return configToResponse(cfg), nil
}

// checkConfig enforces the rules validator tags cannot express.
func checkConfig(req dto.BillingConfigRequest) error {
	fields := map[string]string{}
	hundred := decimal.NewFromInt(100)

	if req.CommissionValue.IsNegative() {
		fields["commission_value"] = "min"
	}
	if req.CommissionType == model.RatePercentage && req.CommissionValue.GreaterThan(hundred) {
		fields["commission_value"] = "max"
	}
	if req.CleaningType == model.RatePercentage && req.CleaningValue.GreaterThan(hundred) {
		fields["cleaning_value"] = "max"
	}
	if req.CleaningValue.IsNegative() {
		fields["cleaning_value"] = "min"
	}
	if req.CleaningFeeRecipient == model.CleaningSplit {
		p := req.CleaningFeeSplitPct
		switch {
		case p == nil:
			fields["cleaning_fee_split_pct"] = "required_if_split"
		case p.IsNegative() || p.GreaterThan(hundred):
			fields["cleaning_fee_split_pct"] = "range_0_100"
		}
	}
	for name, v := range map[string]decimal.Decimal{
		"commission_vat":         req.CommissionVat,
		"default_vat_rate":       req.DefaultVatRate,
		"default_retention_rate": req.DefaultRetentionRate,
	} {
		if v.IsNegative() || v.GreaterThan(hundred) {
			fields[name] = "range_0_100"
		}
	}
	if len(fields) > 0 {
		return &billing.ConfigError{Fields: fields}
	}
	return nil
}

func aliasesFor(cfg *model.PropertyBillingConfig, platform string) []string {
	var raw datatypes.JSON
	switch platform {
	case model.PlatformAirbnb:
		raw = cfg.AirbnbNames
	case model.PlatformBooking:
		raw = cfg.BookingNames
	case model.PlatformVrbo:
		raw = cfg.VrboNames
	default:
		// platforms without their own list match against every alias
		return append(append(decodeList(cfg.AirbnbNames), decodeList(cfg.BookingNames)...), decodeList(cfg.VrboNames)...)
	}
	return decodeList(raw)
}

var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// aliasKey normalizes a property name for matching: accents, case and
// repeated whitespace are ignored.
func aliasKey(s string) string {
	folded, _, err := transform.String(accentFold, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func decodeList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func jsonList(names []string) datatypes.JSON {
	if names == nil {
		names = []string{}
	}
	b, _ := json.Marshal(names)
	return datatypes.JSON(b)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func configToResponse(cfg *model.PropertyBillingConfig) *dto.BillingConfigResponse {
	return &dto.BillingConfigResponse{
		ID:                          cfg.ID.String(),
		PropertyID:                  cfg.PropertyID.String(),
		OwnerID:                     uuidPtrString(cfg.OwnerID),
		CommissionType:              cfg.CommissionType,
		CommissionValue:             cfg.CommissionValue,
		CommissionVat:               cfg.CommissionVat,
		CleaningType:                cfg.CleaningType,
		CleaningValue:               cfg.CleaningValue,
		CleaningFeeRecipient:        cfg.CleaningFeeRecipient,
		CleaningFeeSplitPct:         cfg.CleaningFeeSplitPct,
		CleaningIncludedInRoomTotal: cfg.CleaningIncludedInRoomTotal,
		IncomeReceiver:              cfg.IncomeReceiver,
		DefaultVatRate:              cfg.DefaultVatRate,
		DefaultRetentionRate:        cfg.DefaultRetentionRate,
		InvoiceDetailLevel:          cfg.InvoiceDetailLevel,
		NetGrossStrategy:            cfg.NetGrossStrategy,
		InvoiceSeriesID:             uuidPtrString(cfg.InvoiceSeriesID),
		AirbnbNames:                 decodeList(cfg.AirbnbNames),
		BookingNames:                decodeList(cfg.BookingNames),
		VrboNames:                   decodeList(cfg.VrboNames),
		Active:                      cfg.Active,
	}
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
