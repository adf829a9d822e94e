package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"itineramio/internal/billing"
	"itineramio/internal/config"
	"itineramio/internal/dto"
	"itineramio/internal/importer"
	"itineramio/internal/model"
	"itineramio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// maxTemplateColumns bounds mapping indices of saved templates, which are
// checked before any matrix is known.
const maxTemplateColumns = 1 << 10

type ImportService interface {
	ImportReservations(ctx context.Context, propertyID uuid.UUID, req dto.ImportRequest) (*dto.ImportReport, error)
	IngestParsedEmail(ctx context.Context, e dto.ParsedEmailReservation) (*dto.EmailIngestResult, error)
	SaveTemplate(ctx context.Context, req dto.ImportTemplateRequest) (*dto.ImportTemplateResponse, error)
	ListTemplates(ctx context.Context) ([]dto.ImportTemplateResponse, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

type importService struct {
	reservations repository.ReservationRepository
	templates    repository.ImportTemplateRepository
	configs      BillingConfigService
	cfg          *config.Config
}

func NewImportService(
	reservations repository.ReservationRepository,
	templates repository.ImportTemplateRepository,
	configs BillingConfigService,
	cfg *config.Config,
) ImportService {
	return &importService{reservations: reservations, templates: templates, configs: configs, cfg: cfg}
}

// ── ImportReservations ────────────────────────────────────────────────────────
// Rows are processed in source order. A bad row is reported and skipped; only
// a missing billing config, a bad mapping or a cancelled context stop the batch.

func (s *importService) ImportReservations(ctx context.Context, propertyID uuid.UUID, req dto.ImportRequest) (*dto.ImportReport, error) {
	bc, err := s.configs.Resolve(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	mapping, icfg, hasHeader, err := s.resolveMapping(ctx, req)
	if err != nil {
		return nil, err
	}
	parser, err := importer.NewParser(req.Rows, mapping, icfg, hasHeader)
	if err != nil {
		return nil, err
	}

	maxRows, maxErrors := s.limits(req)
	report := &dto.ImportReport{Errors: []dto.ImportRowError{}}

	for c := range parser.Candidates() {
		if ctx.Err() != nil || (maxRows > 0 && report.TotalRows >= maxRows) {
			break
		}
		report.TotalRows++

		if c.Blank {
			report.SkippedCount++
			continue
		}
		v, errs := importer.Validate(c)
		if len(errs) > 0 {
			addRowError(report, c.Row, strings.Join(errs, "; "), c.Raw)
		} else {
			res := v.ToReservation(propertyID, bc.ID, model.SourceCSV, s.currency())
			switch outcome, err := s.persist(ctx, &res); {
			case err != nil:
				log.Error().Err(err).Int("row", c.Row).Str("property_id", propertyID.String()).Msg("import_service: persist failed")
				addRowError(report, c.Row, "storage error", c.Raw)
			case outcome == dto.IngestImported:
				report.ImportedCount++
			case req.SkipDuplicates:
				report.SkippedCount++
			default:
				addRowError(report, c.Row, importer.ErrMsgDuplicate, c.Raw)
			}
		}
		if maxErrors > 0 && report.ErrorCount >= maxErrors {
			break
		}
	}
	report.Truncated = report.TotalRows < parser.Len()

	log.Info().
		Str("property_id", propertyID.String()).
		Int("total", report.TotalRows).
		Int("imported", report.ImportedCount).
		Int("skipped", report.SkippedCount).
		Int("errors", report.ErrorCount).
		Bool("truncated", report.Truncated).
		Msg("import_service: batch done")
	return report, nil
}

// persist inserts r unless a reservation with the same identity exists.
// A unique-index hit on insert (a concurrent import won) counts as a duplicate.
func (s *importService) persist(ctx context.Context, r *model.Reservation) (string, error) {
	dup, err := s.reservations.FindDuplicate(ctx, r)
	if err != nil {
		return "", err
	}
	if dup != nil {
		return dto.IngestSkipped, nil
	}
	if err := s.reservations.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.IngestSkipped, nil
		}
		return "", err
	}
	return dto.IngestImported, nil
}

func addRowError(report *dto.ImportReport, row int, msg string, raw []string) {
	report.ErrorCount++
	report.Errors = append(report.Errors, dto.ImportRowError{Row: row, Error: msg, Data: raw})
}

func (s *importService) resolveMapping(ctx context.Context, req dto.ImportRequest) (importer.ColumnMapping, importer.ImportConfig, bool, error) {
	var (
		mapping   importer.ColumnMapping
		icfg      importer.ImportConfig
		hasHeader = true
		found     bool
	)
	if req.TemplateID != nil {
		id, err := uuid.Parse(*req.TemplateID)
		if err != nil {
			return mapping, icfg, false, fmt.Errorf("%w: template_id", importer.ErrInvalidMapping)
		}
		t, err := s.templates.FindByID(ctx, id)
		if err != nil {
			return mapping, icfg, false, notFound(err, "import template")
		}
		if err := json.Unmarshal(t.Mapping, &mapping); err != nil {
			return mapping, icfg, false, fmt.Errorf("%w: stored mapping: %v", importer.ErrInvalidMapping, err)
		}
		if err := json.Unmarshal(t.Config, &icfg); err != nil {
			return mapping, icfg, false, fmt.Errorf("%w: stored config: %v", importer.ErrInvalidMapping, err)
		}
		hasHeader = t.HasHeader
		found = true
	}
	if req.Mapping != nil {
		mapping = *req.Mapping
	}
	if req.Config != nil {
		icfg = *req.Config
	}
	if !found && (req.Mapping == nil || req.Config == nil) {
		return mapping, icfg, false, fmt.Errorf("%w: mapping and config, or template_id, are required", importer.ErrInvalidMapping)
	}
	if req.HasHeader != nil {
		hasHeader = *req.HasHeader
	}
	return mapping, icfg, hasHeader, nil
}

// ── IngestParsedEmail ─────────────────────────────────────────────────────────
// Emails run through the same validator and deduplicator as CSV rows.
// Duplicates are always skipped: the same confirmation mail may arrive twice.

func (s *importService) IngestParsedEmail(ctx context.Context, e dto.ParsedEmailReservation) (*dto.EmailIngestResult, error) {
	e.Platform = strings.ToUpper(strings.TrimSpace(e.Platform))
	propertyID, err := s.configs.ResolveAlias(ctx, e.PropertyName, e.Platform)
	if errors.Is(err, billing.ErrAliasNotFound) || errors.Is(err, billing.ErrAliasAmbiguous) {
		return &dto.EmailIngestResult{Outcome: dto.IngestRejected, Errors: []string{err.Error()}}, nil
	}
	if err != nil {
		return nil, err
	}
	result := &dto.EmailIngestResult{PropertyID: propertyID.String()}

	bc, err := s.configs.Resolve(ctx, propertyID)
	if errors.Is(err, billing.ErrNotConfigured) {
		result.Outcome = dto.IngestRejected
		result.Errors = []string{err.Error()}
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	v, errs := importer.Validate(emailCandidate(e))
	if len(errs) > 0 {
		result.Outcome = dto.IngestRejected
		result.Errors = errs
		return result, nil
	}
	currency := strings.ToUpper(strings.TrimSpace(e.Currency))
	if len(currency) != 3 {
		currency = s.currency()
	}
	res := v.ToReservation(propertyID, bc.ID, model.SourceEmail, currency)
	if res.AmountType == model.AmountNet && e.RoomTotal != nil {
		res.RoomTotal = *e.RoomTotal
	}
	outcome, err := s.persist(ctx, &res)
	if err != nil {
		return nil, err
	}
	result.Outcome = outcome
	if outcome == dto.IngestImported {
		result.ReservationID = res.ID.String()
	}
	log.Info().
		Str("property_id", propertyID.String()).
		Str("platform", e.Platform).
		Str("outcome", outcome).
		Msg("import_service: email reservation")
	return result, nil
}

// emailCandidate converts parser output of a confirmation email into the same
// candidate shape the CSV parser yields. Dates arrive as YYYY-MM-DD.
func emailCandidate(e dto.ParsedEmailReservation) importer.Candidate {
	c := importer.Candidate{
		GuestName:        e.GuestName,
		ConfirmationCode: e.ConfirmationCode,
		CheckIn:          importer.ParseDate(e.CheckIn, importer.DateISO),
		CheckOut:         importer.ParseDate(e.CheckOut, importer.DateISO),
		Nights:           e.Nights,
		CleaningFee:      e.CleaningFee,
		Commission:       e.HostServiceFee,
		Status:           importer.NormalizeStatus(e.Status),
		Platform:         e.Platform,
		AmountType:       model.AmountGross,
		Amount:           e.RoomTotal,
	}
	if e.HostEarnings != nil {
		c.AmountType = model.AmountNet
		c.Amount = e.HostEarnings
	}
	if c.Amount != nil {
		c.AmountRaw = c.Amount.String()
	}
	return c
}

// ── Import templates ──────────────────────────────────────────────────────────

func (s *importService) SaveTemplate(ctx context.Context, req dto.ImportTemplateRequest) (*dto.ImportTemplateResponse, error) {
	if err := req.Config.Check(); err != nil {
		return nil, err
	}
	if err := req.Mapping.Check(maxTemplateColumns); err != nil {
		return nil, err
	}
	mapping, err := json.Marshal(req.Mapping)
	if err != nil {
		return nil, err
	}
	icfg, err := json.Marshal(req.Config)
	if err != nil {
		return nil, err
	}
	t := &model.ImportTemplate{
		Name:      strings.TrimSpace(req.Name),
		Platform:  req.Config.Platform,
		Mapping:   datatypes.JSON(mapping),
		Config:    datatypes.JSON(icfg),
		HasHeader: req.HasHeader,
	}
	if err := s.templates.Upsert(ctx, t); err != nil {
		return nil, err
	}
	return templateToResponse(t), nil
}

func (s *importService) ListTemplates(ctx context.Context) ([]dto.ImportTemplateResponse, error) {
	list, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ImportTemplateResponse, 0, len(list))
	for i := range list {
		out = append(out, *templateToResponse(&list[i]))
	}
	return out, nil
}

func (s *importService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	ok, err := s.templates.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("import template %s: %w", id, billing.ErrNotFound)
	}
	return nil
}

func templateToResponse(t *model.ImportTemplate) *dto.ImportTemplateResponse {
	resp := &dto.ImportTemplateResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Platform:  t.Platform,
		HasHeader: t.HasHeader,
	}
	_ = json.Unmarshal(t.Mapping, &resp.Mapping)
	_ = json.Unmarshal(t.Config, &resp.Config)
	return resp
}

func (s *importService) currency() string {
	if s.cfg != nil && s.cfg.DefaultCurrency != "" {
		return s.cfg.DefaultCurrency
	}
	return "EUR"
}

// limits prefers the request's caps over the configured ones; zero means no cap.
func (s *importService) limits(req dto.ImportRequest) (maxRows, maxErrors int) {
	if s.cfg == nil {
		return firstPositive(req.MaxRows), firstPositive(req.MaxErrors)
	}
	return firstPositive(req.MaxRows, s.cfg.ImportMaxRows), firstPositive(req.MaxErrors, s.cfg.ImportMaxErrors)
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
