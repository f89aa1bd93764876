package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siiau-planner-api/internal/dto"
	"github.com/noah-isme/siiau-planner-api/internal/models"
	"github.com/noah-isme/siiau-planner-api/internal/siiau"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

type portalFetcher interface {
	FetchOfferingPage(ctx context.Context, q models.OfferingQuery) (string, error)
	FetchFormPage(ctx context.Context) (string, error)
	FetchMajorsPage(ctx context.Context, campus string) (string, error)
}

type portalCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type parseRecorder interface {
	RecordParse(page, outcome string)
}

// OfferingServiceConfig holds cache settings for portal lookups.
type OfferingServiceConfig struct {
	KeyPrefix string
	FormTTL   time.Duration
	MajorsTTL time.Duration
}

// OfferingService answers offering, form option and majors queries against
// the portal.
type OfferingService struct {
	portal    portalFetcher
	cache     portalCache
	metrics   parseRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       OfferingServiceConfig
}

// NewOfferingService constructs the service. cache and metrics may be nil.
func NewOfferingService(portal portalFetcher, cache portalCache, metrics parseRecorder, validate *validator.Validate, logger *zap.Logger, cfg OfferingServiceConfig) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "siiau"
	}
	return &OfferingService{
		portal:    portal,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Query fetches and parses the offering for the request and derives the
// section and subject views.
func (s *OfferingService) Query(ctx context.Context, req dto.OfferingQueryRequest) (*dto.OfferingQueryResponse, error) {
	req.Cycle = strings.TrimSpace(req.Cycle)
	req.Campus = strings.TrimSpace(req.Campus)
	req.Major = strings.TrimSpace(req.Major)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ciclop, cup and majrp are required; hours use HHMM")
	}

	page, err := s.portal.FetchOfferingPage(ctx, req.Query())
	if err != nil {
		return nil, upstreamError(err)
	}
	records, err := siiau.ParseOffering(page)
	s.recordParse("offering", err)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNoResults) {
			s.logger.Warn("offering page not parsed", zap.String("ciclop", req.Cycle), zap.String("cup", req.Campus), zap.Error(err))
		}
		return nil, err
	}

	return &dto.OfferingQueryResponse{
		Records:  records,
		Sections: GroupSections(records),
		Subjects: UniqueSubjects(records),
	}, nil
}

// FormOptions returns the cycle and campus choices of the query form.
func (s *OfferingService) FormOptions(ctx context.Context) (models.FormOptions, bool, error) {
	key := s.cfg.KeyPrefix + ":form-options"
	var cached models.FormOptions
	if s.lookup(ctx, key, &cached) {
		return cached, true, nil
	}

	page, err := s.portal.FetchFormPage(ctx)
	if err != nil {
		return nil, false, upstreamError(err)
	}
	options, err := siiau.ExtractFormOptions(page, models.FieldCycle, models.FieldCampus)
	s.recordParse("form", err)
	if err != nil {
		s.logger.Warn("form page not parsed", zap.Error(err))
		return nil, false, err
	}
	s.store(ctx, key, options, s.cfg.FormTTL)
	return options, false, nil
}

// Majors returns the majors offered at a campus keyed by code.
func (s *OfferingService) Majors(ctx context.Context, campus string) (models.Majors, bool, error) {
	campus = strings.TrimSpace(campus)
	if campus == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "cup is required")
	}
	key := fmt.Sprintf("%s:majors:%s", s.cfg.KeyPrefix, strings.ToUpper(campus))
	var cached models.Majors
	if s.lookup(ctx, key, &cached) {
		return cached, true, nil
	}

	page, err := s.portal.FetchMajorsPage(ctx, campus)
	if err != nil {
		return nil, false, upstreamError(err)
	}
	majors, err := siiau.ExtractMajors(page)
	s.recordParse("majors", err)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNoResults) {
			s.logger.Warn("majors page not parsed", zap.String("cup", campus), zap.Error(err))
		}
		return nil, false, err
	}
	s.store(ctx, key, majors, s.cfg.MajorsTTL)
	return majors, false, nil
}

// PurgeCache drops every cached form and majors page, typically when a new
// term opens and the portal lists change.
func (s *OfferingService) PurgeCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, s.cfg.KeyPrefix+":*")
}

func (s *OfferingService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *OfferingService) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, ttl)
}

func (s *OfferingService) recordParse(page string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, appErrors.ErrNoResults):
		outcome = "no_results"
	case errors.Is(err, appErrors.ErrUpstreamShapeChanged):
		outcome = "shape_changed"
	default:
		outcome = "error"
	}
	s.metrics.RecordParse(page, outcome)
}

// upstreamError keeps typed portal errors and maps anything else, such as a
// cancelled context, to an unavailable portal.
func upstreamError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "portal request failed")
}
