package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siiau-planner-api/internal/dto"
	"github.com/noah-isme/siiau-planner-api/internal/models"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

type savedScheduleStore interface {
	Create(ctx context.Context, schedule *models.SavedSchedule) error
	FindByID(ctx context.Context, id string) (*models.SavedSchedule, error)
	ListByOwner(ctx context.Context, filter models.SavedScheduleFilter) ([]models.SavedSchedule, int, error)
	Update(ctx context.Context, schedule *models.SavedSchedule) error
	Delete(ctx context.Context, id string) error
}

// SavedScheduleService manages schedules owned by authenticated users.
type SavedScheduleService struct {
	repo      savedScheduleStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSavedScheduleService constructs the service.
func NewSavedScheduleService(repo savedScheduleStore, validate *validator.Validate, logger *zap.Logger) *SavedScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavedScheduleService{repo: repo, validator: validate, logger: logger}
}

// List returns one page of the owner's schedules, most recently updated first.
func (s *SavedScheduleService) List(ctx context.Context, ownerID string, query dto.ListSavedSchedulesQuery) ([]models.SavedSchedule, *models.Pagination, error) {
	filter := models.SavedScheduleFilter{OwnerID: ownerID, Page: query.Page, PageSize: query.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	schedules, total, err := s.repo.ListByOwner(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if schedules == nil {
		schedules = []models.SavedSchedule{}
	}
	return schedules, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a schedule with the conflicts among its selected sections.
func (s *SavedScheduleService) Get(ctx context.Context, ownerID, id string) (*models.SavedScheduleDetail, error) {
	schedule, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return &models.SavedScheduleDetail{
		SavedSchedule: *schedule,
		Conflicts:     SummarizeConflicts(ScheduledSessions(schedule.Data)),
	}, nil
}

// Create stores a new schedule for the owner.
func (s *SavedScheduleService) Create(ctx context.Context, ownerID string, req dto.CreateSavedScheduleRequest) (*models.SavedSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule := &models.SavedSchedule{
		OwnerID: ownerID,
		Name:    scheduleName(req.Name),
		Data:    normalizeScheduleData(req.Data),
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}
	s.logger.Info("schedule saved", zap.String("schedule_id", schedule.ID), zap.String("owner_id", ownerID), zap.Int("nrcs", len(schedule.Data.SelectedNRCs)))
	return schedule, nil
}

// Update changes the name and/or data of a schedule.
func (s *SavedScheduleService) Update(ctx context.Context, ownerID, id string, req dto.UpdateSavedScheduleRequest) (*models.SavedSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.Name == nil && req.Data == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	schedule, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		schedule.Name = scheduleName(*req.Name)
	}
	if req.Data != nil {
		schedule.Data = normalizeScheduleData(*req.Data)
	}
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Delete removes a schedule together with its exports.
func (s *SavedScheduleService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.load(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

func (s *SavedScheduleService) load(ctx context.Context, ownerID, id string) (*models.SavedSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.OwnerID != ownerID {
		return nil, appErrors.ErrForbidden
	}
	return schedule, nil
}

// ScheduledSessions returns the sessions of the selected NRCs, or every
// session when nothing is selected.
func ScheduledSessions(data models.ScheduleData) []models.SessionRecord {
	if len(data.SelectedNRCs) == 0 {
		return data.Sessions
	}
	return SelectByNRC(data.Sessions, data.SelectedNRCs)
}

func scheduleName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DefaultScheduleName
	}
	return name
}

func normalizeScheduleData(data models.ScheduleData) models.ScheduleData {
	seen := make(map[string]struct{}, len(data.SelectedNRCs))
	nrcs := make([]string, 0, len(data.SelectedNRCs))
	for _, nrc := range data.SelectedNRCs {
		nrc = strings.TrimSpace(nrc)
		if _, dup := seen[nrc]; dup || nrc == "" {
			continue
		}
		seen[nrc] = struct{}{}
		nrcs = append(nrcs, nrc)
	}
	data.SelectedNRCs = nrcs
	if data.Sessions == nil {
		data.Sessions = []models.SessionRecord{}
	}
	data.CalendarLabel = strings.TrimSpace(data.CalendarLabel)
	return data
}
