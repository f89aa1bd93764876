package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siiau-planner-api/internal/models"
)

const savedScheduleColumns = "id, owner_id, name, data, created_at, updated_at"

// SavedScheduleRepository persists user schedules.
type SavedScheduleRepository struct {
	db *sqlx.DB
}

// NewSavedScheduleRepository constructs the repository.
func NewSavedScheduleRepository(db *sqlx.DB) *SavedScheduleRepository {
	return &SavedScheduleRepository{db: db}
}

// Create inserts a schedule, filling in the identifier and timestamps.
func (r *SavedScheduleRepository) Create(ctx context.Context, schedule *models.SavedSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	const query = `INSERT INTO saved_schedules (id, owner_id, name, data, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :data, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create saved schedule: %w", err)
	}
	return nil
}

// FindByID fetches a schedule regardless of owner; callers enforce access.
func (r *SavedScheduleRepository) FindByID(ctx context.Context, id string) (*models.SavedSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM saved_schedules WHERE id = $1", savedScheduleColumns)
	var schedule models.SavedSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListByOwner returns one page of an owner's schedules, most recently updated first.
func (r *SavedScheduleRepository) ListByOwner(ctx context.Context, filter models.SavedScheduleFilter) ([]models.SavedSchedule, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM saved_schedules WHERE owner_id = $1 ORDER BY updated_at DESC LIMIT %d OFFSET %d", savedScheduleColumns, size, offset)
	var schedules []models.SavedSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, filter.OwnerID); err != nil {
		return nil, 0, fmt.Errorf("list saved schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM saved_schedules WHERE owner_id = $1", filter.OwnerID); err != nil {
		return nil, 0, fmt.Errorf("count saved schedules: %w", err)
	}
	return schedules, total, nil
}

// Update replaces the name and payload of a schedule and bumps updated_at.
func (r *SavedScheduleRepository) Update(ctx context.Context, schedule *models.SavedSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE saved_schedules SET name = :name, data = :data, updated_at = :updated_at WHERE id = :id AND owner_id = :owner_id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update saved schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule; export jobs cascade.
func (r *SavedScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM saved_schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete saved schedule: %w", err)
	}
	return nil
}
