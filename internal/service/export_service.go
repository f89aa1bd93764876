package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siiau-planner-api/internal/models"
	"github.com/noah-isme/siiau-planner-api/pkg/export"
	"github.com/noah-isme/siiau-planner-api/pkg/storage"
)

type scheduleLoader interface {
	FindByID(ctx context.Context, id string) (*models.SavedSchedule, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// errScheduleGone marks exports whose schedule was deleted; retrying cannot help.
var errScheduleGone = errors.New("schedule no longer exists")

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

var exportHeaders = []string{"NRC", "Clave", "Materia", "Sección", "Profesor", "Día", "Inicio", "Fin", "Edificio", "Aula"}

// ExportService renders saved schedules to files and signs download links.
type ExportService struct {
	schedules scheduleLoader
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default CSV and PDF exporters.
func NewExportService(schedules scheduleLoader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		schedules: schedules,
		storage:   files,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the schedule referenced by job and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	schedule, err := s.schedules.FindByID(ctx, job.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errScheduleGone
		}
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	dataset := BuildScheduleDataset(schedule.Data)
	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, exportTitle(schedule))
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(buildFilename(schedule, job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.SignedToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// BuildScheduleDataset lays out a schedule as one row per session, ordered by
// weekday then start time, with conflict warnings as notes.
func BuildScheduleDataset(data models.ScheduleData) export.Dataset {
	sessions := append([]models.SessionRecord(nil), ScheduledSessions(data)...)
	sort.SliceStable(sessions, func(i, j int) bool {
		di, dj := weekdayOrder(sessions[i].Dia), weekdayOrder(sessions[j].Dia)
		if di != dj {
			return di < dj
		}
		return deref(sessions[i].HoraInicio) < deref(sessions[j].HoraInicio)
	})

	rows := make([]map[string]string, 0, len(sessions))
	for _, r := range sessions {
		rows = append(rows, map[string]string{
			"NRC":      r.NRC,
			"Clave":    r.Clave,
			"Materia":  r.Materia,
			"Sección":  r.Seccion,
			"Profesor": r.Profesor,
			"Día":      deref((*string)(r.Dia)),
			"Inicio":   deref(r.HoraInicio),
			"Fin":      deref(r.HoraFin),
			"Edificio": deref(r.Edificio),
			"Aula":     deref(r.Aula),
		})
	}

	return export.Dataset{
		Headers: exportHeaders,
		Rows:    rows,
		Notes:   SummarizeConflicts(sessions).Messages,
	}
}

// weekdayOrder sorts unscheduled sessions last.
func weekdayOrder(day *models.Weekday) int {
	if day == nil {
		return len(models.Weekdays)
	}
	for i, d := range models.Weekdays {
		if d == *day {
			return i
		}
	}
	return len(models.Weekdays)
}

func exportTitle(schedule *models.SavedSchedule) string {
	title := schedule.Name
	if label := schedule.Data.CalendarLabel; label != "" {
		title += " - " + label
	}
	if cycle := schedule.Data.FormParams.Cycle; cycle != "" {
		title += " (" + cycle + ")"
	}
	return title
}

func buildFilename(schedule *models.SavedSchedule, job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	short := job.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(schedule.Name), short, timestamp, job.Format)
}

func sanitizeFilename(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "horario"
	}
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '/', r == '.':
			b.WriteRune('_')
		}
	}
	result := strings.Trim(b.String(), "_")
	if result == "" {
		return "horario"
	}
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
