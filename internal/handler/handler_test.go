package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siiau-planner-api/internal/dto"
	"github.com/noah-isme/siiau-planner-api/internal/middleware"
	"github.com/noah-isme/siiau-planner-api/internal/models"
	"github.com/noah-isme/siiau-planner-api/internal/service"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func authenticate(c *gin.Context, userID string) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID})
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type offeringServiceMock struct {
	queryReq  dto.OfferingQueryRequest
	queryResp *dto.OfferingQueryResponse
	queryErr  error
	options   models.FormOptions
	majors    models.Majors
	campus    string
	hit       bool
	err       error
}

func (m *offeringServiceMock) Query(ctx context.Context, req dto.OfferingQueryRequest) (*dto.OfferingQueryResponse, error) {
	m.queryReq = req
	return m.queryResp, m.queryErr
}

func (m *offeringServiceMock) FormOptions(ctx context.Context) (models.FormOptions, bool, error) {
	return m.options, m.hit, m.err
}

func (m *offeringServiceMock) Majors(ctx context.Context, campus string) (models.Majors, bool, error) {
	m.campus = campus
	return m.majors, m.hit, m.err
}

func TestOfferingHandlerFormOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &offeringServiceMock{
		options: models.FormOptions{models.FieldCycle: {{Value: "202410", Description: "Calendario 24 A"}}},
		hit:     true,
	}
	h := NewOfferingHandler(svc)

	c, w := newGinContext(http.MethodGet, "/siiau/form-options", nil)
	h.FormOptions(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	var options models.FormOptions
	require.NoError(t, json.Unmarshal(env.Data, &options))
	assert.Equal(t, "202410", options[models.FieldCycle][0].Value)
}

func TestOfferingHandlerMajors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &offeringServiceMock{majors: models.Majors{"INCO": "INGENIERIA EN COMPUTACION"}}
	h := NewOfferingHandler(svc)

	c, w := newGinContext(http.MethodGet, "/siiau/majors?cup=D", nil)
	h.Majors(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "D", svc.campus)

	svc.err = appErrors.Clone(appErrors.ErrValidation, "cup is required")
	c, w = newGinContext(http.MethodGet, "/siiau/majors", nil)
	h.Majors(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferingHandlerQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &offeringServiceMock{queryResp: &dto.OfferingQueryResponse{
		Records:  []models.SessionRecord{{NRC: "101", Clave: "I5882", Materia: "PROGRAMACION"}},
		Sections: []models.Section{{NRC: "101"}},
		Subjects: []models.Subject{{Clave: "I5882", Materia: "PROGRAMACION"}},
	}}
	h := NewOfferingHandler(svc)

	payload, _ := json.Marshal(map[string]string{"ciclop": "202410", "cup": "D", "majrp": "INCO"})
	c, w := newGinContext(http.MethodPost, "/siiau/offerings/query", payload)
	h.Query(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "INCO", svc.queryReq.Major)
	env := decode(t, w)
	assert.EqualValues(t, 1, env.Meta["records"])
}

func TestOfferingHandlerQueryErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewOfferingHandler(&offeringServiceMock{})

	c, w := newGinContext(http.MethodPost, "/siiau/offerings/query", []byte("{"))
	h.Query(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	svc := &offeringServiceMock{queryErr: appErrors.Clone(appErrors.ErrUpstreamShapeChanged, "results table missing")}
	h = NewOfferingHandler(svc)
	c, w = newGinContext(http.MethodPost, "/siiau/offerings/query", []byte(`{"ciclop":"202410","cup":"D","majrp":"INCO"}`))
	h.Query(c)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, appErrors.ErrUpstreamShapeChanged.Code, decode(t, w).Error.Code)
}

func TestConflictHandlerCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	monday := models.Monday
	clock := func(v string) *string { return &v }
	req := dto.ConflictCheckRequest{
		Records: []models.SessionRecord{
			{NRC: "101", Materia: "CALCULO", Dia: &monday, HoraInicio: clock("07:00"), HoraFin: clock("08:00")},
			{NRC: "102", Materia: "FISICA", Dia: &monday, HoraInicio: clock("07:30"), HoraFin: clock("09:00")},
			{NRC: "103", Materia: "QUIMICA", Dia: &monday, HoraInicio: clock("07:15"), HoraFin: clock("07:45")},
		},
		SelectedNRCs: []string{"101", "102"},
	}
	payload, _ := json.Marshal(req)
	c, w := newGinContext(http.MethodPost, "/conflicts/check", payload)
	NewConflictHandler().Check(c)

	require.Equal(t, http.StatusOK, w.Code)
	var summary models.ConflictSummary
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &summary))
	assert.Len(t, summary.Pairs, 1)
	assert.Equal(t, []string{"101", "102"}, summary.ConflictingNRCs)

	c, w = newGinContext(http.MethodPost, "/conflicts/check", []byte(`{}`))
	NewConflictHandler().Check(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

type savedScheduleServiceMock struct {
	owner    string
	id       string
	query    dto.ListSavedSchedulesQuery
	schedule *models.SavedSchedule
	detail   *models.SavedScheduleDetail
	err      error
}

func (m *savedScheduleServiceMock) List(ctx context.Context, ownerID string, query dto.ListSavedSchedulesQuery) ([]models.SavedSchedule, *models.Pagination, error) {
	m.owner, m.query = ownerID, query
	if m.err != nil {
		return nil, nil, m.err
	}
	return []models.SavedSchedule{*m.schedule}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *savedScheduleServiceMock) Get(ctx context.Context, ownerID, id string) (*models.SavedScheduleDetail, error) {
	m.owner, m.id = ownerID, id
	return m.detail, m.err
}

func (m *savedScheduleServiceMock) Create(ctx context.Context, ownerID string, req dto.CreateSavedScheduleRequest) (*models.SavedSchedule, error) {
	m.owner = ownerID
	return m.schedule, m.err
}

func (m *savedScheduleServiceMock) Update(ctx context.Context, ownerID, id string, req dto.UpdateSavedScheduleRequest) (*models.SavedSchedule, error) {
	m.owner, m.id = ownerID, id
	return m.schedule, m.err
}

func (m *savedScheduleServiceMock) Delete(ctx context.Context, ownerID, id string) error {
	m.owner, m.id = ownerID, id
	return m.err
}

func TestSavedScheduleHandlerRequiresOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSavedScheduleHandler(&savedScheduleServiceMock{})

	c, w := newGinContext(http.MethodGet, "/schedules", nil)
	h.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSavedScheduleHandlerListAndCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &savedScheduleServiceMock{schedule: &models.SavedSchedule{ID: "sched-1", Name: "Mi horario"}}
	h := NewSavedScheduleHandler(svc)

	c, w := newGinContext(http.MethodGet, "/schedules?page=2&page_size=5", nil)
	authenticate(c, "user-1")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", svc.owner)
	assert.Equal(t, 2, svc.query.Page)
	assert.Equal(t, 5, svc.query.PageSize)
	assert.Equal(t, 1, decode(t, w).Pagination.TotalCount)

	c, w = newGinContext(http.MethodPost, "/schedules", []byte(`{"name":"Mi horario","data":{"selectedNrcs":["101"]}}`))
	authenticate(c, "user-1")
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSavedScheduleHandlerGetUpdateDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &savedScheduleServiceMock{
		schedule: &models.SavedSchedule{ID: "sched-1"},
		detail:   &models.SavedScheduleDetail{SavedSchedule: models.SavedSchedule{ID: "sched-1"}},
	}
	h := NewSavedScheduleHandler(svc)

	c, w := newGinContext(http.MethodGet, "/schedules/sched-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}
	authenticate(c, "user-1")
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sched-1", svc.id)

	c, w = newGinContext(http.MethodPut, "/schedules/sched-1", []byte(`{"name":"Nuevo"}`))
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}
	authenticate(c, "user-1")
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodDelete, "/schedules/sched-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}
	authenticate(c, "user-1")
	h.Delete(c)
	require.Equal(t, http.StatusNoContent, c.Writer.Status())

	svc.err = appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another user")
	c, w = newGinContext(http.MethodGet, "/schedules/sched-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}
	authenticate(c, "user-2")
	h.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

type exportServiceMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportStatusResponse
	statusErr   error
	download    *service.ExportDownload
	downloadErr error
	scheduleID  string
}

func (m *exportServiceMock) CreateJob(ctx context.Context, ownerID, scheduleID string, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	m.scheduleID = scheduleID
	return m.createResp, m.createErr
}

func (m *exportServiceMock) GetStatus(ctx context.Context, ownerID, id string) (*dto.ExportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *exportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func TestExportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &exportServiceMock{createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}}
	h := NewExportHandler(svc)

	payload, _ := json.Marshal(dto.ExportRequest{Format: models.ExportFormatPDF})
	c, w := newGinContext(http.MethodPost, "/schedules/sched-1/exports", payload)
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}
	authenticate(c, "user-1")
	h.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "sched-1", svc.scheduleID)
}

func TestExportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &exportServiceMock{statusErr: appErrors.Clone(appErrors.ErrNotFound, "export job not found")}
	h := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	authenticate(c, "user-1")
	h.Status(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "horario.csv")
	require.NoError(t, os.WriteFile(path, []byte("NRC,Clave\n101,I5882\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	svc := &exportServiceMock{download: &service.ExportDownload{
		File:      file,
		Filename:  "horario.csv",
		Format:    models.ExportFormatCSV,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	h := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="horario.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "101,I5882")
}

func TestExportHandlerDownloadRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&exportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "link expired")})

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	h.Download(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	h := NewMetricsHandler(metrics, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
	})

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(metrics, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	c, w = newGinContext(http.MethodGet, "/metrics/summary", nil)
	h.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
}
