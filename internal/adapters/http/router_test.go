package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/filsalgado/simpleRGN/internal/adapters/db/gormstore"
	"github.com/filsalgado/simpleRGN/internal/application"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, uint) {
	t.Helper()
	db, err := gormstore.Open(gormstore.Options{Driver: gormstore.DriverSQLite, DSN: filepath.Join(t.TempDir(), "http_test.db")})
	require.NoError(t, err)
	require.NoError(t, gormstore.RunMigrations(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	parish := gormstore.ParishModel{Name: "São Pedro"}
	require.NoError(t, db.Create(&parish).Error)

	log := logrus.New()
	log.SetOutput(io.Discard)
	reg := prometheus.NewRegistry()
	service := application.NewRecordService(gormstore.NewRecordRepository(db), log, application.NewMetrics(reg))
	return NewRouter(service, Options{
		Logger:      log,
		MetricsPath: "/metrics",
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}), parish.ID
}

func do(t *testing.T, h http.Handler, method, path, body string, actor bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if actor {
		req.Header.Set(actorHeader, "5")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecordsCRUDOverHTTP(t *testing.T) {
	h, parishID := newTestRouter(t)

	payload := `{
		"event": {"type": "BAPTISM", "year": "1799", "month": 0, "parishId": "` + strconv.FormatUint(uint64(parishID), 10) + `"},
		"subjects": {"primary": {"id": "new", "name": "Ana", "father": {"id": "temp_1", "name": "Pedro"}, "mother": {"name": ""}}},
		"participants": [{"id": null, "name": "Padre Bento", "role": "PRIEST", "professionId": ""}]
	}`
	rec := do(t, h, http.MethodPost, "/api/records", payload, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var created struct {
		Success bool `json:"success"`
		ID      uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	path := "/api/records/" + strconv.FormatUint(uint64(created.ID), 10)

	rec = do(t, h, http.MethodGet, path, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var record application.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.NotNil(t, record.Subjects.Primary)
	require.NotNil(t, record.Subjects.Primary.Father)
	assert.Equal(t, "Pedro", record.Subjects.Primary.Father.Name)
	require.Len(t, record.Participants, 1)
	require.NotNil(t, record.Event.Year)
	assert.Equal(t, 1799, *record.Event.Year)
	assert.Nil(t, record.Event.Month)

	rec = do(t, h, http.MethodPatch, path, rec.Body.String(), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/records?type=BAPTISM&sortBy=name&sortOrder=asc", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var page application.RecordPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Ana", page.Data[0].MainName)
	assert.Equal(t, "1799-?-?", page.Data[0].Date)

	rec = do(t, h, http.MethodDelete, path, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, path, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rgn_records_operations_total")
}

func TestRecordsErrorStatuses(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/records", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/records", "{not json", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/records", `{"event":{"type":"BAPTISM"},"subjects":{"primary":{"name":"Ana"}}}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "parish is required")

	rec = do(t, h, http.MethodPost, "/api/records", `{"event":{"type":"BAPTISM","parishId":999},"subjects":{"primary":{"name":"Ana"}}}`, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "unknown parish violates a foreign key")

	rec = do(t, h, http.MethodPatch, "/api/records/77", `{"event":{},"subjects":{"primary":{"name":"Ana"}}}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/records/abc", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/records?type=BURIAL", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}
