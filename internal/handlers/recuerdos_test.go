package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
	"github.com/AnshRaj112/recuerdos-backend/internal/services"
	"github.com/AnshRaj112/recuerdos-backend/internal/store"
)

func newTestRouter(t *testing.T, svc RecuerdoService) http.Handler {
	t.Helper()
	h := NewRecuerdoHandler(svc, time.Second)
	h.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Get("/health", Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.APIHealth)
		r.Get("/stats", h.GetStats)
		r.Get("/calendar", h.GetMonthCalendar)
		r.Get("/calendar/year", h.GetYearCalendar)
		r.Route("/recuerdos", func(r chi.Router) {
			r.Get("/", h.GetRecuerdos)
			r.Post("/", h.CreateRecuerdo)
			r.Get("/search", h.SearchRecuerdos)
			r.Get("/map", h.GetMapMarkers)
			r.Get("/{id}", h.GetRecuerdo)
			r.Put("/{id}", h.UpdateRecuerdo)
			r.Delete("/{id}", h.DeleteRecuerdo)
		})
	})
	return r
}

func newFileBackedRouter(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "recuerdos.json"))
	return newTestRouter(t, services.NewRecuerdoService(st, services.WithLocation(time.UTC)))
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRecuerdosCRUD(t *testing.T) {
	h := newFileBackedRouter(t)

	rec := do(t, h, http.MethodPost, "/api/recuerdos", map[string]interface{}{
		"userId": "u1", "titulo": "Playa", "ubicacion": "Cádiz", "fecha": "2024-01-15",
		"latitud": 36.5, "longitud": -6.3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]interface{}](t, rec)
	id := fmt.Sprint(created["id"])
	assert.Equal(t, "u1", created["userId"])
	assert.Equal(t, "2024-01-15", created["fecha"])
	assert.NotEmpty(t, created["fechaCreacion"])

	rec = do(t, h, http.MethodGet, "/api/recuerdos/"+id+"?userId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Playa", decode[models.Recuerdo](t, rec).Titulo)

	rec = do(t, h, http.MethodPut, "/api/recuerdos/"+id, map[string]interface{}{"userId": "u1", "titulo": "Playa de día"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Recuerdo](t, rec)
	assert.Equal(t, "Playa de día", updated.Titulo)
	assert.Equal(t, "Cádiz", updated.Ubicacion)
	assert.True(t, updated.HasCoordinates())
	assert.True(t, updated.FechaActualizacion.After(updated.FechaCreacion))

	rec = do(t, h, http.MethodGet, "/api/recuerdos?userId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[GetRecuerdosResponse](t, rec)
	assert.Equal(t, 1, list.Total)

	rec = do(t, h, http.MethodGet, "/api/recuerdos/search?userId=u1&q=c%C3%A1diz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Recuerdo](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/api/recuerdos/map?userId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.MarcadorMapa](t, rec), 1)

	rec = do(t, h, http.MethodDelete, "/api/recuerdos/"+id+"?userId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[SuccessResponse](t, rec).Success)

	rec = do(t, h, http.MethodDelete, "/api/recuerdos/"+id+"?userId=u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrorKindNotFound, decode[ErrorResponse](t, rec).Error)
}

func TestEmptyListAndSearch(t *testing.T) {
	h := newFileBackedRouter(t)

	rec := do(t, h, http.MethodGet, "/api/recuerdos?userId=nadie", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recuerdos":[],"total":0}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/recuerdos/search?userId=nadie&q=", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearchByField(t *testing.T) {
	h := newFileBackedRouter(t)
	for _, body := range []map[string]interface{}{
		{"userId": "u1", "titulo": "Playa", "ubicacion": "Cádiz", "fecha": "2024-01-15"},
		{"userId": "u1", "titulo": "Cena", "ubicacion": "Hotel Playa", "fecha": "2024-02-15"},
	} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/recuerdos", body).Code)
	}

	rec := do(t, h, http.MethodGet, "/api/recuerdos/search?userId=u1&titulo=playa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]models.Recuerdo](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Playa", found[0].Titulo)

	rec = do(t, h, http.MethodGet, "/api/recuerdos/search?userId=u1&ubicacion=playa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found = decode[[]models.Recuerdo](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Cena", found[0].Titulo)

	rec = do(t, h, http.MethodGet, "/api/recuerdos/search?userId=u1&q=playa&titulo=nada", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Recuerdo](t, rec), 2)
}

func TestUpdateWithoutFields(t *testing.T) {
	h := newFileBackedRouter(t)
	rec := do(t, h, http.MethodPost, "/api/recuerdos", map[string]interface{}{
		"userId": "u1", "titulo": "t", "ubicacion": "u", "fecha": "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[models.Recuerdo](t, rec).ID

	rec = do(t, h, http.MethodPut, "/api/recuerdos/"+id, map[string]interface{}{"userId": "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorKindValidation, decode[ErrorResponse](t, rec).Error)
}

func TestCreateMissingTitulo(t *testing.T) {
	h := newFileBackedRouter(t)

	rec := do(t, h, http.MethodPost, "/api/recuerdos", map[string]interface{}{
		"userId": "u1", "ubicacion": "Madrid", "fecha": "2024-01-15",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, ErrorKindValidation, body.Error)
	assert.Equal(t, "titulo", body.Field)

	rec = do(t, h, http.MethodGet, "/api/recuerdos?userId=u1", nil)
	assert.JSONEq(t, `{"recuerdos":[],"total":0}`, rec.Body.String())
}

func TestMalformedBodyAndParams(t *testing.T) {
	h := newFileBackedRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/recuerdos", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/calendar?userId=u1&month=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "month", decode[ErrorResponse](t, rec).Field)

	rec = do(t, h, http.MethodGet, "/api/calendar?userId=u1&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/recuerdos", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "userId", decode[ErrorResponse](t, rec).Field)
}

func TestCrossOwnerIsNotFound(t *testing.T) {
	h := newFileBackedRouter(t)
	rec := do(t, h, http.MethodPost, "/api/recuerdos", map[string]interface{}{
		"userId": "u1", "titulo": "t", "ubicacion": "u", "fecha": "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[models.Recuerdo](t, rec).ID

	for _, c := range []struct{ method, target string }{
		{http.MethodGet, "/api/recuerdos/" + id + "?userId=u2"},
		{http.MethodPut, "/api/recuerdos/" + id + "?userId=u2"},
		{http.MethodDelete, "/api/recuerdos/" + id + "?userId=u2"},
	} {
		var body interface{}
		if c.method == http.MethodPut {
			body = map[string]string{"titulo": "x"}
		}
		rec := do(t, h, c.method, c.target, body)
		assert.Equal(t, http.StatusNotFound, rec.Code, c.method)
	}
}

func TestCalendarDefaultsToCurrentMonth(t *testing.T) {
	h := newFileBackedRouter(t)
	do(t, h, http.MethodPost, "/api/recuerdos", map[string]interface{}{
		"userId": "u1", "titulo": "t", "ubicacion": "u", "fecha": "2024-03-05",
	})

	rec := do(t, h, http.MethodGet, "/api/calendar?userId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode[models.CalendarioMensual](t, rec)
	assert.Equal(t, 2024, cal.Year)
	assert.Equal(t, 3, cal.Month)
	require.Len(t, cal.Dias, 1)
	assert.Equal(t, 5, cal.Dias[0].Dia)

	rec = do(t, h, http.MethodGet, "/api/calendar/year?userId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	year := decode[models.CalendarioAnual](t, rec)
	assert.Len(t, year.Meses, 12)
	assert.Equal(t, 1, year.Meses[2].TotalRecuerdos)

	rec = do(t, h, http.MethodGet, "/api/stats?userId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.Estadisticas](t, rec).TotalRecuerdos)
}

// stubService fails every call with err.
type stubService struct {
	RecuerdoService
	err error
}

func (s stubService) List(context.Context, string) ([]models.Recuerdo, error) { return nil, s.err }
func (s stubService) Ping(context.Context) error                              { return s.err }

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{fmt.Errorf("pg list: %w", common.ErrStoreUnavailable), http.StatusServiceUnavailable, ErrorKindUnavailable},
		{fmt.Errorf("pg list: %w", common.ErrTimeout), http.StatusGatewayTimeout, ErrorKindTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorKindTimeout},
		{errors.New("boom: secret dsn"), http.StatusInternalServerError, ErrorKindUnknown},
	}
	for _, tc := range cases {
		h := newTestRouter(t, stubService{err: tc.err})
		rec := do(t, h, http.MethodGet, "/api/recuerdos?userId=u1", nil)
		assert.Equal(t, tc.status, rec.Code)
		body := decode[ErrorResponse](t, rec)
		assert.Equal(t, tc.kind, body.Error)
		assert.NotContains(t, body.Message, "secret")
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, stubService{})
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode[HealthResponse](t, rec).Status)

	h = newTestRouter(t, stubService{err: common.ErrStoreUnavailable})
	rec = do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEGRADED", decode[HealthResponse](t, rec).Status)
}
