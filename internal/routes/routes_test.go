package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/recuerdos-backend/internal/handlers"
	"github.com/AnshRaj112/recuerdos-backend/internal/services"
	"github.com/AnshRaj112/recuerdos-backend/internal/store"
)

func TestSetupRoutes_RegistersEveryRoute(t *testing.T) {
	svc := services.NewRecuerdoService(store.NewFileStore(t.TempDir() + "/recuerdos.json"))
	r := chi.NewRouter()
	SetupRoutes(r, handlers.NewRecuerdoHandler(svc, time.Second), handlers.NewUploadHandler(nil))

	var mounted []Route
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		mounted = append(mounted, Route{Method: method, Path: strings.TrimSuffix(route, "/")})
		return nil
	})
	require.NoError(t, err)

	want := make([]Route, 0, len(Registered))
	for _, rt := range Registered {
		want = append(want, Route{Method: rt.Method, Path: strings.TrimSuffix(rt.Path, "/")})
	}
	assert.ElementsMatch(t, want, mounted)
}

func TestSetupRoutes_SearchIsNotAnID(t *testing.T) {
	svc := services.NewRecuerdoService(store.NewFileStore(t.TempDir() + "/recuerdos.json"))
	r := chi.NewRouter()
	SetupRoutes(r, handlers.NewRecuerdoHandler(svc, time.Second), handlers.NewUploadHandler(nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recuerdos/search?userId=ana&q=mar", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/upload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
