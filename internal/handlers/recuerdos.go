package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/recuerdos-backend/internal/models"
)

const maxBodyBytes = 1 << 20

// RecuerdoService is what the HTTP layer needs from the service.
type RecuerdoService interface {
	List(ctx context.Context, userID string) ([]models.Recuerdo, error)
	Get(ctx context.Context, id, userID string) (models.Recuerdo, error)
	Create(ctx context.Context, in models.NewRecuerdo) (models.Recuerdo, error)
	Update(ctx context.Context, id, userID string, p models.RecuerdoPatch) (models.Recuerdo, error)
	Delete(ctx context.Context, id, userID string) error
	Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error)
	SearchField(ctx context.Context, userID, field, term string) ([]models.Recuerdo, error)
	Stats(ctx context.Context, userID string) (models.Estadisticas, error)
	MonthCalendar(ctx context.Context, userID string, year int, month time.Month) (models.CalendarioMensual, error)
	YearCalendar(ctx context.Context, userID string, year int) (models.CalendarioAnual, error)
	Map(ctx context.Context, userID string) ([]models.MarcadorMapa, error)
	Ping(ctx context.Context) error
}

// RecuerdoHandler serves /api/recuerdos and the derived views.
type RecuerdoHandler struct {
	svc     RecuerdoService
	timeout time.Duration
	now     func() time.Time
}

func NewRecuerdoHandler(svc RecuerdoService, timeout time.Duration) *RecuerdoHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RecuerdoHandler{svc: svc, timeout: timeout, now: time.Now}
}

type CreateRecuerdoRequest struct {
	UserID      string   `json:"userId"`
	Titulo      string   `json:"titulo"`
	Descripcion string   `json:"descripcion"`
	Ubicacion   string   `json:"ubicacion"`
	Fecha       string   `json:"fecha"`
	Imagen      string   `json:"imagen"`
	Latitud     *float64 `json:"latitud"`
	Longitud    *float64 `json:"longitud"`
}

// UpdateRecuerdoRequest fields left out of the body are not changed.
type UpdateRecuerdoRequest struct {
	UserID            string   `json:"userId"`
	Titulo            *string  `json:"titulo"`
	Descripcion       *string  `json:"descripcion"`
	Ubicacion         *string  `json:"ubicacion"`
	Fecha             *string  `json:"fecha"`
	Imagen            *string  `json:"imagen"`
	Latitud           *float64 `json:"latitud"`
	Longitud          *float64 `json:"longitud"`
	BorrarCoordenadas bool     `json:"borrarCoordenadas"`
}

type GetRecuerdosResponse struct {
	Recuerdos []models.Recuerdo `json:"recuerdos"`
	Total     int               `json:"total"`
}

func (h *RecuerdoHandler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// ownerFromQuery reads userId from the query string.
func ownerFromQuery(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("userId"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidation(w, "", "Cuerpo de la petición inválido")
		return false
	}
	return true
}

// GetRecuerdos handles GET /api/recuerdos?userId=
func (h *RecuerdoHandler) GetRecuerdos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	list, err := h.svc.List(ctx, ownerFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GetRecuerdosResponse{Recuerdos: list, Total: len(list)})
}

// GetRecuerdo handles GET /api/recuerdos/{id}?userId=
func (h *RecuerdoHandler) GetRecuerdo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	rec, err := h.svc.Get(ctx, chi.URLParam(r, "id"), ownerFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateRecuerdo handles POST /api/recuerdos
func (h *RecuerdoHandler) CreateRecuerdo(w http.ResponseWriter, r *http.Request) {
	var req CreateRecuerdoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = ownerFromQuery(r)
	}

	ctx, cancel := h.context(r)
	defer cancel()

	rec, err := h.svc.Create(ctx, models.NewRecuerdo{
		UserID:      req.UserID,
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		Ubicacion:   req.Ubicacion,
		Fecha:       req.Fecha,
		Imagen:      req.Imagen,
		Latitud:     req.Latitud,
		Longitud:    req.Longitud,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateRecuerdo handles PUT /api/recuerdos/{id}
func (h *RecuerdoHandler) UpdateRecuerdo(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecuerdoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = ownerFromQuery(r)
	}

	ctx, cancel := h.context(r)
	defer cancel()

	rec, err := h.svc.Update(ctx, chi.URLParam(r, "id"), req.UserID, models.RecuerdoPatch{
		Titulo:           req.Titulo,
		Descripcion:      req.Descripcion,
		Ubicacion:        req.Ubicacion,
		Fecha:            req.Fecha,
		Imagen:           req.Imagen,
		Latitud:          req.Latitud,
		Longitud:         req.Longitud,
		ClearCoordinates: req.BorrarCoordenadas,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecuerdo handles DELETE /api/recuerdos/{id}?userId=
func (h *RecuerdoHandler) DeleteRecuerdo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	if err := h.svc.Delete(ctx, chi.URLParam(r, "id"), ownerFromQuery(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Recuerdo eliminado"})
}

// SearchRecuerdos handles GET /api/recuerdos/search?userId=&q=. Without q,
// titulo= or ubicacion= narrows the match to that field.
func (h *RecuerdoHandler) SearchRecuerdos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var (
		q     = r.URL.Query()
		found []models.Recuerdo
		err   error
	)
	switch {
	case q.Has("q"):
		found, err = h.svc.Search(ctx, ownerFromQuery(r), q.Get("q"))
	case q.Has("titulo"):
		found, err = h.svc.SearchField(ctx, ownerFromQuery(r), "titulo", q.Get("titulo"))
	case q.Has("ubicacion"):
		found, err = h.svc.SearchField(ctx, ownerFromQuery(r), "ubicacion", q.Get("ubicacion"))
	default:
		found, err = h.svc.Search(ctx, ownerFromQuery(r), "")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// GetStats handles GET /api/stats?userId=
func (h *RecuerdoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	stats, err := h.svc.Stats(ctx, ownerFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetMonthCalendar handles GET /api/calendar?userId=&year=&month=
// Missing year or month default to the current ones.
func (h *RecuerdoHandler) GetMonthCalendar(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, ok := intParam(w, r, "year", now.Year())
	if !ok {
		return
	}
	month, ok := intParam(w, r, "month", int(now.Month()))
	if !ok {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	cal, err := h.svc.MonthCalendar(ctx, ownerFromQuery(r), year, time.Month(month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// GetYearCalendar handles GET /api/calendar/year?userId=&year=
func (h *RecuerdoHandler) GetYearCalendar(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r, "year", h.now().Year())
	if !ok {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	cal, err := h.svc.YearCalendar(ctx, ownerFromQuery(r), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// GetMapMarkers handles GET /api/recuerdos/map?userId=
func (h *RecuerdoHandler) GetMapMarkers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	markers, err := h.svc.Map(ctx, ownerFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markers)
}

func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeValidation(w, name, "El parámetro "+name+" debe ser un número")
		return 0, false
	}
	return n, true
}
