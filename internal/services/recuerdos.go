package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
	"github.com/AnshRaj112/recuerdos-backend/internal/store"
	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
	"github.com/AnshRaj112/recuerdos-backend/pkg/utils"
)

// RecuerdoService validates input, stamps timestamps and enforces ordering
// on top of whichever store is configured. The caller's identity is passed
// on every call.
type RecuerdoService struct {
	store store.Store
	now   func() time.Time
	loc   *time.Location
}

type ServiceOption func(*RecuerdoService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *RecuerdoService) { s.now = now }
}

// WithLocation sets the location used to decide "today" for stats.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *RecuerdoService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// owner checks the caller's userId.
func owner(userID string) error {
	if err := utils.Required("userId", userID); err != nil {
		return err
	}
	return utils.MaxLength("userId", strings.TrimSpace(userID), utils.MaxUserIDLength)
}

func NewRecuerdoService(st store.Store, opts ...ServiceOption) *RecuerdoService {
	s := &RecuerdoService{store: st, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every recuerdo of userID, newest date first.
func (s *RecuerdoService) List(ctx context.Context, userID string) ([]models.Recuerdo, error) {
	if err := owner(userID); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recuerdos: %w", err)
	}
	if list == nil {
		list = []models.Recuerdo{}
	}
	SortRecuerdos(list)
	return list, nil
}

func (s *RecuerdoService) Get(ctx context.Context, id, userID string) (models.Recuerdo, error) {
	if err := owner(userID); err != nil {
		return models.Recuerdo{}, err
	}
	if strings.TrimSpace(id) == "" {
		return models.Recuerdo{}, common.ErrNotFound
	}
	r, err := s.store.Get(ctx, id, userID)
	if err != nil {
		return models.Recuerdo{}, fmt.Errorf("get recuerdo %s: %w", id, err)
	}
	return r, nil
}

// Create validates in (userId, titulo, ubicacion, fecha in that order, then
// the optional fields) and persists it.
func (s *RecuerdoService) Create(ctx context.Context, in models.NewRecuerdo) (models.Recuerdo, error) {
	for _, f := range []struct{ field, value string }{
		{"userId", in.UserID},
		{"titulo", in.Titulo},
		{"ubicacion", in.Ubicacion},
		{"fecha", in.Fecha},
	} {
		if err := utils.Required(f.field, f.value); err != nil {
			return models.Recuerdo{}, err
		}
	}
	if err := owner(in.UserID); err != nil {
		return models.Recuerdo{}, err
	}
	fecha, err := parseFecha(in.Fecha)
	if err != nil {
		return models.Recuerdo{}, err
	}

	r := models.Recuerdo{
		UserID:      strings.TrimSpace(in.UserID),
		Titulo:      strings.TrimSpace(in.Titulo),
		Descripcion: in.Descripcion,
		Ubicacion:   strings.TrimSpace(in.Ubicacion),
		Fecha:       fecha,
		Imagen:      strings.TrimSpace(in.Imagen),
		Latitud:     in.Latitud,
		Longitud:    in.Longitud,
	}
	if err := validateFields(r); err != nil {
		return models.Recuerdo{}, err
	}

	now := s.timestamp()
	r.FechaCreacion = now
	r.FechaActualizacion = now

	created, err := s.store.Create(ctx, r)
	if err != nil {
		return models.Recuerdo{}, fmt.Errorf("create recuerdo: %w", err)
	}
	return created, nil
}

// Update merges the provided fields into the stored recuerdo. Coordinates
// are only removed by ClearCoordinates. A patch with no fields is rejected
// once the record is known to exist.
func (s *RecuerdoService) Update(ctx context.Context, id, userID string, p models.RecuerdoPatch) (models.Recuerdo, error) {
	if err := owner(userID); err != nil {
		return models.Recuerdo{}, err
	}
	current, err := s.Get(ctx, id, userID)
	if err != nil {
		return models.Recuerdo{}, err
	}
	if p.IsEmpty() {
		return models.Recuerdo{}, &utils.ValidationError{
			Field:   "body",
			Message: "No se envió ningún campo para actualizar",
		}
	}

	next := current
	if p.Titulo != nil {
		if err := utils.Required("titulo", *p.Titulo); err != nil {
			return models.Recuerdo{}, err
		}
		next.Titulo = strings.TrimSpace(*p.Titulo)
	}
	if p.Ubicacion != nil {
		if err := utils.Required("ubicacion", *p.Ubicacion); err != nil {
			return models.Recuerdo{}, err
		}
		next.Ubicacion = strings.TrimSpace(*p.Ubicacion)
	}
	if p.Fecha != nil {
		fecha, err := parseFecha(*p.Fecha)
		if err != nil {
			return models.Recuerdo{}, err
		}
		next.Fecha = fecha
	}
	if p.Descripcion != nil {
		next.Descripcion = *p.Descripcion
	}
	if p.Imagen != nil {
		next.Imagen = strings.TrimSpace(*p.Imagen)
	}
	switch {
	case p.ClearCoordinates && (p.Latitud != nil || p.Longitud != nil):
		return models.Recuerdo{}, &utils.ValidationError{
			Field:   "borrarCoordenadas",
			Message: "No se pueden enviar coordenadas y borrarCoordenadas a la vez",
		}
	case p.ClearCoordinates:
		next.Latitud, next.Longitud = nil, nil
	case p.Latitud != nil || p.Longitud != nil:
		if err := utils.ValidateCoordinates(p.Latitud, p.Longitud); err != nil {
			return models.Recuerdo{}, err
		}
		next.Latitud, next.Longitud = p.Latitud, p.Longitud
	}
	if err := validateFields(next); err != nil {
		return models.Recuerdo{}, err
	}

	next.FechaActualizacion = s.nextUpdate(current.FechaActualizacion, current.FechaCreacion)

	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return models.Recuerdo{}, fmt.Errorf("update recuerdo %s: %w", id, err)
	}
	return updated, nil
}

func (s *RecuerdoService) Delete(ctx context.Context, id, userID string) error {
	if err := owner(userID); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return common.ErrNotFound
	}
	if err := s.store.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete recuerdo %s: %w", id, err)
	}
	return nil
}

// Search matches term against titulo or ubicacion. A blank term is an empty
// result, not an error.
func (s *RecuerdoService) Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error) {
	if err := owner(userID); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Recuerdo{}, nil
	}
	return s.search(ctx, userID, term, func(models.Recuerdo) bool { return true })
}

// SearchField matches term against a single field, store.FieldTitulo or
// store.FieldUbicacion.
func (s *RecuerdoService) SearchField(ctx context.Context, userID, field, term string) ([]models.Recuerdo, error) {
	if err := owner(userID); err != nil {
		return nil, err
	}
	if field != store.FieldTitulo && field != store.FieldUbicacion {
		return nil, &utils.ValidationError{Field: field, Message: "Campo de búsqueda no válido"}
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Recuerdo{}, nil
	}
	return s.search(ctx, userID, term, func(r models.Recuerdo) bool {
		return store.MatchesField(r, field, term)
	})
}

func (s *RecuerdoService) search(ctx context.Context, userID, term string, keep func(models.Recuerdo) bool) ([]models.Recuerdo, error) {
	found, err := s.store.Search(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("search recuerdos: %w", err)
	}
	out := make([]models.Recuerdo, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, r := range found {
		if _, dup := seen[r.ID]; dup || !keep(r) {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	SortRecuerdos(out)
	return out, nil
}

// Ping reports whether the store answers.
func (s *RecuerdoService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SortRecuerdos orders by fecha descending, then creation time descending,
// then id.
func SortRecuerdos(list []models.Recuerdo) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if c := a.Fecha.Compare(b.Fecha); c != 0 {
			return c > 0
		}
		if !a.FechaCreacion.Equal(b.FechaCreacion) {
			return a.FechaCreacion.After(b.FechaCreacion)
		}
		return a.ID < b.ID
	})
}

// timestamp is the current time at millisecond precision, which every store
// can hold without rounding.
func (s *RecuerdoService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// nextUpdate returns a timestamp strictly after prev and not before created.
func (s *RecuerdoService) nextUpdate(prev, created time.Time) time.Time {
	now := s.timestamp()
	floor := prev
	if created.After(floor) {
		floor = created
	}
	if !now.After(floor) {
		return floor.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return now
}

func parseFecha(raw string) (civildate.Date, error) {
	d, err := civildate.Parse(raw)
	if err != nil {
		return civildate.Date{}, &utils.ValidationError{
			Field:   "fecha",
			Message: "La fecha debe tener el formato YYYY-MM-DD",
		}
	}
	return d, nil
}

func validateFields(r models.Recuerdo) error {
	if err := utils.MaxLength("titulo", r.Titulo, utils.MaxTitleLength); err != nil {
		return err
	}
	if err := utils.MaxLength("ubicacion", r.Ubicacion, utils.MaxLocationLength); err != nil {
		return err
	}
	if err := utils.MaxLength("descripcion", r.Descripcion, utils.MaxDescriptionLength); err != nil {
		return err
	}
	if err := utils.ValidateImageURL("imagen", r.Imagen); err != nil {
		return err
	}
	return utils.ValidateCoordinates(r.Latitud, r.Longitud)
}
