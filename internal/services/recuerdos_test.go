package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
	"github.com/AnshRaj112/recuerdos-backend/internal/store"
	"github.com/AnshRaj112/recuerdos-backend/pkg/utils"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T, opts ...ServiceOption) (*RecuerdoService, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)}
	st := store.NewFileStore(filepath.Join(t.TempDir(), "recuerdos.json"))
	opts = append([]ServiceOption{WithClock(clock.Now), WithLocation(time.UTC)}, opts...)
	return NewRecuerdoService(st, opts...), clock
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func mustCreate(t *testing.T, s *RecuerdoService, userID, titulo, ubicacion, fecha string) models.Recuerdo {
	t.Helper()
	r, err := s.Create(context.Background(), models.NewRecuerdo{
		UserID: userID, Titulo: titulo, Ubicacion: ubicacion, Fecha: fecha,
	})
	require.NoError(t, err)
	return r
}

func TestCreate_RoundTrip(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, models.NewRecuerdo{
		UserID:      "u1",
		Titulo:      "  Atardecer  ",
		Descripcion: "con amigos",
		Ubicacion:   "Cádiz",
		Fecha:       "2024-01-15",
		Imagen:      "https://res.cloudinary.com/demo/image/upload/a.jpg",
		Latitud:     floatPtr(36.53),
		Longitud:    floatPtr(-6.29),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Atardecer", created.Titulo)
	assert.Equal(t, clock.t, created.FechaCreacion)
	assert.Equal(t, created.FechaCreacion, created.FechaActualizacion)

	got, err := s.Get(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, "2024-01-15", got.Fecha.String())
}

func TestCreate_MissingFieldsInOrder(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		in    models.NewRecuerdo
		field string
	}{
		{models.NewRecuerdo{}, "userId"},
		{models.NewRecuerdo{UserID: "u1", Ubicacion: "Madrid", Fecha: "2024-01-15"}, "titulo"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "   "}, "titulo"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "t", Fecha: "2024-01-15"}, "ubicacion"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "t", Ubicacion: "u"}, "fecha"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "t", Ubicacion: "u", Fecha: "15/01/2024"}, "fecha"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "t", Ubicacion: "u", Fecha: "2023-02-29"}, "fecha"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "t", Ubicacion: "u", Fecha: "2024-01-15", Imagen: "ftp://x/y"}, "imagen"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "t", Ubicacion: "u", Fecha: "2024-01-15", Latitud: floatPtr(1)}, "longitud"},
		{models.NewRecuerdo{UserID: "u1", Titulo: "t", Ubicacion: "u", Fecha: "2024-01-15", Latitud: floatPtr(91), Longitud: floatPtr(0)}, "latitud"},
	}
	for _, tc := range cases {
		_, err := s.Create(ctx, tc.in)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrValidation)
		var ve *utils.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, tc.field, ve.Field)
	}

	list, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_EmptyIsNotAnError(t *testing.T) {
	s, _ := newTestService(t)
	list, err := s.List(context.Background(), "nadie")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestList_OrdersByDateDescending(t *testing.T) {
	s, clock := newTestService(t)
	a := mustCreate(t, s, "u1", "A", "x", "2024-01-15")
	clock.Advance(time.Second)
	b := mustCreate(t, s, "u1", "B", "x", "2024-03-01")
	clock.Advance(time.Second)
	c := mustCreate(t, s, "u1", "C", "x", "2023-12-31")
	clock.Advance(time.Second)
	d := mustCreate(t, s, "u1", "D", "x", "2024-01-15")

	list, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{b.ID, d.ID, a.ID, c.ID}, ids)
}

func TestOwnershipIsolation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mine := mustCreate(t, s, "u1", "Mío", "Sevilla", "2024-01-01")

	_, err := s.Get(ctx, mine.ID, "u2")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Update(ctx, mine.ID, "u2", models.RecuerdoPatch{Titulo: strPtr("x")})
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, mine.ID, "u2"), common.ErrNotFound)

	found, err := s.Search(ctx, "u2", "Mío")
	require.NoError(t, err)
	assert.Empty(t, found)

	got, err := s.Get(ctx, mine.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, mine, got)
}

func TestUpdate_PartialMergeAndStrictlyIncreasingTimestamp(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, models.NewRecuerdo{
		UserID: "u1", Titulo: "Viejo", Descripcion: "desc", Ubicacion: "Madrid", Fecha: "2024-01-15",
		Latitud: floatPtr(40.4), Longitud: floatPtr(-3.7),
	})
	require.NoError(t, err)

	// Same instant as the create.
	updated, err := s.Update(ctx, created.ID, "u1", models.RecuerdoPatch{Titulo: strPtr("Nuevo")})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", updated.Titulo)
	assert.Equal(t, "desc", updated.Descripcion)
	assert.Equal(t, "Madrid", updated.Ubicacion)
	assert.Equal(t, created.Fecha, updated.Fecha)
	assert.Equal(t, created.FechaCreacion, updated.FechaCreacion)
	assert.True(t, updated.FechaActualizacion.After(created.FechaActualizacion))

	again, err := s.Update(ctx, created.ID, "u1", models.RecuerdoPatch{Ubicacion: strPtr("Toledo")})
	require.NoError(t, err)
	assert.True(t, again.FechaActualizacion.After(updated.FechaActualizacion))
	require.True(t, again.HasCoordinates(), "editing ubicacion keeps coordinates")
	assert.Equal(t, 40.4, *again.Latitud)

	clock.Advance(time.Hour)
	later, err := s.Update(ctx, created.ID, "u1", models.RecuerdoPatch{Fecha: strPtr("2024-02-01")})
	require.NoError(t, err)
	assert.Equal(t, clock.t, later.FechaActualizacion)
	assert.Equal(t, "2024-02-01", later.Fecha.String())
}

func TestUpdate_Coordinates(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, s, "u1", "t", "u", "2024-01-15")

	_, err := s.Update(ctx, r.ID, "u1", models.RecuerdoPatch{Latitud: floatPtr(10)})
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "longitud", ve.Field)

	withCoords, err := s.Update(ctx, r.ID, "u1", models.RecuerdoPatch{Latitud: floatPtr(10), Longitud: floatPtr(20)})
	require.NoError(t, err)
	assert.True(t, withCoords.HasCoordinates())

	_, err = s.Update(ctx, r.ID, "u1", models.RecuerdoPatch{ClearCoordinates: true, Latitud: floatPtr(1)})
	assert.ErrorIs(t, err, common.ErrValidation)

	cleared, err := s.Update(ctx, r.ID, "u1", models.RecuerdoPatch{ClearCoordinates: true})
	require.NoError(t, err)
	assert.False(t, cleared.HasCoordinates())
}

func TestUpdate_RejectsBlankRequiredFields(t *testing.T) {
	s, _ := newTestService(t)
	r := mustCreate(t, s, "u1", "t", "u", "2024-01-15")

	_, err := s.Update(context.Background(), r.ID, "u1", models.RecuerdoPatch{Titulo: strPtr("  ")})
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "titulo", ve.Field)
}

func TestUpdate_EmptyPatch(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, s, "u1", "t", "u", "2024-01-15")

	_, err := s.Update(ctx, r.ID, "u1", models.RecuerdoPatch{})
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "body", ve.Field)

	_, err = s.Update(ctx, r.ID, "u2", models.RecuerdoPatch{})
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := s.Get(ctx, r.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, r.FechaActualizacion, got.FechaActualizacion)
}

func TestUserIDLength(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	long := strings.Repeat("u", utils.MaxUserIDLength+1)

	_, err := s.Create(ctx, models.NewRecuerdo{UserID: long, Titulo: "t", Ubicacion: "u", Fecha: "2024-01-15"})
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "userId", ve.Field)

	_, err = s.List(ctx, long)
	assert.ErrorIs(t, err, common.ErrValidation)

	mustCreate(t, s, strings.Repeat("u", utils.MaxUserIDLength), "t", "u", "2024-01-15")
}

func TestDelete_IsFinal(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, s, "u1", "t", "u", "2024-01-15")

	require.NoError(t, s.Delete(ctx, r.ID, "u1"))
	_, err := s.Get(ctx, r.ID, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, r.ID, "u1"), common.ErrNotFound)

	next := mustCreate(t, s, "u1", "t2", "u", "2024-01-16")
	assert.NotEqual(t, r.ID, next.ID)
}

func TestSearch_UnionOfTitleAndLocation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	both := mustCreate(t, s, "u1", "Playa", "Playa Blanca", "2024-01-01")
	byTitle := mustCreate(t, s, "u1", "Día de playa", "Cádiz", "2024-02-01")
	byLocation := mustCreate(t, s, "u1", "Cena", "Hotel Playa", "2023-05-01")
	mustCreate(t, s, "u1", "Montaña", "Gredos", "2024-03-01")

	found, err := s.Search(ctx, "u1", "PLAYA")
	require.NoError(t, err)
	ids := []string{}
	for _, r := range found {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{byTitle.ID, both.ID, byLocation.ID}, ids)

	blank, err := s.Search(ctx, "u1", "   ")
	require.NoError(t, err)
	assert.NotNil(t, blank)
	assert.Empty(t, blank)
}

func TestSearchField(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	both := mustCreate(t, s, "u1", "Playa", "Playa Blanca", "2024-01-01")
	byTitle := mustCreate(t, s, "u1", "Día de playa", "Cádiz", "2024-02-01")
	byLocation := mustCreate(t, s, "u1", "Cena", "Hotel Playa", "2023-05-01")
	mustCreate(t, s, "u2", "Playa", "Playa", "2024-01-01")

	ids := func(list []models.Recuerdo) []string {
		out := []string{}
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}

	found, err := s.SearchField(ctx, "u1", store.FieldTitulo, "playa")
	require.NoError(t, err)
	assert.Equal(t, []string{byTitle.ID, both.ID}, ids(found))

	found, err = s.SearchField(ctx, "u1", store.FieldUbicacion, "PLAYA")
	require.NoError(t, err)
	assert.Equal(t, []string{both.ID, byLocation.ID}, ids(found))

	found, err = s.SearchField(ctx, "u1", store.FieldTitulo, " ")
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	_, err = s.SearchField(ctx, "u1", "descripcion", "playa")
	assert.ErrorIs(t, err, common.ErrValidation)
}

// duplicatingStore simulates a backend that answers search as two queries.
type duplicatingStore struct {
	store.Store
}

func (d duplicatingStore) Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error) {
	found, err := d.Store.Search(ctx, userID, term)
	if err != nil {
		return nil, err
	}
	return append(found, found...), nil
}

func TestSearch_DeduplicatesByID(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "r.json"))
	s := NewRecuerdoService(duplicatingStore{st})
	mustCreate(t, s, "u1", "Playa", "Playa", "2024-01-01")

	found, err := s.Search(context.Background(), "u1", "playa")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDateStableAcrossTimeZones(t *testing.T) {
	for _, loc := range []*time.Location{
		time.FixedZone("UTC-12", -12*3600),
		time.UTC,
		time.FixedZone("UTC+14", 14*3600),
	} {
		t.Run(loc.String(), func(t *testing.T) {
			orig := time.Local
			time.Local = loc
			t.Cleanup(func() { time.Local = orig })

			s, _ := newTestService(t, WithLocation(loc))
			r := mustCreate(t, s, "u1", "t", "u", "2024-01-15")
			got, err := s.Get(context.Background(), r.ID, "u1")
			require.NoError(t, err)
			assert.Equal(t, "2024-01-15", got.Fecha.String())
			assert.Equal(t, 15, got.Fecha.In(loc).Day())

			cal, err := s.MonthCalendar(context.Background(), "u1", 2024, time.January)
			require.NoError(t, err)
			require.Len(t, cal.Dias, 1)
			assert.Equal(t, 15, cal.Dias[0].Dia)
		})
	}
}

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) List(context.Context, string) ([]models.Recuerdo, error) { return nil, f.err }

func TestStoreErrorsKeepTheirKind(t *testing.T) {
	s := NewRecuerdoService(failingStore{err: errors.Join(common.ErrStoreUnavailable, errors.New("dial tcp"))})
	_, err := s.List(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}
