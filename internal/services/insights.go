package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/AnshRaj112/recuerdos-backend/internal/models"
	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
	"github.com/AnshRaj112/recuerdos-backend/pkg/utils"
)

const topLocations = 5

// MonthNames are the Spanish month names, January first.
var MonthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Stats counts an owner's recuerdos. "This year" and "this month" use
// today's date in the service location.
func (s *RecuerdoService) Stats(ctx context.Context, userID string) (models.Estadisticas, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return models.Estadisticas{}, err
	}
	today := civildate.Today(s.now(), s.loc)

	stats := models.Estadisticas{
		TotalRecuerdos:       len(list),
		UbicacionesFavoritas: []models.UbicacionFrecuente{},
		RecuerdosPorMes:      []models.RecuerdosPorMes{},
	}
	byLocation := map[string]int{}
	byMonth := map[string]int{}
	for _, r := range list {
		if r.Fecha.Year == today.Year {
			stats.RecuerdosEsteAnio++
			if r.Fecha.Month == today.Month {
				stats.RecuerdosEsteMes++
			}
		}
		if loc := strings.TrimSpace(r.Ubicacion); loc != "" {
			byLocation[loc]++
		}
		if !r.Fecha.IsZero() {
			byMonth[r.Fecha.MonthKey()]++
		}
	}

	for loc, n := range byLocation {
		stats.UbicacionesFavoritas = append(stats.UbicacionesFavoritas, models.UbicacionFrecuente{Ubicacion: loc, Cantidad: n})
	}
	sort.Slice(stats.UbicacionesFavoritas, func(i, j int) bool {
		a, b := stats.UbicacionesFavoritas[i], stats.UbicacionesFavoritas[j]
		if a.Cantidad != b.Cantidad {
			return a.Cantidad > b.Cantidad
		}
		return a.Ubicacion < b.Ubicacion
	})
	if len(stats.UbicacionesFavoritas) > topLocations {
		stats.UbicacionesFavoritas = stats.UbicacionesFavoritas[:topLocations]
	}

	for mes, n := range byMonth {
		stats.RecuerdosPorMes = append(stats.RecuerdosPorMes, models.RecuerdosPorMes{Mes: mes, Cantidad: n})
	}
	sort.Slice(stats.RecuerdosPorMes, func(i, j int) bool {
		return stats.RecuerdosPorMes[i].Mes < stats.RecuerdosPorMes[j].Mes
	})
	return stats, nil
}

// MonthCalendar groups one month's recuerdos by day. Only days with entries
// are listed, ascending.
func (s *RecuerdoService) MonthCalendar(ctx context.Context, userID string, year int, month time.Month) (models.CalendarioMensual, error) {
	if err := validateYearMonth(year, int(month)); err != nil {
		return models.CalendarioMensual{}, err
	}
	list, err := s.List(ctx, userID)
	if err != nil {
		return models.CalendarioMensual{}, err
	}

	byDay := map[int][]models.Recuerdo{}
	for _, r := range list {
		if r.Fecha.SameMonth(year, month) {
			byDay[r.Fecha.Day] = append(byDay[r.Fecha.Day], r)
		}
	}

	cal := models.CalendarioMensual{Year: year, Month: int(month), Dias: make([]models.DiaConRecuerdos, 0, len(byDay))}
	for day, rs := range byDay {
		sortByCreation(rs)
		dia := models.DiaConRecuerdos{Dia: day, Recuerdos: make([]models.RecuerdoResumen, 0, len(rs))}
		for _, r := range rs {
			dia.Recuerdos = append(dia.Recuerdos, models.RecuerdoResumen{ID: r.ID, Titulo: r.Titulo, Ubicacion: r.Ubicacion})
		}
		cal.Dias = append(cal.Dias, dia)
	}
	sort.Slice(cal.Dias, func(i, j int) bool { return cal.Dias[i].Dia < cal.Dias[j].Dia })
	return cal, nil
}

// YearCalendar summarizes all twelve months of year, each with its earliest
// recuerdo.
func (s *RecuerdoService) YearCalendar(ctx context.Context, userID string, year int) (models.CalendarioAnual, error) {
	if err := validateYearMonth(year, 1); err != nil {
		return models.CalendarioAnual{}, err
	}
	list, err := s.List(ctx, userID)
	if err != nil {
		return models.CalendarioAnual{}, err
	}

	cal := models.CalendarioAnual{Year: year, Meses: make([]models.MesResumen, 12)}
	first := make([]*models.Recuerdo, 12)
	for i := range cal.Meses {
		cal.Meses[i] = models.MesResumen{Mes: i + 1, NombreMes: MonthNames[i]}
	}
	for i := range list {
		r := &list[i]
		if r.Fecha.Year != year {
			continue
		}
		idx := int(r.Fecha.Month) - 1
		cal.Meses[idx].TotalRecuerdos++
		if f := first[idx]; f == nil || earlier(*r, *f) {
			first[idx] = r
		}
	}
	for i, f := range first {
		if f != nil {
			cal.Meses[i].PrimerRecuerdo = &models.PrimerRecuerdo{ID: f.ID, Titulo: f.Titulo, Fecha: f.Fecha.String()}
		}
	}
	return cal, nil
}

// Map returns the recuerdos that carry coordinates, in list order.
func (s *RecuerdoService) Map(ctx context.Context, userID string) ([]models.MarcadorMapa, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MarcadorMapa, 0)
	for _, r := range list {
		if !r.HasCoordinates() {
			continue
		}
		out = append(out, models.MarcadorMapa{
			ID:        r.ID,
			Titulo:    r.Titulo,
			Ubicacion: r.Ubicacion,
			Fecha:     r.Fecha.String(),
			Latitud:   *r.Latitud,
			Longitud:  *r.Longitud,
			Imagen:    r.Imagen,
		})
	}
	return out, nil
}

func validateYearMonth(year, month int) error {
	if year < 1 || year > 9999 {
		return &utils.ValidationError{Field: "year", Message: "El año no es válido"}
	}
	if month < 1 || month > 12 {
		return &utils.ValidationError{Field: "month", Message: "El mes debe estar entre 1 y 12"}
	}
	return nil
}

func earlier(a, b models.Recuerdo) bool {
	if c := a.Fecha.Compare(b.Fecha); c != 0 {
		return c < 0
	}
	if !a.FechaCreacion.Equal(b.FechaCreacion) {
		return a.FechaCreacion.Before(b.FechaCreacion)
	}
	return a.ID < b.ID
}

func sortByCreation(rs []models.Recuerdo) {
	sort.SliceStable(rs, func(i, j int) bool { return earlier(rs[i], rs[j]) })
}
