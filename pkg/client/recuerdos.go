package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
)

// listResponse accepts both the enveloped list and a bare array.
type listResponse struct {
	Recuerdos []wireRecuerdo `json:"recuerdos"`
	Total     int            `json:"total"`
}

func (l *listResponse) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &l.Recuerdos)
	}
	type plain listResponse
	return json.Unmarshal(b, (*plain)(l))
}

func (l listResponse) toRecuerdos() []Recuerdo {
	out := make([]Recuerdo, 0, len(l.Recuerdos))
	for _, w := range l.Recuerdos {
		out = append(out, w.toRecuerdo())
	}
	return out
}

// List returns every recuerdo of ownerID, newest date first. No entries is
// an empty slice.
func (c *Client) List(ctx context.Context, ownerID string) ([]Recuerdo, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/recuerdos", ownerQuery(ownerID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toRecuerdos(), nil
}

func (c *Client) Get(ctx context.Context, ownerID, id string) (Recuerdo, error) {
	if err := requireOwner(ownerID); err != nil {
		return Recuerdo{}, err
	}
	if err := requireID(id); err != nil {
		return Recuerdo{}, err
	}
	var w wireRecuerdo
	if err := c.do(ctx, http.MethodGet, "/recuerdos/"+url.PathEscape(id), ownerQuery(ownerID), nil, &w); err != nil {
		return Recuerdo{}, err
	}
	return w.toRecuerdo(), nil
}

// Create checks the required fields locally, then stores the entry and
// returns it with its assigned id and timestamps.
func (c *Client) Create(ctx context.Context, ownerID string, in NewRecuerdo) (Recuerdo, error) {
	if err := requireOwner(ownerID); err != nil {
		return Recuerdo{}, err
	}
	switch {
	case strings.TrimSpace(in.Title) == "":
		return Recuerdo{}, missingField("titulo")
	case strings.TrimSpace(in.Location) == "":
		return Recuerdo{}, missingField("ubicacion")
	case in.Date.IsZero():
		return Recuerdo{}, missingField("fecha")
	}
	body := createBody{
		UserID:      ownerID,
		Titulo:      strings.TrimSpace(in.Title),
		Descripcion: in.Description,
		Ubicacion:   strings.TrimSpace(in.Location),
		Fecha:       in.Date.String(),
		Imagen:      in.ImageURL,
		Latitud:     in.Latitude,
		Longitud:    in.Longitude,
	}
	var w wireRecuerdo
	if err := c.do(ctx, http.MethodPost, "/recuerdos", nil, body, &w); err != nil {
		return Recuerdo{}, err
	}
	return w.toRecuerdo(), nil
}

// Update sends only the fields set in p.
func (c *Client) Update(ctx context.Context, ownerID, id string, p Patch) (Recuerdo, error) {
	if err := requireOwner(ownerID); err != nil {
		return Recuerdo{}, err
	}
	if err := requireID(id); err != nil {
		return Recuerdo{}, err
	}
	body := updateBody{
		UserID:            ownerID,
		Titulo:            p.Title,
		Descripcion:       p.Description,
		Ubicacion:         p.Location,
		Imagen:            p.ImageURL,
		Latitud:           p.Latitude,
		Longitud:          p.Longitude,
		BorrarCoordenadas: p.ClearCoordinates,
	}
	if p.Date != nil {
		s := p.Date.String()
		body.Fecha = &s
	}
	var w wireRecuerdo
	if err := c.do(ctx, http.MethodPut, "/recuerdos/"+url.PathEscape(id), nil, body, &w); err != nil {
		return Recuerdo{}, err
	}
	return w.toRecuerdo(), nil
}

func (c *Client) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := requireID(id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/recuerdos/"+url.PathEscape(id), ownerQuery(ownerID), nil, nil)
}

// Search matches term against title or location, case-insensitively. A
// blank term returns an empty slice without a request.
func (c *Client) Search(ctx context.Context, ownerID, term string) ([]Recuerdo, error) {
	return c.searchField(ctx, ownerID, "q", term)
}

// SearchByTitle matches term against the title only.
func (c *Client) SearchByTitle(ctx context.Context, ownerID, term string) ([]Recuerdo, error) {
	return c.searchField(ctx, ownerID, "titulo", term)
}

// SearchByLocation matches term against the location only.
func (c *Client) SearchByLocation(ctx context.Context, ownerID, term string) ([]Recuerdo, error) {
	return c.searchField(ctx, ownerID, "ubicacion", term)
}

func (c *Client) searchField(ctx context.Context, ownerID, param, term string) ([]Recuerdo, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []Recuerdo{}, nil
	}
	return c.search(ctx, ownerID, param, term)
}

func (c *Client) search(ctx context.Context, ownerID, param, term string) ([]Recuerdo, error) {
	q := ownerQuery(ownerID)
	q.Set(param, term)
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/recuerdos/search", q, nil, &resp); err != nil {
		return nil, err
	}
	out := resp.toRecuerdos()
	return dedupByID(out), nil
}

// ThisMonth returns the entries dated in the current local month, in list
// order.
func (c *Client) ThisMonth(ctx context.Context, ownerID string) ([]Recuerdo, error) {
	all, err := c.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := c.now()
	out := make([]Recuerdo, 0, len(all))
	for _, r := range all {
		if r.Date.SameMonth(now.Year(), now.Month()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func dedupByID(in []Recuerdo) []Recuerdo {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, r := range in {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

type wireStats struct {
	TotalRecuerdos       int `json:"totalRecuerdos"`
	RecuerdosEsteAnio    int `json:"recuerdosEsteAnio"`
	RecuerdosEsteMes     int `json:"recuerdosEsteMes"`
	UbicacionesFavoritas []struct {
		Ubicacion string `json:"ubicacion"`
		Cantidad  int    `json:"cantidad"`
	} `json:"ubicacionesFavoritas"`
	RecuerdosPorMes []struct {
		Mes      string `json:"mes"`
		Cantidad int    `json:"cantidad"`
	} `json:"recuerdosPorMes"`
}

func (c *Client) Stats(ctx context.Context, ownerID string) (Stats, error) {
	if err := requireOwner(ownerID); err != nil {
		return Stats{}, err
	}
	var w wireStats
	if err := c.do(ctx, http.MethodGet, "/stats", ownerQuery(ownerID), nil, &w); err != nil {
		return Stats{}, err
	}
	s := Stats{
		Total:         w.TotalRecuerdos,
		ThisYear:      w.RecuerdosEsteAnio,
		ThisMonth:     w.RecuerdosEsteMes,
		TopLocations:  make([]LocationCount, 0, len(w.UbicacionesFavoritas)),
		MonthlyCounts: make([]MonthCount, 0, len(w.RecuerdosPorMes)),
	}
	for _, u := range w.UbicacionesFavoritas {
		s.TopLocations = append(s.TopLocations, LocationCount{Location: u.Ubicacion, Count: u.Cantidad})
	}
	for _, m := range w.RecuerdosPorMes {
		s.MonthlyCounts = append(s.MonthlyCounts, MonthCount{Month: m.Mes, Count: m.Cantidad})
	}
	return s, nil
}

type wireMonthCalendar struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Dias  []struct {
		Dia       int `json:"dia"`
		Recuerdos []struct {
			ID        wireID `json:"id"`
			Titulo    string `json:"titulo"`
			Ubicacion string `json:"ubicacion"`
		} `json:"recuerdos"`
	} `json:"dias"`
}

func (c *Client) MonthCalendar(ctx context.Context, ownerID string, year int, month time.Month) (MonthCalendar, error) {
	if err := requireOwner(ownerID); err != nil {
		return MonthCalendar{}, err
	}
	q := ownerQuery(ownerID)
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(int(month)))
	var w wireMonthCalendar
	if err := c.do(ctx, http.MethodGet, "/calendar", q, nil, &w); err != nil {
		return MonthCalendar{}, err
	}
	cal := MonthCalendar{Year: w.Year, Month: time.Month(w.Month), Days: make([]CalendarDay, 0, len(w.Dias))}
	for _, d := range w.Dias {
		day := CalendarDay{Day: d.Dia, Recuerdos: make([]Summary, 0, len(d.Recuerdos))}
		for _, r := range d.Recuerdos {
			day.Recuerdos = append(day.Recuerdos, Summary{ID: string(r.ID), Title: r.Titulo, Location: r.Ubicacion})
		}
		cal.Days = append(cal.Days, day)
	}
	sort.Slice(cal.Days, func(i, j int) bool { return cal.Days[i].Day < cal.Days[j].Day })
	return cal, nil
}

type wireYearCalendar struct {
	Year  int `json:"year"`
	Meses []struct {
		Mes            int    `json:"mes"`
		NombreMes      string `json:"nombreMes"`
		TotalRecuerdos int    `json:"totalRecuerdos"`
		PrimerRecuerdo *struct {
			ID     wireID `json:"id"`
			Titulo string `json:"titulo"`
			Fecha  string `json:"fecha"`
		} `json:"primerRecuerdo"`
	} `json:"meses"`
}

func (c *Client) YearCalendar(ctx context.Context, ownerID string, year int) (YearCalendar, error) {
	if err := requireOwner(ownerID); err != nil {
		return YearCalendar{}, err
	}
	q := ownerQuery(ownerID)
	q.Set("year", strconv.Itoa(year))
	var w wireYearCalendar
	if err := c.do(ctx, http.MethodGet, "/calendar/year", q, nil, &w); err != nil {
		return YearCalendar{}, err
	}
	cal := YearCalendar{Year: w.Year, Months: make([]CalendarMonth, 0, len(w.Meses))}
	for _, m := range w.Meses {
		cm := CalendarMonth{Month: time.Month(m.Mes), Name: m.NombreMes, Total: m.TotalRecuerdos}
		if p := m.PrimerRecuerdo; p != nil {
			fecha, _ := civildate.Parse(p.Fecha)
			cm.First = &FirstRecuerdo{ID: string(p.ID), Title: p.Titulo, Date: fecha}
		}
		cal.Months = append(cal.Months, cm)
	}
	return cal, nil
}

type wireMarker struct {
	ID        wireID  `json:"id"`
	Titulo    string  `json:"titulo"`
	Ubicacion string  `json:"ubicacion"`
	Fecha     string  `json:"fecha"`
	Latitud   float64 `json:"latitud"`
	Longitud  float64 `json:"longitud"`
	Imagen    string  `json:"imagen"`
}

// Map returns the recuerdos that carry coordinates.
func (c *Client) Map(ctx context.Context, ownerID string) ([]Marker, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	var ws []wireMarker
	if err := c.do(ctx, http.MethodGet, "/recuerdos/map", ownerQuery(ownerID), nil, &ws); err != nil {
		return nil, err
	}
	out := make([]Marker, 0, len(ws))
	for _, w := range ws {
		fecha, _ := civildate.Parse(w.Fecha)
		out = append(out, Marker{
			ID:        string(w.ID),
			Title:     w.Titulo,
			Location:  w.Ubicacion,
			Date:      fecha,
			Latitude:  w.Latitud,
			Longitude: w.Longitud,
			ImageURL:  w.Imagen,
		})
	}
	return out, nil
}

// Health reports the API status. A degraded backend answers 503, which is
// returned as a DEGRADED status rather than an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	var w struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &w)
	var ce *Error
	if errors.As(err, &ce) && ce.Status == http.StatusServiceUnavailable {
		return Health{Status: "DEGRADED", Message: ce.Message}, nil
	}
	if err != nil {
		return h, err
	}
	h.Status, h.Message = w.Status, w.Message
	return h, nil
}

func missingField(field string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: "El campo " + field + " es obligatorio",
		Field:   field,
	}
}
