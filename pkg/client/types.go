package client

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
)

// Recuerdo is the presentation-side shape of a diary entry.
type Recuerdo struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Location    string
	Date        civildate.Date
	ImageURL    string
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasCoordinates reports whether the entry can be drawn on the map.
func (r Recuerdo) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// NewRecuerdo holds the fields of a create call.
type NewRecuerdo struct {
	Title       string
	Description string
	Location    string
	Date        civildate.Date
	ImageURL    string
	Latitude    *float64
	Longitude   *float64
}

// Patch is a partial update; nil fields are not sent.
type Patch struct {
	Title            *string
	Description      *string
	Location         *string
	Date             *civildate.Date
	ImageURL         *string
	Latitude         *float64
	Longitude        *float64
	ClearCoordinates bool
}

type Stats struct {
	Total         int
	ThisYear      int
	ThisMonth     int
	TopLocations  []LocationCount
	MonthlyCounts []MonthCount
}

type LocationCount struct {
	Location string
	Count    int
}

type MonthCount struct {
	Month string
	Count int
}

type MonthCalendar struct {
	Year  int
	Month time.Month
	Days  []CalendarDay
}

type CalendarDay struct {
	Day       int
	Recuerdos []Summary
}

type Summary struct {
	ID       string
	Title    string
	Location string
}

type YearCalendar struct {
	Year   int
	Months []CalendarMonth
}

type CalendarMonth struct {
	Month time.Month
	Name  string
	Total int
	First *FirstRecuerdo
}

type FirstRecuerdo struct {
	ID    string
	Title string
	Date  civildate.Date
}

type Marker struct {
	ID        string
	Title     string
	Location  string
	Date      civildate.Date
	Latitude  float64
	Longitude float64
	ImageURL  string
}

type Health struct {
	Status  string
	Message string
}

// OK reports a fully healthy backend.
func (h Health) OK() bool { return strings.EqualFold(h.Status, "OK") }

// wireID accepts numeric ids (file and relational backends) and string ids
// (document and remote backends).
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = wireID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// wireRecuerdo decodes every naming the backends have used for a recuerdo.
type wireRecuerdo struct {
	ID                      wireID   `json:"id"`
	UserID                  string   `json:"userId"`
	UserIDSnake             string   `json:"user_id"`
	Titulo                  string   `json:"titulo"`
	Descripcion             string   `json:"descripcion"`
	Ubicacion               string   `json:"ubicacion"`
	Fecha                   string   `json:"fecha"`
	Imagen                  string   `json:"imagen"`
	Imagenes                []string `json:"imagenes"`
	Latitud                 *float64 `json:"latitud"`
	Longitud                *float64 `json:"longitud"`
	FechaCreacion           string   `json:"fechaCreacion"`
	FechaCreacionSnake      string   `json:"fecha_creacion"`
	CreatedAt               string   `json:"createdAt"`
	FechaActualizacion      string   `json:"fechaActualizacion"`
	FechaActualizacionSnake string   `json:"fecha_actualizacion"`
	UpdatedAt               string   `json:"updatedAt"`
}

func (w wireRecuerdo) toRecuerdo() Recuerdo {
	fecha, _ := civildate.Parse(w.Fecha)
	r := Recuerdo{
		ID:          string(w.ID),
		OwnerID:     firstNonEmpty(w.UserID, w.UserIDSnake),
		Title:       w.Titulo,
		Description: w.Descripcion,
		Location:    w.Ubicacion,
		Date:        fecha,
		ImageURL:    w.Imagen,
		CreatedAt:   parseTimestamp(firstNonEmpty(w.FechaCreacion, w.FechaCreacionSnake, w.CreatedAt)),
		UpdatedAt:   parseTimestamp(firstNonEmpty(w.FechaActualizacion, w.FechaActualizacionSnake, w.UpdatedAt)),
	}
	if r.ImageURL == "" && len(w.Imagenes) > 0 {
		r.ImageURL = w.Imagenes[0]
	}
	if w.Latitud != nil && w.Longitud != nil {
		r.Latitude = w.Latitud
		r.Longitude = w.Longitud
	}
	return r
}

// createBody and updateBody are the request shapes of the CRUD endpoints.
type createBody struct {
	UserID      string   `json:"userId"`
	Titulo      string   `json:"titulo"`
	Descripcion string   `json:"descripcion,omitempty"`
	Ubicacion   string   `json:"ubicacion"`
	Fecha       string   `json:"fecha"`
	Imagen      string   `json:"imagen,omitempty"`
	Latitud     *float64 `json:"latitud,omitempty"`
	Longitud    *float64 `json:"longitud,omitempty"`
}

type updateBody struct {
	UserID            string   `json:"userId"`
	Titulo            *string  `json:"titulo,omitempty"`
	Descripcion       *string  `json:"descripcion,omitempty"`
	Ubicacion         *string  `json:"ubicacion,omitempty"`
	Fecha             *string  `json:"fecha,omitempty"`
	Imagen            *string  `json:"imagen,omitempty"`
	Latitud           *float64 `json:"latitud,omitempty"`
	Longitud          *float64 `json:"longitud,omitempty"`
	BorrarCoordenadas bool     `json:"borrarCoordenadas,omitempty"`
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
