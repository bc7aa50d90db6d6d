package models

import (
	"time"

	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
)

// Recuerdo is a diary entry. Every store keeps it scoped to UserID.
type Recuerdo struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	Titulo             string         `json:"titulo"`
	Descripcion        string         `json:"descripcion"`
	Ubicacion          string         `json:"ubicacion"`
	Fecha              civildate.Date `json:"fecha"`
	Imagen             string         `json:"imagen,omitempty"`
	Latitud            *float64       `json:"latitud,omitempty"`
	Longitud           *float64       `json:"longitud,omitempty"`
	FechaCreacion      time.Time      `json:"fechaCreacion"`
	FechaActualizacion time.Time      `json:"fechaActualizacion"`
}

// HasCoordinates reports whether the entry can be placed on the map.
func (r Recuerdo) HasCoordinates() bool {
	return r.Latitud != nil && r.Longitud != nil
}

// NewRecuerdo carries the client-supplied fields of a create request.
type NewRecuerdo struct {
	UserID      string
	Titulo      string
	Descripcion string
	Ubicacion   string
	Fecha       string
	Imagen      string
	Latitud     *float64
	Longitud    *float64
}

// RecuerdoPatch is a partial update. Nil fields are left untouched.
// ClearCoordinates removes both coordinates; it is the only way to drop
// them, editing Ubicacion alone keeps the stored pair.
type RecuerdoPatch struct {
	Titulo           *string
	Descripcion      *string
	Ubicacion        *string
	Fecha            *string
	Imagen           *string
	Latitud          *float64
	Longitud         *float64
	ClearCoordinates bool
}

// IsEmpty reports whether the patch changes nothing.
func (p RecuerdoPatch) IsEmpty() bool {
	return p.Titulo == nil && p.Descripcion == nil && p.Ubicacion == nil && p.Fecha == nil &&
		p.Imagen == nil && p.Latitud == nil && p.Longitud == nil && !p.ClearCoordinates
}
