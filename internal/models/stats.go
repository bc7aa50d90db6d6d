package models

// Estadisticas summarizes one owner's recuerdos.
type Estadisticas struct {
	TotalRecuerdos       int                  `json:"totalRecuerdos"`
	RecuerdosEsteAnio    int                  `json:"recuerdosEsteAnio"`
	RecuerdosEsteMes     int                  `json:"recuerdosEsteMes"`
	UbicacionesFavoritas []UbicacionFrecuente `json:"ubicacionesFavoritas"`
	RecuerdosPorMes      []RecuerdosPorMes    `json:"recuerdosPorMes"`
}

type UbicacionFrecuente struct {
	Ubicacion string `json:"ubicacion"`
	Cantidad  int    `json:"cantidad"`
}

type RecuerdosPorMes struct {
	Mes      string `json:"mes"`
	Cantidad int    `json:"cantidad"`
}

// CalendarioMensual lists the days of one month that have entries.
type CalendarioMensual struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Dias  []DiaConRecuerdos `json:"dias"`
}

type DiaConRecuerdos struct {
	Dia       int               `json:"dia"`
	Recuerdos []RecuerdoResumen `json:"recuerdos"`
}

type RecuerdoResumen struct {
	ID        string `json:"id"`
	Titulo    string `json:"titulo"`
	Ubicacion string `json:"ubicacion"`
}

// CalendarioAnual has one entry per month, January first.
type CalendarioAnual struct {
	Year  int          `json:"year"`
	Meses []MesResumen `json:"meses"`
}

type MesResumen struct {
	Mes            int             `json:"mes"`
	NombreMes      string          `json:"nombreMes"`
	TotalRecuerdos int             `json:"totalRecuerdos"`
	PrimerRecuerdo *PrimerRecuerdo `json:"primerRecuerdo,omitempty"`
}

type PrimerRecuerdo struct {
	ID     string `json:"id"`
	Titulo string `json:"titulo"`
	Fecha  string `json:"fecha"`
}

// MarcadorMapa is a recuerdo reduced to what the map view needs.
type MarcadorMapa struct {
	ID        string  `json:"id"`
	Titulo    string  `json:"titulo"`
	Ubicacion string  `json:"ubicacion"`
	Fecha     string  `json:"fecha"`
	Latitud   float64 `json:"latitud"`
	Longitud  float64 `json:"longitud"`
	Imagen    string  `json:"imagen,omitempty"`
}
