package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
)

const recuerdoColumns = `id, user_id, titulo, descripcion, ubicacion, fecha, imagen, latitud, longitud, fecha_creacion, fecha_actualizacion`

// PostgresStore keeps recuerdos in the recuerdos table (see
// database.InitPostgresTables). Ids come from a BIGSERIAL and are never
// reused.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]models.Recuerdo, error) {
	query := `SELECT ` + recuerdoColumns + `
		FROM recuerdos WHERE user_id = $1
		ORDER BY fecha DESC, fecha_creacion DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, unavailable("pg list", err)
	}
	defer rows.Close()
	return scanRecuerdos(rows)
}

func (s *PostgresStore) Get(ctx context.Context, id, userID string) (models.Recuerdo, error) {
	numericID, ok := parseNumericID(id)
	if !ok {
		return models.Recuerdo{}, common.ErrNotFound
	}
	query := `SELECT ` + recuerdoColumns + `
		FROM recuerdos WHERE id = $1 AND user_id = $2`
	r, err := scanRecuerdo(s.db.QueryRowContext(ctx, query, numericID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Recuerdo{}, common.ErrNotFound
		}
		return models.Recuerdo{}, unavailable("pg get", err)
	}
	return r, nil
}

func (s *PostgresStore) Create(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	query := `
		INSERT INTO recuerdos (user_id, titulo, descripcion, ubicacion, fecha, imagen, latitud, longitud, fecha_creacion, fecha_actualizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + recuerdoColumns
	out, err := scanRecuerdo(s.db.QueryRowContext(ctx, query,
		r.UserID, r.Titulo, r.Descripcion, r.Ubicacion, r.Fecha, r.Imagen,
		nullFloat(r.Latitud), nullFloat(r.Longitud), r.FechaCreacion, r.FechaActualizacion,
	))
	if err != nil {
		return models.Recuerdo{}, unavailable("pg create", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	numericID, ok := parseNumericID(r.ID)
	if !ok {
		return models.Recuerdo{}, common.ErrNotFound
	}
	query := `
		UPDATE recuerdos SET titulo = $3, descripcion = $4, ubicacion = $5, fecha = $6, imagen = $7,
			latitud = $8, longitud = $9, fecha_actualizacion = $10
		WHERE id = $1 AND user_id = $2
		RETURNING ` + recuerdoColumns
	out, err := scanRecuerdo(s.db.QueryRowContext(ctx, query,
		numericID, r.UserID, r.Titulo, r.Descripcion, r.Ubicacion, r.Fecha, r.Imagen,
		nullFloat(r.Latitud), nullFloat(r.Longitud), r.FechaActualizacion,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Recuerdo{}, common.ErrNotFound
		}
		return models.Recuerdo{}, unavailable("pg update", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id, userID string) error {
	numericID, ok := parseNumericID(id)
	if !ok {
		return common.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM recuerdos WHERE id = $1 AND user_id = $2`, numericID, userID)
	if err != nil {
		return unavailable("pg delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("pg delete", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Recuerdo{}, nil
	}
	pattern := "%" + escapeLike(term) + "%"
	query := `SELECT ` + recuerdoColumns + `
		FROM recuerdos WHERE user_id = $1 AND (titulo ILIKE $2 OR ubicacion ILIKE $2)
		ORDER BY fecha DESC, fecha_creacion DESC`
	rows, err := s.db.QueryContext(ctx, query, userID, pattern)
	if err != nil {
		return nil, unavailable("pg search", err)
	}
	defer rows.Close()
	return scanRecuerdos(rows)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return unavailable("pg ping", s.db.PingContext(ctx))
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecuerdo(row rowScanner) (models.Recuerdo, error) {
	var (
		r        models.Recuerdo
		id       int64
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&id, &r.UserID, &r.Titulo, &r.Descripcion, &r.Ubicacion, &r.Fecha, &r.Imagen,
		&lat, &lng, &r.FechaCreacion, &r.FechaActualizacion)
	if err != nil {
		return models.Recuerdo{}, err
	}
	r.ID = strconv.FormatInt(id, 10)
	if lat.Valid && lng.Valid {
		r.Latitud = &lat.Float64
		r.Longitud = &lng.Float64
	}
	return r, nil
}

func scanRecuerdos(rows *sql.Rows) ([]models.Recuerdo, error) {
	list := make([]models.Recuerdo, 0)
	for rows.Next() {
		r, err := scanRecuerdo(rows)
		if err != nil {
			return nil, unavailable("pg scan", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("pg rows", err)
	}
	return list, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// escapeLike escapes ILIKE wildcards with the default backslash escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
