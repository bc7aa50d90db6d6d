package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens the pool, pings it and makes sure the recuerdos
// schema exists.
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err = InitPostgresTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitPostgresTables creates the recuerdos table and its index if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS recuerdos (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			titulo VARCHAR(200) NOT NULL,
			descripcion TEXT NOT NULL DEFAULT '',
			ubicacion VARCHAR(300) NOT NULL,
			fecha DATE NOT NULL,
			imagen TEXT NOT NULL DEFAULT '',
			latitud DOUBLE PRECISION,
			longitud DOUBLE PRECISION,
			fecha_creacion TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			fecha_actualizacion TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT recuerdos_coordenadas_check CHECK ((latitud IS NULL) = (longitud IS NULL))
		)`,

		`CREATE INDEX IF NOT EXISTS idx_recuerdos_user_fecha ON recuerdos(user_id, fecha DESC)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			log.Printf("Error executing query: %s\nError: %v", query, err)
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
