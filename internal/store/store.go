// Package store holds the record stores behind the recuerdos service. Every
// backend implements Store and is chosen by configuration; validation and
// field translation live in the service, not here.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
)

// Store persists recuerdos keyed by id and owner. Reads and writes for an id
// that does not belong to userID return common.ErrNotFound, the same as an id
// that does not exist. Driver failures are wrapped in
// common.ErrStoreUnavailable (or common.ErrTimeout on deadline).
type Store interface {
	List(ctx context.Context, userID string) ([]models.Recuerdo, error)
	Get(ctx context.Context, id, userID string) (models.Recuerdo, error)
	// Create assigns the id. Timestamps are taken from r as given.
	Create(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error)
	// Update replaces every mutable field of the stored row matching r.ID
	// and r.UserID.
	Update(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error)
	Delete(ctx context.Context, id, userID string) error
	// Search matches term case-insensitively against titulo or ubicacion.
	Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error)
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by RECUERDOS_STORE.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRemote   = "remote"
)

// unavailable wraps a driver error so callers can tell a transient failure
// from a missing record.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}

// Matches is the shared title-or-location predicate for stores that filter
// in memory.
func Matches(r models.Recuerdo, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.Titulo), term) ||
		strings.Contains(strings.ToLower(r.Ubicacion), term)
}

// Search fields accepted by MatchesField.
const (
	FieldTitulo    = "titulo"
	FieldUbicacion = "ubicacion"
)

// MatchesField is Matches restricted to one field.
func MatchesField(r models.Recuerdo, field, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	switch field {
	case FieldTitulo:
		return strings.Contains(strings.ToLower(r.Titulo), term)
	case FieldUbicacion:
		return strings.Contains(strings.ToLower(r.Ubicacion), term)
	}
	return false
}
