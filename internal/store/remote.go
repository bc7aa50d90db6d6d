package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
	"github.com/AnshRaj112/recuerdos-backend/pkg/client"
	"github.com/AnshRaj112/recuerdos-backend/pkg/utils"
)

// RemoteStore forwards every call to another recuerdos API. Ids and
// timestamps are whatever the remote assigns.
type RemoteStore struct {
	api *client.Client
}

func NewRemoteStore(api *client.Client) *RemoteStore {
	return &RemoteStore{api: api}
}

func (s *RemoteStore) List(ctx context.Context, userID string) ([]models.Recuerdo, error) {
	rs, err := s.api.List(ctx, userID)
	if err != nil {
		return nil, remoteError("list recuerdos", err)
	}
	return fromClientList(rs), nil
}

func (s *RemoteStore) Get(ctx context.Context, id, userID string) (models.Recuerdo, error) {
	r, err := s.api.Get(ctx, userID, id)
	if err != nil {
		return models.Recuerdo{}, remoteError("get recuerdo", err)
	}
	return fromClient(r), nil
}

func (s *RemoteStore) Create(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	created, err := s.api.Create(ctx, r.UserID, client.NewRecuerdo{
		Title:       r.Titulo,
		Description: r.Descripcion,
		Location:    r.Ubicacion,
		Date:        r.Fecha,
		ImageURL:    r.Imagen,
		Latitude:    r.Latitud,
		Longitude:   r.Longitud,
	})
	if err != nil {
		return models.Recuerdo{}, remoteError("create recuerdo", err)
	}
	return fromClient(created), nil
}

// Update sends every mutable field, so the remote ends up with a full
// replacement even though the wire call is a partial update.
func (s *RemoteStore) Update(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	fecha := r.Fecha
	p := client.Patch{
		Title:            &r.Titulo,
		Description:      &r.Descripcion,
		Location:         &r.Ubicacion,
		Date:             &fecha,
		ImageURL:         &r.Imagen,
		Latitude:         r.Latitud,
		Longitude:        r.Longitud,
		ClearCoordinates: !r.HasCoordinates(),
	}
	updated, err := s.api.Update(ctx, r.UserID, r.ID, p)
	if err != nil {
		return models.Recuerdo{}, remoteError("update recuerdo", err)
	}
	return fromClient(updated), nil
}

func (s *RemoteStore) Delete(ctx context.Context, id, userID string) error {
	if err := s.api.Delete(ctx, userID, id); err != nil {
		return remoteError("delete recuerdo", err)
	}
	return nil
}

func (s *RemoteStore) Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error) {
	rs, err := s.api.Search(ctx, userID, term)
	if err != nil {
		return nil, remoteError("search recuerdos", err)
	}
	return fromClientList(rs), nil
}

func (s *RemoteStore) Ping(ctx context.Context) error {
	h, err := s.api.Health(ctx)
	if err != nil {
		return remoteError("ping remote", err)
	}
	if !h.OK() {
		return fmt.Errorf("ping remote: %w: status %s", common.ErrStoreUnavailable, h.Status)
	}
	return nil
}

func (s *RemoteStore) Close() error { return nil }

func remoteError(op string, err error) error {
	var ce *client.Error
	if !errors.As(err, &ce) {
		return unavailable(op, err)
	}
	switch ce.Kind {
	case client.KindNotFound:
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case client.KindInvalidInput:
		return &utils.ValidationError{Field: ce.Field, Message: ce.Message}
	case client.KindTimeout:
		return fmt.Errorf("%s: %w: %w", op, common.ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
	}
}

func fromClient(r client.Recuerdo) models.Recuerdo {
	return models.Recuerdo{
		ID:                 r.ID,
		UserID:             r.OwnerID,
		Titulo:             r.Title,
		Descripcion:        r.Description,
		Ubicacion:          r.Location,
		Fecha:              r.Date,
		Imagen:             r.ImageURL,
		Latitud:            r.Latitude,
		Longitud:           r.Longitude,
		FechaCreacion:      r.CreatedAt,
		FechaActualizacion: r.UpdatedAt,
	}
}

func fromClientList(rs []client.Recuerdo) []models.Recuerdo {
	out := make([]models.Recuerdo, 0, len(rs))
	for _, r := range rs {
		out = append(out, fromClient(r))
	}
	return out
}
