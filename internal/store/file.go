package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
)

// fileDocument is the on-disk layout. LastID is the high-water mark of
// allocated ids so a deleted maximum id is never handed out again; files
// written without it fall back to the largest id present.
type fileDocument struct {
	Recuerdos   []fileRecord `json:"recuerdos"`
	LastUpdated time.Time    `json:"lastUpdated"`
	LastID      int64        `json:"lastId,omitempty"`
}

type fileRecord struct {
	ID                 int64          `json:"id"`
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

// FileStore keeps every recuerdo in a single JSON document. Writers are
// serialized and each write replaces the file atomically.
type FileStore struct {
	path string

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "recuerdos.json")
	}
	return &FileStore{path: filepath.Clean(path)}
}

func (s *FileStore) List(ctx context.Context, userID string) ([]models.Recuerdo, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Recuerdo, 0)
	for _, rec := range doc.Recuerdos {
		if rec.UserID == userID {
			out = append(out, rec.toModel())
		}
	}
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, id, userID string) (models.Recuerdo, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return models.Recuerdo{}, err
	}
	numericID, ok := parseNumericID(id)
	if !ok {
		return models.Recuerdo{}, common.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Recuerdo{}, err
	}
	idx := doc.indexOf(numericID, userID)
	if idx < 0 {
		return models.Recuerdo{}, common.ErrNotFound
	}
	return doc.Recuerdos[idx].toModel(), nil
}

func (s *FileStore) Create(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return models.Recuerdo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Recuerdo{}, err
	}
	rec := fromModel(r)
	rec.ID = doc.nextID()
	doc.LastID = rec.ID
	doc.Recuerdos = append(doc.Recuerdos, rec)
	doc.LastUpdated = rec.FechaCreacion
	if err := s.save(doc); err != nil {
		return models.Recuerdo{}, err
	}
	return rec.toModel(), nil
}

func (s *FileStore) Update(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return models.Recuerdo{}, err
	}
	numericID, ok := parseNumericID(r.ID)
	if !ok {
		return models.Recuerdo{}, common.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Recuerdo{}, err
	}
	idx := doc.indexOf(numericID, r.UserID)
	if idx < 0 {
		return models.Recuerdo{}, common.ErrNotFound
	}
	rec := fromModel(r)
	rec.ID = numericID
	rec.FechaCreacion = doc.Recuerdos[idx].FechaCreacion
	doc.Recuerdos[idx] = rec
	doc.LastUpdated = rec.FechaActualizacion
	if err := s.save(doc); err != nil {
		return models.Recuerdo{}, err
	}
	return rec.toModel(), nil
}

func (s *FileStore) Delete(ctx context.Context, id, userID string) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	numericID, ok := parseNumericID(id)
	if !ok {
		return common.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	idx := doc.indexOf(numericID, userID)
	if idx < 0 {
		return common.ErrNotFound
	}
	if doc.LastID < doc.maxID() {
		doc.LastID = doc.maxID()
	}
	doc.Recuerdos = append(doc.Recuerdos[:idx], doc.Recuerdos[idx+1:]...)
	doc.LastUpdated = time.Now().UTC()
	return s.save(doc)
}

func (s *FileStore) Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Recuerdo, 0)
	for _, r := range all {
		if Matches(r, term) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Ping checks that the data directory is usable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return unavailable("file ping", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() (*fileDocument, error) {
	doc := &fileDocument{Recuerdos: []fileRecord{}}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, unavailable("read "+s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, unavailable("decode "+s.path, err)
	}
	if doc.Recuerdos == nil {
		doc.Recuerdos = []fileRecord{}
	}
	return doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	if err := writeJSONFileAtomic(s.path, doc, 0o600); err != nil {
		return unavailable("write "+s.path, err)
	}
	return nil
}

func (d *fileDocument) indexOf(id int64, userID string) int {
	for i, rec := range d.Recuerdos {
		if rec.ID == id && rec.UserID == userID {
			return i
		}
	}
	return -1
}

func (d *fileDocument) maxID() int64 {
	var max int64
	for _, rec := range d.Recuerdos {
		if rec.ID > max {
			max = rec.ID
		}
	}
	return max
}

func (d *fileDocument) nextID() int64 {
	next := d.maxID()
	if d.LastID > next {
		next = d.LastID
	}
	return next + 1
}

func (r fileRecord) toModel() models.Recuerdo {
	return models.Recuerdo{
		ID:                 strconv.FormatInt(r.ID, 10),
		UserID:             r.UserID,
		Titulo:             r.Titulo,
		Descripcion:        r.Descripcion,
		Ubicacion:          r.Ubicacion,
		Fecha:              r.Fecha,
		Imagen:             r.Imagen,
		Latitud:            r.Latitud,
		Longitud:           r.Longitud,
		FechaCreacion:      r.FechaCreacion,
		FechaActualizacion: r.FechaActualizacion,
	}
}

func fromModel(r models.Recuerdo) fileRecord {
	return fileRecord{
		UserID:             r.UserID,
		Titulo:             r.Titulo,
		Descripcion:        r.Descripcion,
		Ubicacion:          r.Ubicacion,
		Fecha:              r.Fecha,
		Imagen:             r.Imagen,
		Latitud:            r.Latitud,
		Longitud:           r.Longitud,
		FechaCreacion:      r.FechaCreacion,
		FechaActualizacion: r.FechaActualizacion,
	}
}

func parseNumericID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func writeJSONFileAtomic(path string, v any, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create parent dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json for %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}

func ensureNotCanceled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return unavailable("canceled", ctx.Err())
	default:
		return nil
	}
}
