package store

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/internal/models"
	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RecuerdosCollection = "recuerdos"

// mongoRecuerdo is the stored document. Fecha is kept as YYYY-MM-DD text so
// it sorts lexically and is never turned into a BSON datetime.
type mongoRecuerdo struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	Titulo      string             `bson:"titulo"`
	Descripcion string             `bson:"descripcion"`
	Ubicacion   string             `bson:"ubicacion"`
	Fecha       string             `bson:"fecha"`
	Imagen      string             `bson:"imagen,omitempty"`
	Latitud     *float64           `bson:"latitud,omitempty"`
	Longitud    *float64           `bson:"longitud,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// MongoStore keeps recuerdos in a MongoDB collection. Ids are ObjectID hex
// strings.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(RecuerdosCollection)}
}

// NewMongoStoreFromCollection is used by tests that hand in a mock
// collection.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the owner/date index used by List and Search.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "fecha", Value: -1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_fecha"),
	})
	return unavailable("mongo indexes", err)
}

func (s *MongoStore) List(ctx context.Context, userID string) ([]models.Recuerdo, error) {
	return s.find(ctx, bson.M{"user_id": userID}, "mongo list")
}

func (s *MongoStore) Get(ctx context.Context, id, userID string) (models.Recuerdo, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return models.Recuerdo{}, common.ErrNotFound
	}
	var doc mongoRecuerdo
	err = s.coll.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Recuerdo{}, common.ErrNotFound
		}
		return models.Recuerdo{}, unavailable("mongo get", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Create(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	doc := toMongo(r)
	doc.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return models.Recuerdo{}, unavailable("mongo create", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Update(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.ID))
	if err != nil {
		return models.Recuerdo{}, common.ErrNotFound
	}
	doc := toMongo(r)
	set := bson.M{
		"titulo":      doc.Titulo,
		"descripcion": doc.Descripcion,
		"ubicacion":   doc.Ubicacion,
		"fecha":       doc.Fecha,
		"imagen":      doc.Imagen,
		"updated_at":  doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.Latitud != nil && doc.Longitud != nil {
		set["latitud"] = *doc.Latitud
		set["longitud"] = *doc.Longitud
	} else {
		update["$unset"] = bson.M{"latitud": "", "longitud": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out mongoRecuerdo
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "user_id": r.UserID}, update, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Recuerdo{}, common.ErrNotFound
		}
		return models.Recuerdo{}, unavailable("mongo update", err)
	}
	return out.toModel(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return common.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return unavailable("mongo delete", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Recuerdo{}, nil
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	filter := bson.M{
		"user_id": userID,
		"$or": bson.A{
			bson.M{"titulo": re},
			bson.M{"ubicacion": re},
		},
	}
	return s.find(ctx, filter, "mongo search")
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return unavailable("mongo ping", s.coll.Database().Client().Ping(ctx, nil))
}

// Close is a no-op; the client is owned by the database package.
func (s *MongoStore) Close() error { return nil }

func (s *MongoStore) find(ctx context.Context, filter bson.M, op string) ([]models.Recuerdo, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer cursor.Close(ctx)

	var docs []mongoRecuerdo
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, unavailable(op, err)
	}
	out := make([]models.Recuerdo, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func toMongo(r models.Recuerdo) mongoRecuerdo {
	return mongoRecuerdo{
		UserID:      r.UserID,
		Titulo:      r.Titulo,
		Descripcion: r.Descripcion,
		Ubicacion:   r.Ubicacion,
		Fecha:       r.Fecha.String(),
		Imagen:      r.Imagen,
		Latitud:     r.Latitud,
		Longitud:    r.Longitud,
		CreatedAt:   r.FechaCreacion,
		UpdatedAt:   r.FechaActualizacion,
	}
}

func (d mongoRecuerdo) toModel() models.Recuerdo {
	fecha, err := civildate.Parse(d.Fecha)
	if err != nil {
		log.Printf("⚠️  recuerdo %s has an unreadable fecha %q: %v", d.ID.Hex(), d.Fecha, err)
	}
	r := models.Recuerdo{
		ID:                 d.ID.Hex(),
		UserID:             d.UserID,
		Titulo:             d.Titulo,
		Descripcion:        d.Descripcion,
		Ubicacion:          d.Ubicacion,
		Fecha:              fecha,
		Imagen:             d.Imagen,
		FechaCreacion:      d.CreatedAt,
		FechaActualizacion: d.UpdatedAt,
	}
	if d.Latitud != nil && d.Longitud != nil {
		r.Latitud = d.Latitud
		r.Longitud = d.Longitud
	}
	return r
}
