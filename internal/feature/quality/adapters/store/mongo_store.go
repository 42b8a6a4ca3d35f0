package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

// Collection is the subset of *mongo.Collection used by MongoStore.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, documents any, opts ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
	Aggregate(ctx context.Context, pipeline any, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error)
}

var _ Collection = (*mongo.Collection)(nil)

// MongoStore stores summaries as documents in one MongoDB collection.
type MongoStore struct {
	coll Collection
}

// MongoStore が各リポジトリインターフェースを実装していることをコンパイル時に検証します。
var (
	_ usecase.SummaryRepository = (*MongoStore)(nil)
	_ usecase.HistoryReader     = (*MongoStore)(nil)
	_ usecase.DemoRepository    = (*MongoStore)(nil)
)

// NewMongoStore returns a MongoStore backed by coll.
func NewMongoStore(coll Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

var newestFirst = bson.D{{Key: "timestamp", Value: -1}}

// Save appends doc to the collection.
func (s *MongoStore) Save(ctx context.Context, doc entity.StoredDocument) error {
	if _, err := s.coll.InsertOne(ctx, toSummaryDocument(doc)); err != nil {
		return &domain.StoreError{Op: "insert", Err: err}
	}
	return nil
}

// LatestHash returns the content_hash of the newest document by timestamp.
func (s *MongoStore) LatestHash(ctx context.Context) (string, bool, error) {
	opts := options.FindOne().
		SetSort(newestFirst).
		SetProjection(bson.D{{Key: "content_hash", Value: 1}})

	var out struct {
		ContentHash *string `bson:"content_hash"`
	}
	if err := s.coll.FindOne(ctx, bson.D{}, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, &domain.StoreError{Op: "find latest", Err: err}
	}
	if out.ContentHash == nil {
		return "", false, nil
	}
	return *out.ContentHash, true, nil
}

// Recent returns up to limit documents, newest first, without full results.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "full_results", Value: 0}})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, &domain.StoreError{Op: "find recent", Err: err}
	}
	var docs []summaryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &domain.StoreError{Op: "decode recent", Err: err}
	}

	out := make([]entity.StoredDocument, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

var demoFilter = bson.D{{Key: "demo_data", Value: true}}

// DeleteDemo removes every document flagged as demo data.
func (s *MongoStore) DeleteDemo(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, demoFilter)
	if err != nil {
		return 0, &domain.StoreError{Op: "delete demo", Err: err}
	}
	return res.DeletedCount, nil
}

// InsertMany appends docs in one round trip.
func (s *MongoStore) InsertMany(ctx context.Context, docs []entity.StoredDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	batch := make([]any, 0, len(docs))
	for _, d := range docs {
		batch = append(batch, toSummaryDocument(d))
	}
	res, err := s.coll.InsertMany(ctx, batch)
	if err != nil {
		return 0, &domain.StoreError{Op: "insert many", Err: err}
	}
	return len(res.InsertedIDs), nil
}

// Stats summarises the collection and its demo documents.
func (s *MongoStore) Stats(ctx context.Context) (usecase.DemoStats, error) {
	var st usecase.DemoStats
	var err error

	if st.Total, err = s.coll.CountDocuments(ctx, bson.D{}); err != nil {
		return st, &domain.StoreError{Op: "count", Err: err}
	}
	if st.Demo, err = s.coll.CountDocuments(ctx, demoFilter); err != nil {
		return st, &domain.StoreError{Op: "count demo", Err: err}
	}
	if st.Demo == 0 {
		return st, nil
	}

	succeeded, err := s.coll.CountDocuments(ctx, bson.D{{Key: "demo_data", Value: true}, {Key: "success", Value: true}})
	if err != nil {
		return st, &domain.StoreError{Op: "count demo success", Err: err}
	}
	st.SuccessRate = float64(succeeded) / float64(st.Demo) * 100

	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: demoFilter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg_quality", Value: bson.D{{Key: "$avg", Value: "$percent_valid"}}},
		}}},
	})
	if err != nil {
		return st, &domain.StoreError{Op: "aggregate demo", Err: err}
	}
	var rows []struct {
		AvgQuality float64 `bson:"avg_quality"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return st, &domain.StoreError{Op: "decode aggregate", Err: err}
	}
	if len(rows) > 0 {
		st.AvgPercentValid = rows[0].AvgQuality
	}
	return st, nil
}
