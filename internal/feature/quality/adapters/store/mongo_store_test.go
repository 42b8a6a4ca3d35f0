package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
)

// fakeCollection is a mock implementation of the Collection interface.
type fakeCollection struct {
	inserted    []any
	insertErr   error
	findOneDoc  any
	findOneErr  error
	findDocs    []any
	deleted     int64
	counts      map[string]int64
	avgQuality  float64
	lastFilter  any
	insertCalls int
}

func (f *fakeCollection) InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, document)
	return &mongo.InsertOneResult{InsertedID: len(f.inserted)}, nil
}

func (f *fakeCollection) InsertMany(ctx context.Context, documents any, opts ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error) {
	docs := documents.([]any)
	ids := make([]any, len(docs))
	f.inserted = append(f.inserted, docs...)
	return &mongo.InsertManyResult{InsertedIDs: ids}, nil
}

func (f *fakeCollection) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	doc := f.findOneDoc
	if doc == nil {
		doc = bson.D{}
	}
	return mongo.NewSingleResultFromDocument(doc, f.findOneErr, nil)
}

func (f *fakeCollection) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	return mongo.NewCursorFromDocuments(f.findDocs, nil, nil)
}

func (f *fakeCollection) DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	f.lastFilter = filter
	return &mongo.DeleteResult{DeletedCount: f.deleted}, nil
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error) {
	d := filter.(bson.D)
	key := "all"
	if len(d) == 1 {
		key = "demo"
	} else if len(d) == 2 {
		key = "demo_success"
	}
	return f.counts[key], nil
}

func (f *fakeCollection) Aggregate(ctx context.Context, pipeline any, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error) {
	return mongo.NewCursorFromDocuments([]any{bson.D{{Key: "avg_quality", Value: f.avgQuality}}}, nil, nil)
}

func TestMongoStore_Save(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{}
	repo := NewMongoStore(coll)

	require.NoError(t, repo.Save(context.Background(), sampleDocument(baseTime, "abc")))

	require.Len(t, coll.inserted, 1)
	doc, ok := coll.inserted[0].(summaryDocument)
	require.True(t, ok)
	assert.Equal(t, "abc", doc.ContentHash)
	assert.Len(t, doc.FullResults, 2)
	assert.False(t, doc.StoredAt.IsZero())

	// document keys follow the stored schema
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, key := range []string{"timestamp", "success", "n_expectations", "n_success", "n_failed", "percent_valid", "content_hash", "full_results", "stored_at"} {
		assert.Contains(t, m, key)
	}
}

func TestMongoStore_SaveFailure(t *testing.T) {
	t.Parallel()

	repo := NewMongoStore(&fakeCollection{insertErr: errors.New("not primary")})

	err := repo.Save(context.Background(), sampleDocument(baseTime, "abc"))

	var serr *domain.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "insert", serr.Op)
}

func TestMongoStore_LatestHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		coll     *fakeCollection
		wantHash string
		wantOK   bool
		wantErr  bool
	}{
		{
			name:     "latest document",
			coll:     &fakeCollection{findOneDoc: bson.D{{Key: "content_hash", Value: "abc"}}},
			wantHash: "abc",
			wantOK:   true,
		},
		{
			name:   "empty collection",
			coll:   &fakeCollection{findOneErr: mongo.ErrNoDocuments},
			wantOK: false,
		},
		{
			name:   "document without content_hash",
			coll:   &fakeCollection{findOneDoc: bson.D{{Key: "success", Value: true}}},
			wantOK: false,
		},
		{
			name:    "server error",
			coll:    &fakeCollection{findOneErr: errors.New("connection reset")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash, ok, err := NewMongoStore(tt.coll).LatestHash(context.Background())
			if tt.wantErr {
				var serr *domain.StoreError
				assert.ErrorAs(t, err, &serr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantHash, hash)
		})
	}
}

func TestMongoStore_Recent(t *testing.T) {
	t.Parallel()

	newer := toSummaryDocument(sampleDocument(baseTime.Add(time.Hour), "new"))
	newer.FullResults = nil
	older := toSummaryDocument(sampleDocument(baseTime, "old"))
	older.FullResults = nil

	repo := NewMongoStore(&fakeCollection{findDocs: []any{newer, older}})

	docs, err := repo.Recent(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ContentHash)
	assert.Equal(t, "run-new", docs[0].RunID)
	assert.Equal(t, 50.0, docs[0].PercentValid)
	assert.True(t, baseTime.Equal(docs[1].Timestamp))
}

func TestMongoStore_Demo(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{
		deleted:    4,
		counts:     map[string]int64{"all": 10, "demo": 8, "demo_success": 6},
		avgQuality: 93.5,
	}
	repo := NewMongoStore(coll)
	ctx := context.Background()

	deleted, err := repo.DeleteDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.Equal(t, demoFilter, coll.lastFilter)

	n, err := repo.InsertMany(ctx, []entity.StoredDocument{
		{Summary: entity.Summary{Timestamp: baseTime, ContentHash: "d1"}, DemoData: true},
		{Summary: entity.Summary{Timestamp: baseTime, ContentHash: "d2"}, DemoData: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, coll.inserted[0].(summaryDocument).DemoData)

	st, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.Total)
	assert.Equal(t, int64(8), st.Demo)
	assert.InDelta(t, 75.0, st.SuccessRate, 1e-9)
	assert.InDelta(t, 93.5, st.AvgPercentValid, 1e-9)
}
