package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/matzehuels/musclegraph/pkg/cache"
	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
)

// DefaultMongoDatabase is used when the connection string names no database.
const DefaultMongoDatabase = "musclegraph"

// Collection names read by MongoStore. Exercise and node documents use _id
// as their identifier; link documents carry nodeId, exerciseId and role.
const (
	CollectionNodes     = "nodes"
	CollectionExercises = "exercises"
	CollectionLinks     = "links"
)

// MongoSnapshotParam is the connection string query parameter that enables
// snapshot read sessions, as in mongodb://host/db?snapshot=true. It is
// removed before the URI reaches the driver.
const MongoSnapshotParam = "snapshot"

// MongoStore reads snapshots from a MongoDB database.
//
// Reads run inside one session. When the deployment supports snapshot
// sessions (replica sets, MongoDB 5.0+) enable them with [WithMongoSnapshot]
// or [MongoSnapshotParam] so all three collections are read at the same
// cluster time.
type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	snapshot bool
	cfg      config
}

// MongoOption configures a MongoStore.
type MongoOption func(*MongoStore)

// WithMongoSnapshot enables snapshot read sessions.
func WithMongoSnapshot(enabled bool) MongoOption {
	return func(s *MongoStore) { s.snapshot = enabled }
}

// OpenMongo connects to uri and pings the server, retrying transient
// failures. Backend options are read from the URI; see [MongoSnapshotParam].
func OpenMongo(ctx context.Context, uri string, opts ...Option) (*MongoStore, error) {
	uri, mongoOpts, err := mongoURIOptions(uri)
	if err != nil {
		return nil, err
	}
	return OpenMongoWith(ctx, uri, opts, mongoOpts)
}

// mongoURIOptions strips the parameters the driver does not know from uri
// and returns the options they select.
func mongoURIOptions(uri string) (string, []MongoOption, error) {
	base, query, found := strings.Cut(uri, "?")
	if !found {
		return uri, nil, nil
	}

	var (
		kept      []string
		mongoOpts []MongoOption
	)
	for _, pair := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key != MongoSnapshotParam {
			kept = append(kept, pair)
			continue
		}
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return "", nil, errors.New(errors.ErrCodeInvalidInput, "mongodb uri: %s=%q is not a boolean", MongoSnapshotParam, value)
		}
		mongoOpts = append(mongoOpts, WithMongoSnapshot(enabled))
	}

	if len(kept) == 0 {
		return base, mongoOpts, nil
	}
	return base + "?" + strings.Join(kept, "&"), mongoOpts, nil
}

// OpenMongoWith is OpenMongo with backend-specific options.
func OpenMongoWith(ctx context.Context, uri string, opts []Option, mongoOpts []MongoOption) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse mongodb uri")
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connect mongodb")
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return cache.Retryable(fmt.Errorf("%w: ping mongodb: %v", cache.ErrNetwork, err))
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connect mongodb")
	}

	s := &MongoStore{client: client, db: client.Database(dbName), cfg: newConfig(opts)}
	for _, opt := range mongoOpts {
		opt(s)
	}
	return s, nil
}

// Snapshot reads every collection.
func (s *MongoStore) Snapshot(ctx context.Context) (*catalog.Catalog, error) {
	return load(ctx, BackendMongo, s.cfg, s.read)
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) read(ctx context.Context) (graph.Catalog, error) {
	var doc graph.Catalog
	sessOpts := options.Session()
	if s.snapshot {
		sessOpts.SetSnapshot(true)
	}

	err := s.client.UseSessionWithOptions(ctx, sessOpts, func(sc mongo.SessionContext) error {
		if err := findAll(sc, s.db.Collection(CollectionExercises), &doc.Exercises); err != nil {
			return err
		}
		if err := findAll(sc, s.db.Collection(CollectionNodes), &doc.Nodes); err != nil {
			return err
		}
		return findAll(sc, s.db.Collection(CollectionLinks), &doc.Links)
	})
	if err != nil {
		return graph.Catalog{}, err
	}
	return doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, out *[]T) error {
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "find %s", coll.Name())
	}
	if err := cur.All(ctx, out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", coll.Name())
	}
	return nil
}
