package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
)

// DefaultTimeout bounds connecting and each collection read.
const DefaultTimeout = 30 * time.Second

// documentClient is the part of a document database connection the store
// uses.
type documentClient interface {
	FindAll(ctx context.Context, database, collection string, fields []string) ([]map[string]any, error)
	Disconnect(ctx context.Context) error
}

type documentConnector func(ctx context.Context, uri string, timeout time.Duration) (documentClient, error)

// DocumentStore lists documents from MongoDB collections. Every Open makes
// a new client that Close disconnects; nothing is shared between runs.
type DocumentStore struct {
	name        string
	uri         string
	database    string
	collections []string
	prefixes    Prefixes
	fields      FieldMap
	timeout     time.Duration
	connect     documentConnector
}

type DocumentOptions struct {
	Name        string
	URI         string
	Database    string
	Collections []string
	Prefixes    Prefixes
	Fields      FieldMap
	Timeout     time.Duration
}

func NewDocumentStore(opts DocumentOptions) *DocumentStore {
	name := opts.Name
	if name == "" {
		name = "mongo:" + opts.Database
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DocumentStore{
		name:        name,
		uri:         opts.URI,
		database:    opts.Database,
		collections: opts.Collections,
		prefixes:    opts.Prefixes,
		fields:      opts.Fields.WithDefaults(DocumentFields),
		timeout:     timeout,
		connect:     connectMongo,
	}
}

func (s *DocumentStore) Name() string          { return s.name }
func (s *DocumentStore) Collections() []string { return s.collections }

func (s *DocumentStore) PathPrefix(collection string) string {
	return s.prefixes.For(collection)
}

func (s *DocumentStore) Open(ctx context.Context) (Lister, error) {
	if s.uri == "" {
		return nil, errors.New("no connection string configured")
	}
	client, err := s.connect(ctx, s.uri, s.timeout)
	if err != nil {
		return nil, err
	}
	return &documentLister{store: s, client: client}, nil
}

type documentLister struct {
	store  *DocumentStore
	client documentClient
}

func (l *documentLister) List(ctx context.Context, collection string) ([]models.ContentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.store.timeout)
	defer cancel()

	f := l.store.fields
	docs, err := l.client.FindAll(ctx, l.store.database, collection, []string{f.URL, f.Published, f.Modified})
	if err != nil {
		return nil, errors.Wrapf(err, "find %s.%s", l.store.database, collection)
	}
	records := make([]models.ContentRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFrom(doc, f))
	}
	return records, nil
}

func (l *documentLister) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), l.store.timeout)
	defer cancel()
	return l.client.Disconnect(ctx)
}

type mongoClient struct {
	client *mongo.Client
}

func connectMongo(ctx context.Context, uri string, timeout time.Duration) (documentClient, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}
	return &mongoClient{client: client}, nil
}

func (m *mongoClient) FindAll(ctx context.Context, database, collection string, fields []string) ([]map[string]any, error) {
	projection := bson.D{}
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}
	cur, err := m.client.Database(database).Collection(collection).
		Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, map[string]any(d))
	}
	return out, nil
}

func (m *mongoClient) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
