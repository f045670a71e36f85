package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/romangod6/sitemapgen/internal/errors"
)

type fakeDocumentClient struct {
	docs         map[string][]map[string]any
	fields       []string
	disconnected bool
}

func (c *fakeDocumentClient) FindAll(_ context.Context, database, collection string, fields []string) ([]map[string]any, error) {
	c.fields = fields
	docs, ok := c.docs[database+"."+collection]
	if !ok {
		return nil, errors.Newf("collection %s not found", collection)
	}
	return docs, nil
}

func (c *fakeDocumentClient) Disconnect(context.Context) error {
	c.disconnected = true
	return nil
}

func newFakeDocumentStore(client *fakeDocumentClient, connectErr error) *DocumentStore {
	s := NewDocumentStore(DocumentOptions{
		URI:         "mongodb://localhost:27017",
		Database:    "site_data",
		Collections: []string{"breaking_news", "missing", "start_a_blog"},
		Prefixes:    Prefixes{"breaking_news": "/breaking-news"},
	})
	s.connect = func(context.Context, string, time.Duration) (documentClient, error) {
		if connectErr != nil {
			return nil, connectErr
		}
		return client, nil
	}
	return s
}

func TestDocumentStoreListsAndReleasesConnection(t *testing.T) {
	published := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeDocumentClient{docs: map[string][]map[string]any{
		"site_data.breaking_news": {
			{"_id": "1", "canonicalUrl": "/breaking-news/rates", "datePublished": primitive.NewDateTimeFromTime(published)},
			{"_id": "2", "canonicalUrl": "/breaking-news/no-date"},
		},
		"site_data.start_a_blog": {
			{"canonicalUrl": "https://www.example.com/start-a-blog/hosting", "datePublished": "2024-01-01", "dateModified": published},
		},
	}}
	store := newFakeDocumentStore(client, nil)
	assert.Equal(t, "mongo:site_data", store.Name())
	assert.Equal(t, "/breaking-news", store.PathPrefix("breaking_news"))

	records, err := Fetch(context.Background(), store, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-06-01T12:00:00Z", records[0].PublishedAt)
	assert.Equal(t, "2024-06-01T12:00:00Z", records[1].ModifiedAt)
	assert.Equal(t, "start_a_blog", records[1].Collection)
	assert.Equal(t, []string{"canonicalUrl", "datePublished", "dateModified"}, client.fields)
	assert.True(t, client.disconnected)
}

func TestDocumentStoreConnectFailure(t *testing.T) {
	store := newFakeDocumentStore(nil, errors.New("server selection timeout"))
	_, err := Fetch(context.Background(), store, nil)
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
}

func TestDocumentStoreRequiresURI(t *testing.T) {
	store := NewDocumentStore(DocumentOptions{Database: "db", Collections: []string{"a"}})
	_, err := store.Open(context.Background())
	assert.Error(t, err)
	assert.Equal(t, DefaultTimeout, store.timeout)
}
