package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/Nexo-Labs/SyncTionNotion/internal/secrets"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*NotionClient, uuid.UUID) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	integrationID := uuid.New()
	client := NewNotionClient(secrets.Static("secret-token"), NotionClientConfig{
		BaseURL:       server.URL,
		IntegrationID: integrationID,
		MaxPages:      3,
		HTTPClient:    server.Client(),
	})
	return client, integrationID
}

const databasesPage = `{
	"object": "list",
	"results": [
		{
			"object": "database",
			"id": "db-1",
			"title": [{"type": "text", "plain_text": "Tasks"}],
			"properties": {
				"Name": {"id": "title", "type": "title"},
				"Status": {"id": "st", "type": "select", "select": {"options": [{"id": "o1", "name": "Todo"}]}},
				"Formula": {"id": "fx", "type": "formula"}
			}
		},
		{
			"object": "database",
			"id": "db-untitled",
			"title": [],
			"properties": {}
		}
	],
	"next_cursor": null,
	"has_more": false
}`

func TestNotionClientDatabases(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultNotionVersion, r.Header.Get("Notion-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"filter": {"property": "object", "value": "database"}}`, string(body))

		_, _ = w.Write([]byte(databasesPage))
	})

	databases, err := client.Databases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Database{{ID: "db-1", Name: "Tasks"}}, databases)
}

func TestNotionClientDatabasesFollowsCursor(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var filter models.FilterBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&filter))

		switch calls.Add(1) {
		case 1:
			assert.Nil(t, filter.StartCursor)
			_, _ = w.Write([]byte(`{"results": [{"id": "db-1", "title": [{"plain_text": "One"}]}], "next_cursor": "c2", "has_more": true}`))
		default:
			require.NotNil(t, filter.StartCursor)
			assert.Equal(t, "c2", *filter.StartCursor)
			_, _ = w.Write([]byte(`{"results": [{"id": "db-2", "title": [{"plain_text": "Two"}]}], "next_cursor": null, "has_more": false}`))
		}
	})

	databases, err := client.Databases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []models.Database{{ID: "db-1", Name: "One"}, {ID: "db-2", Name: "Two"}}, databases)
}

func TestNotionClientDatabasesStopsAtPageLimit(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"results": [{"id": "db", "title": [{"plain_text": "Again"}]}], "next_cursor": "more", "has_more": true}`))
	})

	databases, err := client.Databases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, databases, 3)
}

func TestNotionClientDatabaseSchema(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(databasesPage))
	})

	columns, err := client.DatabaseSchema(context.Background(), "db-1")
	require.NoError(t, err)
	require.Len(t, columns, 2)

	kinds := map[string]models.ColumnKind{}
	for _, column := range columns {
		kinds[column.Name] = column.Kind
	}
	assert.Equal(t, models.ColumnKindTitle, kinds["Name"])
	assert.Equal(t, models.ColumnKindSelect, kinds["Status"])

	columns, err = client.DatabaseSchema(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, columns)
}

func TestNotionClientSearchPages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"filter": {"property": "title", "title": {"contains": "road"}}}`, string(body))

		_, _ = w.Write([]byte(`{
			"object": "list",
			"results": [
				{"id": "p1", "icon": {"type": "emoji", "emoji": "🚗"}, "properties": {"Name": {"id": "title", "type": "title", "title": [{"plain_text": "Roadmap 2023"}]}}},
				{"id": "p2", "properties": {"Name": {"id": "title", "type": "title", "title": [{"plain_text": "road"}]}}}
			],
			"next_cursor": null,
			"has_more": false
		}`))
	})

	options, err := client.SearchPages(context.Background(), "db-1", "road")
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "p2", options[0].OptionID)
	assert.Equal(t, "📄 road", options[0].Label)
	assert.Equal(t, "🚗 Roadmap 2023", options[1].Label)
}

func TestNotionClientCreatePage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"parent": {"database_id": "db-1"}, "properties": {"Done": {"checkbox": true}}}`, string(body))

		_, _ = w.Write([]byte(`{"object": "page", "id": "page-9", "url": "https://www.notion.so/page-9"}`))
	})

	checked := true
	page, err := client.CreatePage(context.Background(), models.PageBody{
		Parent:     models.ParentBody{DatabaseID: "db-1"},
		Properties: map[string]models.ValueBody{"Done": {Checkbox: &checked}},
	})
	require.NoError(t, err)
	assert.Equal(t, "page-9", page.ID)
	assert.Equal(t, "https://www.notion.so/page-9", page.URL)
}

func TestNotionClientUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			client, integrationID := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"object": "error", "status": 401, "code": "unauthorized", "message": "API token is invalid."}`))
			})

			_, err := client.Databases(context.Background())
			var authErr *models.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, integrationID, authErr.IntegrationID)
			assert.ErrorIs(t, err, models.ErrUnauthorized)
		})
	}
}

func TestNotionClientMissingSecret(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewNotionClient(secrets.Static(""), NotionClientConfig{BaseURL: server.URL})

	_, err := client.Databases(context.Background())
	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, models.ErrAuthenticationMissing)
	assert.Zero(t, calls.Load())
}

func TestNotionClientAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object": "error", "status": 400, "code": "validation_error", "message": "Title is not a property that exists."}`))
	})

	_, err := client.CreatePage(context.Background(), models.PageBody{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	var authErr *models.AuthError
	assert.False(t, errors.As(err, &authErr))
}

func TestNotionClientMalformedList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object": "list", "results": []}`))
	})

	_, err := client.SearchPages(context.Background(), "db-1", "x")
	assert.ErrorIs(t, err, models.ErrDecode)
}
