package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/errs"
)

func TestNotionQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/databases/db-1/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, NotionVersion, r.Header.Get("Notion-Version"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"property": "Id",
			"number":   map[string]any{"equals": float64(42)},
		}, body["filter"])
		assert.Equal(t, float64(1), body["page_size"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [{
				"id": "page-1",
				"properties": {
					"Name": {"type": "title", "title": [{"type": "text", "plain_text": "Morning Ride"}]},
					"Id": {"type": "number", "number": 42},
					"TSS": {"type": "number", "number": null}
				}
			}],
			"has_more": false,
			"next_cursor": null
		}`))
	}))
	defer ts.Close()

	c := &NotionClient{Secret: "secret", BaseURL: ts.URL, HTTPClient: ts.Client()}
	id := 42.0
	res, err := c.Query(context.Background(), "db-1", Query{
		Filter:   &Filter{Property: "Id", Number: &NumberCondition{Equals: &id}},
		PageSize: 1,
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	page := res.Results[0]
	assert.Equal(t, "page-1", page.ID)
	assert.Equal(t, "Morning Ride", page.Properties["Name"].PlainText())
	require.NotNil(t, page.Properties["Id"].Number)
	assert.Equal(t, 42.0, *page.Properties["Id"].Number)
	assert.Nil(t, page.Properties["TSS"].Number)
	assert.False(t, res.HasMore)
}

func TestNotionCreateAndUpdate(t *testing.T) {
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)

		var body map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if r.Method == http.MethodPost {
			assert.JSONEq(t, `{"database_id":"db-1"}`, string(body["parent"]))
		} else {
			_, hasParent := body["parent"]
			assert.False(t, hasParent)
		}
		assert.JSONEq(t, `{"TSS":{"number":55.5}}`, string(body["properties"]))

		_, _ = w.Write([]byte(`{"id":"page-9","properties":{}}`))
	}))
	defer ts.Close()

	c := &NotionClient{Secret: "secret", BaseURL: ts.URL}
	props := Properties{"TSS": Number(55.5)}

	page, err := c.Create(context.Background(), "db-1", props)
	require.NoError(t, err)
	assert.Equal(t, "page-9", page.ID)

	_, err = c.Update(context.Background(), "page-9", props)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST /pages", "PATCH /pages/page-9"}, seen)
}

func TestNotionErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, errs.ErrNotFound},
		{"bad secret", http.StatusUnauthorized, errs.ErrUpstreamAuth},
		{"server error", http.StatusBadGateway, errs.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"object":"error"}`))
			}))
			defer ts.Close()

			c := &NotionClient{Secret: "secret", BaseURL: ts.URL}
			_, err := c.Retrieve(context.Background(), "missing")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNotionUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := &NotionClient{Secret: "secret", BaseURL: url}
	_, err := c.Retrieve(context.Background(), "page")
	assert.ErrorIs(t, err, errs.ErrUpstreamConnection)
}
