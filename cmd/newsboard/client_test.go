package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/newsboard/internal/store"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		jsonOutput = false
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestArticlesCommand(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"articles":[{"article_id":5,"author":"rogersop","title":"UNCOVERED: catspiracy","topic":"cats","votes":0,"comment_count":2}]}`))
	}))
	defer ts.Close()

	out, err := runCLI(t, "articles", "--url", ts.URL, "--topic", "cats", "--sort-by", "votes")
	require.NoError(t, err)
	assert.Equal(t, "sort_by=votes&topic=cats", gotQuery)
	assert.Contains(t, out, "UNCOVERED: catspiracy")
	assert.Contains(t, out, "TITLE")
}

func TestTopicsCommandJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/topics", r.URL.Path)
		_, _ = w.Write([]byte(`{"topics":[{"slug":"mitch","description":"The man, the Mitch, the legend"}]}`))
	}))
	defer ts.Close()

	out, err := runCLI(t, "topics", "--url", ts.URL, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"mitch","description":"The man, the Mitch, the legend"}]`, out)
}

func TestArticleCommandRejectsBadID(t *testing.T) {
	_, err := runCLI(t, "article", "banana")
	assert.EqualError(t, err, `invalid article id "banana"`)
}

func TestUsersCommandSurfacesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"msg":"User not found"}`))
	}))
	defer ts.Close()

	_, err := runCLI(t, "users", "nobody", "--url", ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User not found")
}

func TestArticlesFlagDefaultsMatchServer(t *testing.T) {
	order := articlesCmd.Flags().Lookup("order")
	require.NotNil(t, order)
	assert.Contains(t, order.Usage, "(default "+strings.ToLower(store.DefaultOrder)+")")
	assert.Contains(t, order.Usage, "(default asc)")

	sortBy := articlesCmd.Flags().Lookup("sort-by")
	require.NotNil(t, sortBy)
	assert.Contains(t, sortBy.Usage, "(default created_at)")
}
