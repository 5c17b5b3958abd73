package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClientWithBaseURL(server.URL, "test-token")
}

func TestClient_PopularMovies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"page": 3,
			"total_pages": 100,
			"results": [
				{"id": 603, "title": "The Matrix", "vote_average": 8.2, "popularity": 85.1},
				{"id": 27205, "title": "Inception", "vote_average": 8.4, "popularity": 92.3}
			]
		}`))
	})

	stubs, err := client.PopularMovies(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, stubs, 2)
	assert.Equal(t, 603, stubs[0].ID)
	assert.Equal(t, "The Matrix", stubs[0].Title)
}

func TestClient_PopularMovies_clampsPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))

		_, _ = w.Write([]byte(`{"page": 1, "results": []}`))
	})

	_, err := client.PopularMovies(context.Background(), 0)
	require.NoError(t, err)
}

func TestClient_SearchMovies(t *testing.T) {
	t.Run("empty query is rejected without a request", func(t *testing.T) {
		client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("unexpected request")
		})

		_, err := client.SearchMovies(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("passes query and excludes adult titles", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/movie", r.URL.Path)
			assert.Equal(t, "the matrix", r.URL.Query().Get("query"))
			assert.Equal(t, "false", r.URL.Query().Get("include_adult"))

			_, _ = w.Write([]byte(`{"results": [{"id": 603, "title": "The Matrix"}]}`))
		})

		stubs, err := client.SearchMovies(context.Background(), "the matrix")
		require.NoError(t, err)
		require.Len(t, stubs, 1)
		assert.Equal(t, 603, stubs[0].ID)
	})
}

func TestClient_MovieDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"id": 603,
			"title": "The Matrix",
			"overview": "A hacker discovers reality is a simulation.",
			"release_date": "1999-03-31",
			"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
			"vote_average": 8.2
		}`))
	})

	details, err := client.MovieDetails(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", details.Title)
	require.Len(t, details.Genres, 2)
	assert.Equal(t, "Science Fiction", details.Genres[1].Name)
	require.NotNil(t, details.VoteAverage)
	assert.InDelta(t, 8.2, *details.VoteAverage, 0.001)
}

func TestClient_MovieTrailer(t *testing.T) {
	t.Run("returns the first official YouTube trailer", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/movie/603/videos", r.URL.Path)

			_, _ = w.Write([]byte(`{"id": 603, "results": [
				{"key": "abc", "site": "Vimeo", "type": "Trailer"},
				{"key": "def", "site": "YouTube", "type": "Featurette"},
				{"key": "ghi", "site": "YouTube", "type": "Trailer"}
			]}`))
		})

		key, err := client.MovieTrailer(context.Background(), 603)
		require.NoError(t, err)
		assert.Equal(t, "ghi", key)
	})

	t.Run("no YouTube trailer returns empty key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id": 603, "results": []}`))
		})

		key, err := client.MovieTrailer(context.Background(), 603)
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func TestClient_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_message": "The resource you requested could not be found."}`))
	})

	_, err := client.MovieDetails(context.Background(), 999999999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
