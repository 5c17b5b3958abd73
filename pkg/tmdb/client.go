// Package tmdb provides a client for The Movie Database (TMDb) v3 API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ClientOptions configures the TMDb API client
type ClientOptions struct {
	// BaseURL is the base URL for the TMDb API (default: "https://api.themoviedb.org/3")
	BaseURL string
	// AccessToken is the TMDb API read access token
	AccessToken string
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds)
	Timeout time.Duration
}

// Client is the TMDb API client
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *retryablehttp.Client
}

// NewClient creates a new TMDb API client with default settings
func NewClient(accessToken string) *Client {
	return NewClientWithOptions(ClientOptions{
		AccessToken: accessToken,
		BaseURL:     "https://api.themoviedb.org/3",
	})
}

// NewClientWithBaseURL creates a new TMDb API client with a custom base URL
func NewClientWithBaseURL(baseURL, accessToken string) *Client {
	return NewClientWithOptions(ClientOptions{
		AccessToken: accessToken,
		BaseURL:     baseURL,
	})
}

// NewClientWithOptions creates a new TMDb API client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.themoviedb.org/3"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil // Disable logging by default

	return &Client{
		baseURL:     opts.BaseURL,
		accessToken: opts.AccessToken,
		httpClient:  retryClient,
	}
}

// SearchMovies searches for movies by title. Adult titles are excluded.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]MovieStub, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	params := url.Values{}
	params.Add("query", query)
	params.Add("include_adult", "false")

	var result SearchResponse
	if err := c.get(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

// PopularMovies returns one page of the popularity-sorted movie list.
func (c *Client) PopularMovies(ctx context.Context, page int) ([]MovieStub, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Add("page", strconv.Itoa(page))
	params.Add("sort_by", "popularity.desc")

	var result SearchResponse
	if err := c.get(ctx, "/movie/popular", params, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

// MovieDetails returns the full metadata for one movie.
func (c *Client) MovieDetails(ctx context.Context, tmdbID int) (*MovieDetails, error) {
	var result MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", tmdbID), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// MovieTrailer returns the YouTube key of the movie's first official trailer,
// or "" when the movie has no YouTube trailer.
func (c *Client) MovieTrailer(ctx context.Context, tmdbID int) (string, error) {
	var result VideosResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", tmdbID), nil, &result); err != nil {
		return "", err
	}

	for _, v := range result.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return v.Key, nil
		}
	}

	return "", nil
}

// get performs an authenticated GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Error("Failed to read error response body", "error", err)
		}
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
