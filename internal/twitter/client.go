package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
)

const (
	defaultBaseURL = "https://api.twitter.com"

	// maxPageSize is the API's ceiling for max_results on recent search.
	maxPageSize = 100

	tweetFields = "id,text,author_id,created_at,public_metrics"
	userFields  = "username"
)

// Client is a minimal X/Twitter v2 API client for app-only bearer tokens.
// It implements domain.SearchClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client authenticated with the given bearer token. If
// baseURL is empty, it defaults to the public API endpoint.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// SearchRecent pages through GET /2/tweets/search/recent for posts matching
// query within [start, end), requesting author expansion so handles resolve
// without a second round trip. Pagination stops when the API reports no next
// page or limit results have accumulated. A window with no matches returns
// an empty batch and no error.
func (c *Client) SearchRecent(ctx context.Context, query string, start, end time.Time, limit int) (*domain.Batch, error) {
	batch := &domain.Batch{Authors: domain.AuthorMap{}}

	nextToken := ""
	for {
		params := url.Values{}
		params.Set("query", query)
		params.Set("start_time", start.UTC().Truncate(time.Second).Format(time.RFC3339))
		params.Set("end_time", end.UTC().Truncate(time.Second).Format(time.RFC3339))
		params.Set("max_results", strconv.Itoa(maxPageSize))
		params.Set("tweet.fields", tweetFields)
		params.Set("expansions", "author_id")
		params.Set("user.fields", userFields)
		if nextToken != "" {
			params.Set("next_token", nextToken)
		}

		var page searchResponse
		if err := c.get(ctx, "/2/tweets/search/recent", params, &page); err != nil {
			return nil, fmt.Errorf("search recent: %w", err)
		}

		for _, u := range page.Includes.Users {
			batch.Authors[u.ID] = u.Username
		}
		for _, t := range page.Data {
			batch.Posts = append(batch.Posts, t.toRawPost())
			if len(batch.Posts) >= limit {
				return batch, nil
			}
		}

		if page.Meta.NextToken == "" {
			return batch, nil
		}
		nextToken = page.Meta.NextToken
	}
}

// Probe makes the cheapest authenticated read available to an app-only
// token: a single-tweet lookup. Success means the credential is usable.
func (c *Client) Probe(ctx context.Context) error {
	params := url.Values{}
	params.Set("ids", "20")
	if err := c.get(ctx, "/2/tweets", params, nil); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w (status %d)", domain.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d): %s", domain.ErrUnauthorized, resp.StatusCode, string(body))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w (status %d): %s", domain.ErrUpstream, resp.StatusCode, string(body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
