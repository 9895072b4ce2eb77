package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const defaultBaseURL = "https://api.trello.com/1"

const (
	metadataTimeout = 30 * time.Second
	downloadTimeout = 60 * time.Second
)

// Client is an authenticated Trello REST API client. Credentials are passed
// as query parameters on every request, which is also what private-board
// attachment URLs require.
type Client struct {
	baseURL  string
	apiKey   string
	apiToken string

	// Separate clients so bulk attachment downloads get a longer deadline
	// than metadata calls.
	httpClient     *http.Client
	downloadClient *http.Client
}

// NewClient creates a Trello client for the given key/token pair.
func NewClient(apiKey, apiToken string) (*Client, error) {
	if apiKey == "" || apiToken == "" {
		return nil, fmt.Errorf("%w: api key and token are required", ErrAuth)
	}

	return &Client{
		baseURL:        defaultBaseURL,
		apiKey:         apiKey,
		apiToken:       apiToken,
		httpClient:     &http.Client{Timeout: metadataTimeout},
		downloadClient: &http.Client{Timeout: downloadTimeout},
	}, nil
}

// get performs an authenticated GET against the API and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.apiKey)
	query.Set("token", c.apiToken)

	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusErr(resp.StatusCode, resp.Status, c.baseURL+path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrNetwork, err)
	}
	return nil
}

// FetchBoard retrieves board metadata (name, description, url).
func (c *Client) FetchBoard(ctx context.Context, boardID string) (*Board, error) {
	board := &Board{}
	query := url.Values{"fields": {"name,desc,url"}}
	if err := c.get(ctx, "/boards/"+boardID, query, board); err != nil {
		return nil, err
	}
	return board, nil
}

// cardFilter returns the server-side filter value. Trello interprets "all"
// as open plus archived, "open" as open only.
func cardFilter(includeArchived bool) string {
	if includeArchived {
		return "all"
	}
	return "open"
}

// FetchLists retrieves every list on a board, in the order the API returns
// them.
func (c *Client) FetchLists(ctx context.Context, boardID string, includeArchived bool) ([]List, error) {
	var lists []List
	query := url.Values{"filter": {cardFilter(includeArchived)}}
	if err := c.get(ctx, "/boards/"+boardID+"/lists", query, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// FetchCards retrieves every card in a list, including attachments and
// labels.
func (c *Client) FetchCards(ctx context.Context, listID string, includeArchived bool) ([]Card, error) {
	var cards []Card
	query := url.Values{
		"filter":            {cardFilter(includeArchived)},
		"fields":            {"name,desc,dateLastActivity,due,labels,closed"},
		"attachments":       {"true"},
		"attachment_fields": {"name,url,mimeType,date"},
	}
	if err := c.get(ctx, "/lists/"+listID+"/cards", query, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// FetchAllCards fetches every card across every list on a board. Each
// returned card is annotated with its parent list's id and name; cards are
// concatenated in list-traversal order.
func (c *Client) FetchAllCards(ctx context.Context, boardID string, includeArchived bool) ([]List, []Card, error) {
	lists, err := c.FetchLists(ctx, boardID, includeArchived)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch lists: %w", err)
	}

	var allCards []Card
	for _, list := range lists {
		cards, err := c.FetchCards(ctx, list.ID, includeArchived)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch cards for list %q: %w", list.Name, err)
		}
		for _, card := range cards {
			card.ListID = list.ID
			card.ListName = list.Name
			allCards = append(allCards, card)
		}
	}

	return lists, allCards, nil
}

// DownloadAttachment streams an attachment's bytes to destPath, creating
// intermediate directories as needed, and returns the saved path. Failures
// are wrapped in *DownloadError so a single bad attachment never aborts the
// run.
func (c *Client) DownloadAttachment(ctx context.Context, rawURL, destPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", &DownloadError{URL: rawURL, Err: err}
	}

	reqURL, err := url.Parse(rawURL)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Err: err}
	}
	query := reqURL.Query()
	query.Set("key", c.apiKey)
	query.Set("token", c.apiToken)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Err: err}
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DownloadError{URL: rawURL, Err: statusErr(resp.StatusCode, resp.Status, rawURL)}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", &DownloadError{URL: rawURL, Err: err}
	}

	return destPath, nil
}
