package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"resound/internal/services"
)

const userAgent = "resound-migration/1.0"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the archive.org search and metadata endpoints.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient constructs a client against baseURL. A nil doer uses a default
// http.Client with the given timeout.
func NewClient(baseURL string, timeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  doer,
	}
}

// BaseURL returns the configured endpoint root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, rawURL, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "", operation, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "", operation, rawURL, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrNetwork, "", operation,
			fmt.Sprintf("%s returned %d", rawURL, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "", operation, rawURL, err)
	}
	return body, nil
}

// SearchCollection fetches one page of a collection listing, sorted by
// broadcast date ascending.
func (c *Client) SearchCollection(ctx context.Context, collection string, page, rows int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("q", "collection:"+collection)
	params.Set("fl", "identifier,title,date,description")
	params.Set("sort", "date asc")
	params.Set("output", "json")
	params.Set("rows", strconv.Itoa(rows))
	params.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, c.baseURL+"/advancedsearch.php?"+params.Encode(), "search collection")
	if err != nil {
		return nil, err
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, services.Wrap(services.ErrParse, "", "search collection", "malformed search response", err)
	}
	return &SearchResult{
		NumFound: envelope.Response.NumFound,
		Start:    envelope.Response.Start,
		Docs:     envelope.Response.Docs,
	}, nil
}

// ItemMetadata fetches the complete metadata document for one item.
func (c *Client) ItemMetadata(ctx context.Context, identifier string) (*Item, error) {
	body, err := c.get(ctx, c.baseURL+"/metadata/"+url.PathEscape(identifier), "item metadata")
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, services.Wrap(services.ErrParse, "", "item metadata", identifier, err)
	}
	if item.Metadata.Identifier == "" {
		return nil, services.Wrap(services.ErrUnknownIdentifier, "", "item metadata",
			identifier+": response carries no metadata", nil)
	}
	return &item, nil
}

// FetchText downloads a small text file attached to an item.
func (c *Client) FetchText(ctx context.Context, identifier, filename string) (string, error) {
	body, err := c.get(ctx, c.DownloadURL(identifier, filename), "fetch text")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DownloadURL constructs the direct download location for a file.
func (c *Client) DownloadURL(identifier, filename string) string {
	return c.baseURL + "/download/" + url.PathEscape(identifier) + "/" + url.PathEscape(filename)
}
