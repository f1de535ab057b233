package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/auc-library-labs/scriptorium/internal/models"
)

// Client queries a remote collection API that exposes the /gallery/books
// endpoints.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new collection API client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// QueryPage fetches one page of records matching spec.
func (c *Client) QueryPage(ctx context.Context, spec FilterSpec) (*Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(spec.Page))
	params.Set("limit", strconv.Itoa(spec.PageSize))
	if spec.Sort != "" {
		params.Set("sort", spec.Sort)
	}
	if spec.SearchQuery != "" {
		params.Set("searchQuery", spec.SearchQuery)
		params.Set("searchIn", spec.SearchField)
	}

	queryURL := fmt.Sprintf("%s/gallery/books?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("collection API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Books      []models.Item `json:"books"`
		Total      int           `json:"total"`
		TotalPages int           `json:"total_pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode collection response: %w", err)
	}

	return &Page{
		Items:      apiResp.Books,
		Total:      apiResp.Total,
		TotalPages: apiResp.TotalPages,
	}, nil
}

// GetByID fetches a single record by id.
func (c *Client) GetByID(ctx context.Context, id string) (*models.Item, error) {
	recordURL := fmt.Sprintf("%s/gallery/books/%s", c.BaseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, "GET", recordURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create record request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &ErrNotFound{ID: id}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("collection API returned status %d: %s", resp.StatusCode, string(body))
	}

	var item models.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if item.ID == "" {
		item.ID = id
	}

	return &item, nil
}
