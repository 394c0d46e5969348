package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"parceldesk/internal/metrics"
	"parceldesk/internal/repository"
)

// Client speaks the SheetDB-style REST dialect of the spreadsheet service:
// each tab is addressed as /{tab}, rows travel as JSON objects keyed by
// column name, and updates/deletes target rows by a key column value.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logrus.Logger
}

// NewClient creates a spreadsheet API client. token may be empty when the
// sheet endpoint is unauthenticated.
func NewClient(baseURL, token string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// do performs one spreadsheet request. A 404 is mapped to
// repository.ErrNotFound so the repositories can translate it uniformly.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode sheet request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build sheet request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.SheetRequestSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("sheet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return repository.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WithFields(logrus.Fields{
			"op":     op,
			"status": resp.StatusCode,
		}).Error("Sheet API returned an error")
		return fmt.Errorf("sheet API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode sheet response: %w", err)
		}
	}
	return nil
}

// Rows fetches every row of a tab.
func (c *Client) Rows(ctx context.Context, tab string) ([]row, error) {
	var raw []map[string]any
	if err := c.do(ctx, tab+".list", http.MethodGet, "/"+tab, nil, nil, &raw); err != nil {
		return nil, err
	}
	return normalizeRows(raw), nil
}

// Search fetches the rows of a tab matching every column=value pair in query.
// An empty result is not an error: some sheet services answer 404 when the
// search matches nothing, which is folded into an empty slice here.
func (c *Client) Search(ctx context.Context, tab string, query url.Values) ([]row, error) {
	var raw []map[string]any
	err := c.do(ctx, tab+".search", http.MethodGet, "/"+tab+"/search", query, nil, &raw)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return normalizeRows(raw), nil
}

// Insert appends one row to a tab.
func (c *Client) Insert(ctx context.Context, tab string, r row) error {
	payload := map[string]any{"data": []row{r}}
	return c.do(ctx, tab+".insert", http.MethodPost, "/"+tab, nil, payload, nil)
}

// Update patches the rows whose keyCol equals keyVal and returns how many
// rows the service reports as changed.
func (c *Client) Update(ctx context.Context, tab, keyCol, keyVal string, r row) (int, error) {
	payload := map[string]any{"data": r}
	var res struct {
		Updated int `json:"updated"`
	}
	path := "/" + tab + "/" + keyCol + "/" + url.PathEscape(keyVal)
	err := c.do(ctx, tab+".update", http.MethodPatch, path, nil, payload, &res)
	if err != nil {
		if err == repository.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return res.Updated, nil
}

// Delete removes the rows whose keyCol equals keyVal and returns how many
// rows the service reports as removed.
func (c *Client) Delete(ctx context.Context, tab, keyCol, keyVal string) (int, error) {
	var res struct {
		Deleted int `json:"deleted"`
	}
	path := "/" + tab + "/" + keyCol + "/" + url.PathEscape(keyVal)
	err := c.do(ctx, tab+".delete", http.MethodDelete, path, nil, nil, &res)
	if err != nil {
		if err == repository.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return res.Deleted, nil
}
