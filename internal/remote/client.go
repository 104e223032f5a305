// Package remote talks to the page-data store that holds time entries.
// Every call is a single request/response exchange: nothing is retried
// or queued.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/christopherklint97/hourly/internal/entry"
)

// CSRFHeader carries the anti-forgery token on every mutating request.
const CSRFHeader = "X-CSRF-Token"

// TokenSource returns the current anti-forgery token.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken is a TokenSource that always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

type Options struct {
	BaseURL      string
	SiteID       string
	DataPageID   string
	TeamID       string
	SourcePageID string
	Timeout      time.Duration
	Token        TokenSource
}

type Client struct {
	opts       Options
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Token == nil {
		opts.Token = StaticToken("")
	}
	return &Client{
		opts:    opts,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}
}

func (c *Client) pagePath(action string, id string) string {
	p := fmt.Sprintf("/site/%s/%s/%s", url.PathEscape(c.opts.SiteID), url.PathEscape(c.opts.DataPageID), action)
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *Client) doRequest(ctx context.Context, op, entryID, method, path string, body interface{}) ([]byte, error) {
	fail := func(status int, err error) error {
		return &SyncError{Op: op, EntryID: entryID, StatusCode: status, Err: err}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fail(0, fmt.Errorf("marshaling request body: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fail(0, fmt.Errorf("creating request: %w", err))
	}

	token, err := c.opts.Token(ctx)
	if err != nil {
		return nil, fail(0, fmt.Errorf("getting anti-forgery token: %w", err))
	}
	req.Header.Set(CSRFHeader, token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("remote request", "op", op, "method", method, "path", path)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("remote request transport error", "op", op, "method", method, "path", path, "error", err, "elapsed", time.Since(requestStart))
		return nil, fail(0, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("remote response", "op", op, "method", method, "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("remote request failed", "op", op, "method", method, "path", path, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected status: %s", http.StatusText(resp.StatusCode)))
	}

	return respBody, nil
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Create submits a draft and returns the authoritative collection.
func (c *Client) Create(ctx context.Context, f entry.Fields) (*Collection, error) {
	body := CreateRequest{
		TeamID:       c.opts.TeamID,
		EntryDate:    f.Date,
		StartTime:    f.StartTime,
		EndTime:      f.EndTime,
		Description:  f.Description,
		ReturnJSON:   true,
		SourcePageID: c.opts.SourcePageID,
	}

	data, err := c.doRequest(ctx, "create", "", http.MethodPost, c.pagePath("sitePageDataPost", ""), body)
	if err != nil {
		return nil, err
	}
	return c.decode("create", "", data)
}

// Update replaces the fields of entry id and returns the authoritative collection.
func (c *Client) Update(ctx context.Context, id string, f entry.Fields) (*Collection, error) {
	body := UpdateRequest{
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		Description: f.Description,
		TeamID:      c.opts.TeamID,
		ReturnJSON:  true,
	}

	data, err := c.doRequest(ctx, "update", id, http.MethodPut, c.pagePath("sitePageDataPut", id), body)
	if err != nil {
		return nil, err
	}
	return c.decode("update", id, data)
}

// Delete removes entry id. Success is signaled by status alone; the
// response carries no collection.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, "delete", id, http.MethodDelete, c.pagePath("sitePageDataDelete", id), nil)
	return err
}

func (c *Client) decode(op, entryID string, data []byte) (*Collection, error) {
	coll, err := DecodeCollection(data)
	if err != nil {
		c.logger.Error("remote response unreadable", "op", op, "error", err, "response", truncate(string(data), 200))
		return nil, &SyncError{Op: op, EntryID: entryID, StatusCode: http.StatusOK, Err: err}
	}
	for _, skipped := range coll.Skipped {
		c.logger.Warn("skipping undecodable entry", "op", op, "key", skipped.Key, "id", skipped.ID, "error", skipped.Err)
	}
	return coll, nil
}
