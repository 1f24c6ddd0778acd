// SPDX-License-Identifier: MIT

// Package client is the Go API client for the meetscribe daemon, mirroring
// the HTTP surface the web frontend consumes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meetscribe/meetscribe/internal/meeting"
	"github.com/meetscribe/meetscribe/internal/poller"
	"github.com/meetscribe/meetscribe/internal/search"
)

// Client talks to a meetscribe daemon.
type Client struct {
	base string
	http *http.Client
}

// New constructs a Client for the daemon at base, e.g. "http://localhost:8080".
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload submits a new meeting from the given audio payload and returns the
// created identifier with its initial status.
func (c *Client) Upload(ctx context.Context, title string, lang meeting.Language, filename string, audio io.Reader) (string, meeting.Status, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("title", title); err != nil {
		return "", "", err
	}
	if err := mw.WriteField("primary_language", string(lang)); err != nil {
		return "", "", err
	}
	fw, err := mw.CreateFormFile("audio_file", filename)
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return "", "", err
	}
	if err := mw.Close(); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/meetings/", &body)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ID     string         `json:"id"`
		Status meeting.Status `json:"status"`
	}
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return "", "", err
	}
	return out.ID, out.Status, nil
}

// Get fetches one meeting. Unknown ids yield meeting.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*meeting.Meeting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.meetingURL(id), nil)
	if err != nil {
		return nil, err
	}
	var m meeting.Meeting
	if err := c.do(req, http.StatusOK, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List fetches all meeting summaries, most recent first.
func (c *Client) List(ctx context.Context) ([]meeting.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/meetings/", nil)
	if err != nil {
		return nil, err
	}
	var listings []meeting.Listing
	if err := c.do(req, http.StatusOK, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Remove deletes the meeting and all of its artifacts.
func (c *Client) Remove(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.meetingURL(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusNoContent, nil)
}

// Search runs an in-meeting search for query.
func (c *Client) Search(ctx context.Context, id, query string) (*search.Result, error) {
	u := c.meetingURL(id) + "/search?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var res search.Result
	if err := c.do(req, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Export downloads the rendered meeting notes document.
func (c *Client) Export(ctx context.Context, id string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.meetingURL(id)+"/export", nil)
	if err != nil {
		return nil, "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, "", decodeError(res)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	return data, res.Header.Get("Content-Type"), nil
}

// Watch polls the meeting until it reaches a terminal state, propagating
// every fetched record to onUpdate. See the poller package for interval and
// teardown semantics.
func (c *Client) Watch(ctx context.Context, id string, interval time.Duration, onUpdate func(*meeting.Meeting)) *poller.Watcher {
	return poller.Watch(ctx, poller.FetcherFunc(c.Get), id, interval, onUpdate)
}

func (c *Client) meetingURL(id string) string {
	return c.base + "/api/meetings/" + url.PathEscape(id)
}

// do executes the request, decodes a JSON body into out when the expected
// status is met and maps problem responses to the domain error taxonomy.
func (c *Client) do(req *http.Request, want int, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != want {
		return decodeError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// decodeError turns a problem+json response back into the error taxonomy so
// consumers can use errors.Is the same way they would against the manager.
func decodeError(res *http.Response) error {
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(res.Body).Decode(&problem)

	detail := problem.Detail
	if detail == "" {
		detail = problem.Title
	}
	if detail == "" {
		detail = res.Status
	}

	switch res.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, meeting.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", detail, meeting.ErrInvalidState)
	case http.StatusBadRequest:
		return &meeting.ValidationError{Field: "request", Reason: detail}
	default:
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, detail)
	}
}
