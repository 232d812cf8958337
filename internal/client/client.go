// Package client talks to the airstream HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"airstream/internal/media"
	"airstream/internal/selection"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

// Client calls /api/info and /api/download on one server.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client for the server at base. A nil httpClient uses http.DefaultClient.
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

// Info fetches the summary and normalized formats of sourceURL.
func (c *Client) Info(ctx context.Context, sourceURL string) (*media.VideoInfo, error) {
	endpoint := c.base + "/api/info?" + url.Values{"url": {sourceURL}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var info media.VideoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}
	return &info, nil
}

// Result describes a finished download.
type Result struct {
	Filename    string
	ContentType string
	Bytes       int64
}

// Download streams the selected format into w.
func (c *Client) Download(ctx context.Context, dr media.DownloadRequest, w io.Writer) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, selection.BuildDownloadURL(c.base, dr), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	res := &Result{
		Filename:    filenameOf(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}
	res.Bytes, err = io.Copy(w, resp.Body)
	if err != nil {
		return res, fmt.Errorf("download interrupted after %d bytes: %w", res.Bytes, err)
	}
	if resp.ContentLength > 0 && res.Bytes != resp.ContentLength {
		return res, fmt.Errorf("download truncated: got %d of %d bytes", res.Bytes, resp.ContentLength)
	}
	return res, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

func filenameOf(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
