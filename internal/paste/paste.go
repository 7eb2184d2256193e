// Package paste uploads text to a pastebin and returns its public URL.
package paste

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"b3bot/pkg/retrylimit"
)

// Uploader publishes text.
type Uploader interface {
	Upload(ctx context.Context, text, filename string) (string, error)
}

// Client talks to a pb/ptpb-style service: a multipart POST with the content
// in field "c", answered with JSON carrying the paste URL.
type Client struct {
	Endpoint string
	HTTP     *http.Client
	Retry    retrylimit.RetryConfig
}

// New returns a client for endpoint.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
		Retry:    retrylimit.DefaultRetryConfig(),
	}
}

type response struct {
	URL string `json:"url"`
}

// Upload posts text and returns the public URL. Server errors and throttling
// are retried; client errors are not.
func (c *Client) Upload(ctx context.Context, text, filename string) (string, error) {
	var url string
	err := retrylimit.WithRetry(ctx, c.Retry, nil, func(ctx context.Context) error {
		u, err := c.upload(ctx, text, filename)
		if err != nil {
			var se *retrylimit.StatusError
			if errors.As(err, &se) && !retrylimit.IsThrottled(se) {
				return &retrylimit.FatalError{Err: err}
			}
			return err
		}
		url = u
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("paste upload failed: %w", err)
	}
	return url, nil
}

func (c *Client) upload(ctx context.Context, text, filename string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("c", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(part, text); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", &retrylimit.StatusError{Code: resp.StatusCode, Op: "paste"}
	}
	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("invalid paste response: %w", err)
	}
	if r.URL == "" {
		return "", errors.New("paste response has no url")
	}
	return r.URL, nil
}
