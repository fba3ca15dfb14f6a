// Package sdk provides the client-side library for the Evensia site API. It
// speaks the same JSON envelopes the frontend does, so anything scripted
// through it behaves exactly like the browser.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/evensia-dev/evensia/pkg/schema"
)

// APIError is a non-success envelope from the API, with the HTTP status it
// arrived under.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Client talks to a running Evensia daemon over HTTP.
// It implements the EvensiaAPI interface.
type Client struct {
	baseURL string
	http    *http.Client
}

// Connect creates a client for the daemon at baseURL (for example
// "http://localhost:7801").
func Connect(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests and for
// daemons running with self-signed certificates.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// call performs one request and decodes the standard envelope into T.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return zero, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("malformed response (%d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return zero, &APIError{Status: resp.StatusCode, Message: env.Error}
	}

	var out T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, err
		}
	}
	return out, nil
}

// Messages lists every RSVP message on the guestbook.
func (c *Client) Messages(ctx context.Context) ([]Record, error) {
	return call[[]Record](ctx, c, http.MethodGet, "/api/messages", nil)
}

// SubmitRSVP leaves an RSVP message.
func (c *Client) SubmitRSVP(ctx context.Context, fullname string, isPresent bool, message string) (Record, error) {
	return call[Record](ctx, c, http.MethodPost, "/api/messages", map[string]any{
		"fullname":   fullname,
		"is_present": isPresent,
		"message":    message,
	})
}

// Photos lists every album record.
func (c *Client) Photos(ctx context.Context) ([]Record, error) {
	return call[[]Record](ctx, c, http.MethodGet, "/api/photos", nil)
}

// SubmitPhoto records an already-uploaded image in the album.
func (c *Client) SubmitPhoto(ctx context.Context, from, imageURL, caption string) (Record, error) {
	return call[Record](ctx, c, http.MethodPost, "/api/photos", map[string]any{
		"from":    from,
		"image":   imageURL,
		"caption": caption,
	})
}

// Upload sends an image through the relay and returns its public URLs.
func (c *Client) Upload(ctx context.Context, up UploadRequest) (*schema.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if up.AccessToken != "" {
		if err := mw.WriteField("accessToken", up.AccessToken); err != nil {
			return nil, err
		}
	}
	if up.Caption != "" {
		if err := mw.WriteField("caption", up.Caption); err != nil {
			return nil, err
		}
	}

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.Filename))
	if up.ContentType != "" {
		hdr.Set("Content-Type", up.ContentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env struct {
		Success bool                `json:"success"`
		Data    schema.UploadResult `json:"data"`
		Error   string              `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed response (%d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	return &env.Data, nil
}

// AuthStatus reports whether the daemon sees the caller as signed in.
func (c *Client) AuthStatus(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/google/status", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var out struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Authenticated, nil
}

// SheetsStatus classifies the record store backend's health.
func (c *Client) SheetsStatus(ctx context.Context) (*SheetsStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/sheets/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out SheetsStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Generics Support ---

// As converts a schemaless record into a typed value. Values read back from
// sheets are strings, so numeric and boolean struct fields will not survive a
// round trip; use string-typed fields for anything read back.
func As[T any](rec Record) (T, error) {
	var target T
	raw, err := json.Marshal(rec)
	if err != nil {
		return target, err
	}
	err = json.Unmarshal(raw, &target)
	return target, err
}

var _ EvensiaAPI = (*Client)(nil)
