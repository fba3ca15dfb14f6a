package sheetdb

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

	"github.com/evensia-dev/evensia/internal/common"
)

// Client talks to an externally hosted scripting endpoint. One URL serves
// both verbs: GET ?sheet=<name> for reads, POST with an {action, data, id?}
// envelope for writes.
type Client struct {
	scriptURL string
	http      *http.Client
}

// NewClient builds a remote client. httpClient may be nil.
func NewClient(scriptURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{scriptURL: scriptURL, http: httpClient}
}

// envelope is the response shape of the scripting endpoint. Reads answer
// {data: [...]}; writes answer {success, data|error}.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// looksLikeHTML sniffs a response body for a document prefix. The hosted
// endpoint answers with an interactive login page when deployed without
// anonymous access; treating that as empty data would silently drop records.
func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

func (c *Client) call(ctx context.Context, sheet string, payload any) (*envelope, error) {
	if c.scriptURL == "" {
		return nil, common.ErrEndpointNotConfigured
	}

	endpoint := c.scriptURL + "?" + url.Values{"sheet": {sheet}}.Encode()

	var req *http.Request
	var err error
	if payload == nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	} else {
		var body []byte
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRecordStoreUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRecordStoreUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", common.ErrRecordStoreUnavailable, resp.StatusCode)
	}

	if looksLikeHTML(raw) {
		return nil, fmt.Errorf("%w: endpoint answered with an HTML page (likely requires login)", common.ErrEndpointMisconfigured)
	}

	env := &envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response", common.ErrEndpointMisconfigured)
	}
	return env, nil
}

// List implements Recorder.
func (c *Client) List(ctx context.Context, sheet string) ([]Record, error) {
	env, err := c.call(ctx, sheet, nil)
	if err != nil {
		return nil, err
	}
	if env.Error != "" {
		if strings.EqualFold(env.Error, "Sheet not found") {
			return nil, common.ErrSheetNotFound
		}
		return nil, fmt.Errorf("record store: %s", env.Error)
	}

	var records []Record
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, fmt.Errorf("%w: unexpected data shape", common.ErrEndpointMisconfigured)
		}
	}
	return records, nil
}

// Create implements Recorder.
func (c *Client) Create(ctx context.Context, sheet, action string, rec Record) (Record, error) {
	env, err := c.call(ctx, sheet, map[string]any{"action": action, "data": rec})
	if err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		return nil, fmt.Errorf("record store: %s", env.Error)
	}

	stored := Record{}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &stored); err != nil {
			return nil, fmt.Errorf("%w: unexpected data shape", common.ErrEndpointMisconfigured)
		}
	}
	return stored, nil
}

// Update rewrites fields of an existing record by id.
func (c *Client) Update(ctx context.Context, sheet, id string, rec Record) error {
	env, err := c.call(ctx, sheet, map[string]any{"action": ActionUpdate, "id": id, "data": rec})
	if err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		return fmt.Errorf("record store: %s", env.Error)
	}
	return nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, sheet, id string) error {
	env, err := c.call(ctx, sheet, map[string]any{"action": ActionDelete, "id": id})
	if err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		return fmt.Errorf("record store: %s", env.Error)
	}
	return nil
}
