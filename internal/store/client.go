package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appzem/alarm-engine/internal/domain/alarm"
)

// DefaultTimeout bounds individual store requests.
const DefaultTimeout = 5 * time.Second

// Client talks to the remote alarm store's CRUD API. All methods are thin
// REST calls; the engine treats every push as best-effort.
type Client struct {
	// baseURL is the store service root.
	baseURL string
	// httpClient carries the request timeout.
	httpClient *http.Client
}

// record is the store's wire representation of an alarm.
// Time travels as "HH:MM:SS" with seconds fixed at zero.
type record struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// NewClient creates a store client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid alarm store URL: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// List fetches all alarm records via GET /Alarm.
// Records with malformed times are returned as-is for the caller to reject;
// parsing failures on individual records do not fail the whole fetch.
func (c *Client) List(ctx context.Context) ([]alarm.Alarm, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Alarm", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch alarms: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch alarms: unexpected status %d", resp.StatusCode)
	}

	var records []record
	if err = json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode alarms: %w", err)
	}

	alarms := make([]alarm.Alarm, 0, len(records))

	for _, r := range records {
		t, parseErr := alarm.ParseTimeOfDay(r.Time)
		if parseErr != nil {
			// Leave the time zeroed; the engine's seed step rejects it.
			t = alarm.TimeOfDay{Hour: -1}
		}

		alarms = append(alarms, alarm.Alarm{
			ID:     r.ID,
			Time:   t,
			Title:  r.Title,
			Active: r.Active,
		})
	}

	return alarms, nil
}

// Create pushes a new alarm via POST /Alarm.
func (c *Client) Create(ctx context.Context, a alarm.Alarm) error {
	return c.send(ctx, http.MethodPost, "/Alarm", &a)
}

// Update replaces an alarm via PUT /Alarm/{id}.
func (c *Client) Update(ctx context.Context, a alarm.Alarm) error {
	return c.send(ctx, http.MethodPut, "/Alarm/"+url.PathEscape(a.ID), &a)
}

// Remove deletes an alarm via DELETE /Alarm/{id}.
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/Alarm/"+url.PathEscape(id), nil)
}

// send issues one JSON request and checks for a 2xx response.
func (c *Client) send(ctx context.Context, method, path string, a *alarm.Alarm) error {
	body := new(bytes.Buffer)

	if a != nil {
		payload := record{
			ID:     a.ID,
			Time:   a.Time.Wire(),
			Title:  a.Title,
			Active: a.Active,
		}

		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return fmt.Errorf("encode alarm: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	return nil
}
