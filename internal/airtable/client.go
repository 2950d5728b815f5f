// Package airtable persists normalized leads into the external record store.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-leads-go/internal/lead"
)

// ErrRecordStore is returned on any non-success store response. Terminal
// for the run; there is nothing to roll back upstream.
var ErrRecordStore = errors.New("record store error")

// Record is the store's view of a created lead.
type Record struct {
	ID            string   `json:"record_id"`
	URL           string   `json:"url"`
	CreatedFields []string `json:"created_fields"`
}

type Client struct {
	baseURL    string
	viewURL    string
	apiKey     string
	baseID     string
	tableID    string
	httpClient *http.Client
	now        func() time.Time
}

func New(baseURL, viewURL, apiKey, baseID, tableID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		viewURL:    strings.TrimRight(viewURL, "/"),
		apiKey:     apiKey,
		baseID:     baseID,
		tableID:    tableID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// CreateRecord maps the lead onto the store's field names and issues exactly
// one create call. Not idempotent: every invocation creates a new record.
func (c *Client) CreateRecord(ctx context.Context, l lead.NormalizedLead, transcript string) (Record, error) {
	fields, created := c.buildFields(l, transcript)

	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return Record{}, fmt.Errorf("%w: marshal fields: %v", ErrRecordStore, err)
	}

	url := fmt.Sprintf("%s/v0/%s/%s", c.baseURL, c.baseID, c.tableID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Record{}, fmt.Errorf("%w: build request: %v", ErrRecordStore, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRecordStore, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Record{}, fmt.Errorf("%w: status %d: %s", ErrRecordStore, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var createResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &createResp); err != nil || createResp.ID == "" {
		return Record{}, fmt.Errorf("%w: unexpected create response: %s", ErrRecordStore, strings.TrimSpace(string(body)))
	}

	return Record{
		ID:            createResp.ID,
		URL:           fmt.Sprintf("%s/%s/%s/%s", c.viewURL, c.baseID, c.tableID, createResp.ID),
		CreatedFields: created,
	}, nil
}

// Ping verifies the table is reachable with the configured credentials.
// Boot-time readiness only; never called inside a pipeline run.
func (c *Client) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/v0/%s/%s?maxRecords=1", c.baseURL, c.baseID, c.tableID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRecordStore, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecordStore, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrRecordStore, resp.StatusCode)
	}
	return nil
}

// buildFields is the fixed, hand-maintained mapping onto store field names.
// Lead Source defaults to "Phone Call", Status is always "New", and Initial
// Notes gets a timestamped transcription trailer.
func (c *Client) buildFields(l lead.NormalizedLead, transcript string) (map[string]any, []string) {
	fields := map[string]any{}
	var created []string

	put := func(name string, v string) {
		fields[name] = v
		created = append(created, name)
	}

	put("Customer Name", l.CustomerName)
	if l.ContactPhone != nil {
		put("Contact Phone", *l.ContactPhone)
	}
	if l.ContactEmail != nil {
		put("Contact Email", *l.ContactEmail)
	}
	if l.PropertyAddress != nil {
		put("Property Address", *l.PropertyAddress)
	}
	if l.LeadSource != nil {
		put("Lead Source", *l.LeadSource)
	} else {
		fields["Lead Source"] = "Phone Call"
		created = append(created, "Lead Source (default)")
	}
	if l.JobSegment != nil {
		put("Job Segment", *l.JobSegment)
	}
	if l.Priority != nil {
		put("Priority", *l.Priority)
	}
	put("Status", "New")

	var notes []string
	if l.Notes != nil {
		notes = append(notes, *l.Notes)
	}
	if transcript != "" {
		notes = append(notes, fmt.Sprintf("\n---\nVoice transcription (%s):\n%s",
			c.now().UTC().Format(time.RFC3339), transcript))
	}
	if len(notes) > 0 {
		put("Initial Notes", strings.Join(notes, "\n"))
	}

	return fields, created
}
