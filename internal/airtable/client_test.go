package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-leads-go/internal/lead"
)

func str(s string) *string { return &s }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "https://airtable.com", "key123", "appBase", "tblLeads")
	c.now = func() time.Time { return time.Date(2025, 12, 6, 15, 30, 0, 0, time.UTC) }
	return c, srv
}

func TestCreateRecordMapsFields(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"id": "recABC123"})
	})

	l := lead.NormalizedLead{
		CustomerName:    "Sarah Johnson",
		ContactPhone:    str("5551234567"),
		PropertyAddress: str("123 Seaside Drive, Destin"),
		LeadSource:      str("Referral"),
		JobSegment:      str("RR"),
		Priority:        str("High"),
		Notes:           str("wants custom doors"),
	}
	rec, err := c.CreateRecord(context.Background(), l, "Got a call from Sarah Johnson")
	require.NoError(t, err)

	assert.Equal(t, "/v0/appBase/tblLeads", gotPath)
	assert.Equal(t, "Bearer key123", gotAuth)

	fields := gotBody["fields"]
	assert.Equal(t, "Sarah Johnson", fields["Customer Name"])
	assert.Equal(t, "5551234567", fields["Contact Phone"])
	assert.Equal(t, "Referral", fields["Lead Source"])
	assert.Equal(t, "RR", fields["Job Segment"])
	assert.Equal(t, "High", fields["Priority"])
	assert.Equal(t, "New", fields["Status"])
	notes, _ := fields["Initial Notes"].(string)
	assert.Contains(t, notes, "wants custom doors")
	assert.Contains(t, notes, "Voice transcription (2025-12-06T15:30:00Z)")
	assert.Contains(t, notes, "Got a call from Sarah Johnson")
	_, hasEmail := fields["Contact Email"]
	assert.False(t, hasEmail, "absent fields must not be sent")

	assert.Equal(t, "recABC123", rec.ID)
	assert.Equal(t, "https://airtable.com/appBase/tblLeads/recABC123", rec.URL)
	assert.Contains(t, rec.CreatedFields, "Customer Name")
}

func TestCreateRecordDefaultsLeadSource(t *testing.T) {
	var gotBody map[string]map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"id": "rec1"})
	})

	rec, err := c.CreateRecord(context.Background(), lead.NormalizedLead{CustomerName: "Bob"}, "")
	require.NoError(t, err)

	assert.Equal(t, "Phone Call", gotBody["fields"]["Lead Source"])
	assert.Contains(t, rec.CreatedFields, "Lead Source (default)")
	_, hasNotes := gotBody["fields"]["Initial Notes"]
	assert.False(t, hasNotes, "no notes and no transcript means no Initial Notes")
}

func TestCreateRecordStoreError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "INVALID_PERMISSIONS"}`, http.StatusForbidden)
	})

	_, err := c.CreateRecord(context.Background(), lead.NormalizedLead{CustomerName: "Bob"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordStore))
	assert.Contains(t, err.Error(), "403")
}

func TestCreateRecordRejectsAnswerWithoutID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.CreateRecord(context.Background(), lead.NormalizedLead{CustomerName: "Bob"}, "")
	assert.True(t, errors.Is(err, ErrRecordStore))
}

func TestPing(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"records": []}`))
	})

	require.NoError(t, c.Ping(context.Background()))
	assert.True(t, strings.Contains(gotQuery, "maxRecords=1"))
}

func TestPingUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.Ping(context.Background())
	assert.True(t, errors.Is(err, ErrRecordStore))
}
