// Package extract maps utterance text onto the fixed lead schema via the
// language-understanding gateway. The gateway is untrusted: its output is
// parsed strictly and rejected wholesale on any shape violation.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"voice-leads-go/internal/lead"
	"voice-leads-go/internal/llm"
)

var (
	// ErrService covers transport failures and gateway errors.
	ErrService = errors.New("extraction service error")

	// ErrMalformed is returned when the gateway answer cannot be parsed
	// into the closed key set: unknown keys, wrong shapes, no JSON at all.
	// Nothing from such an answer is trusted.
	ErrMalformed = errors.New("malformed extraction")
)

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Extractor struct {
	llm Completer
}

func NewExtractor(c Completer) *Extractor {
	return &Extractor{llm: c}
}

const extractionPrompt = `You are an AI assistant for a custom millwork company.
Extract lead information from this voice transcription for creating a CRM record.

Transcription: "%s"

Extract these fields if present. A field the transcription does not mention
MUST be null - never invent or guess a value, especially not phone numbers
or addresses:
- customer_name: Full name of the potential customer
- contact_phone: Phone number as spoken
- contact_email: Email address
- property_address: Property/project address (include city if mentioned)
- lead_source: How they heard about us. Map to: Referral, Website, Walk-in, Phone Call, Repeat Customer, Other
- job_segment: Type of project. Map to:
  - RR = Residential Remodel/Renovation
  - RN = Residential New Construction
  - CR = Commercial Remodel
  - CN = Commercial New Construction
- priority: If urgency mentioned. Map to: Low, Medium, High, Critical
- notes: Any other relevant details (what they want, referral source name, etc.)

Respond in JSON format only. Each present field is an object with "value"
(string) and "confidence" ("high", "medium" or "low"); absent fields are null:
{
  "customer_name": {"value": "...", "confidence": "high"} or null,
  "contact_phone": {"value": "...", "confidence": "high"} or null,
  "contact_email": null,
  "property_address": null,
  "lead_source": null,
  "job_segment": null,
  "priority": null,
  "notes": null
}`

// payload mirrors the closed key set. DisallowUnknownFields rejects
// anything the schema does not name.
type payload struct {
	CustomerName    *fieldPayload `json:"customer_name"`
	ContactPhone    *fieldPayload `json:"contact_phone"`
	ContactEmail    *fieldPayload `json:"contact_email"`
	PropertyAddress *fieldPayload `json:"property_address"`
	LeadSource      *fieldPayload `json:"lead_source"`
	JobSegment      *fieldPayload `json:"job_segment"`
	Priority        *fieldPayload `json:"priority"`
	Notes           *fieldPayload `json:"notes"`
}

type fieldPayload struct {
	Value      *string `json:"value"`
	Confidence string  `json:"confidence"`
}

// Extract runs one extraction call and returns the full fixed key set;
// fields the utterance did not mention carry nil values.
func (e *Extractor) Extract(ctx context.Context, utterance string) (lead.ExtractedFields, error) {
	out, err := e.llm.Complete(ctx, fmt.Sprintf(extractionPrompt, utterance))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}

	doc := llm.ExtractJSON(out)
	if doc == "" {
		return nil, fmt.Errorf("%w: no JSON in response", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(doc))
	dec.DisallowUnknownFields()
	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	fields := lead.NewExtractedFields()
	set := func(name lead.FieldName, fp *fieldPayload) {
		if fp == nil || fp.Value == nil {
			return
		}
		fields[name] = lead.FieldValue{Value: fp.Value, Confidence: confidence(fp.Confidence)}
	}
	set(lead.FieldCustomerName, p.CustomerName)
	set(lead.FieldContactPhone, p.ContactPhone)
	set(lead.FieldContactEmail, p.ContactEmail)
	set(lead.FieldPropertyAddress, p.PropertyAddress)
	set(lead.FieldLeadSource, p.LeadSource)
	set(lead.FieldJobSegment, p.JobSegment)
	set(lead.FieldPriority, p.Priority)
	set(lead.FieldNotes, p.Notes)

	return fields, nil
}

// confidence coerces the advisory signal; anything unrecognized counts as low.
func confidence(s string) lead.Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return lead.ConfidenceHigh
	case "medium":
		return lead.ConfidenceMedium
	default:
		return lead.ConfidenceLow
	}
}
