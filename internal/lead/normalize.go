package lead

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrMissingRequiredField is returned when customer_name is absent or blank.
// It is the single hard gate before persistence.
var ErrMissingRequiredField = errors.New("missing required field")

// Normalize canonicalizes extracted fields into a NormalizedLead. It is a
// pure function: no I/O, deterministic for a given input. Unmatched
// vocabulary text and unparseable phone tokens are preserved in notes
// instead of being discarded.
func Normalize(fields ExtractedFields) (NormalizedLead, error) {
	name := trimmedValue(fields, FieldCustomerName)
	if name == "" {
		return NormalizedLead{}, fmt.Errorf("%w: customer_name", ErrMissingRequiredField)
	}

	var spill []string
	out := NormalizedLead{CustomerName: name}

	if raw := trimmedValue(fields, FieldContactPhone); raw != "" {
		if digits, ok := canonicalPhone(raw); ok {
			out.ContactPhone = &digits
		} else {
			spill = append(spill, "Phone (unverified): "+raw)
		}
	}

	if email := trimmedValue(fields, FieldContactEmail); email != "" {
		out.ContactEmail = &email
	}

	if addr := trimmedValue(fields, FieldPropertyAddress); addr != "" {
		out.PropertyAddress = &addr
	}

	if raw := trimmedValue(fields, FieldLeadSource); raw != "" {
		if v, ok := matchVocabulary(raw, LeadSources); ok {
			out.LeadSource = &v
		} else {
			spill = append(spill, "Lead source: "+raw)
		}
	}

	if raw := trimmedValue(fields, FieldJobSegment); raw != "" {
		if v, ok := matchJobSegment(raw); ok {
			out.JobSegment = &v
		} else {
			spill = append(spill, "Job segment: "+raw)
		}
	}

	if raw := trimmedValue(fields, FieldPriority); raw != "" {
		if v, ok := matchVocabulary(raw, Priorities); ok {
			out.Priority = &v
		} else {
			// No default tier on ambiguity; the wording stays in notes.
			spill = append(spill, "Priority: "+raw)
		}
	}

	var notes []string
	if n := trimmedValue(fields, FieldNotes); n != "" {
		notes = append(notes, n)
	}
	notes = append(notes, spill...)
	if len(notes) > 0 {
		joined := strings.Join(notes, "\n")
		out.Notes = &joined
	}

	return out, nil
}

func trimmedValue(fields ExtractedFields, name FieldName) string {
	fv, ok := fields[name]
	if !ok || fv.Value == nil {
		return ""
	}
	return strings.TrimSpace(*fv.Value)
}

// canonicalPhone reduces a phone-like token to bare digits. Tokens that do
// not confidently look like a phone number (too short, too long, mostly
// letters) are rejected rather than passed through.
func canonicalPhone(raw string) (string, bool) {
	var digits strings.Builder
	letters := 0
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case unicode.IsLetter(r):
			letters++
		}
	}
	d := digits.String()
	if len(d) < 7 || len(d) > 15 || letters > 2 {
		return "", false
	}
	return d, true
}

func matchVocabulary(raw string, vocab []string) (string, bool) {
	for _, v := range vocab {
		if strings.EqualFold(raw, v) {
			return v, true
		}
	}
	return "", false
}

func matchJobSegment(raw string) (string, bool) {
	if v, ok := matchVocabulary(raw, JobSegments); ok {
		return v, true
	}
	if code, ok := jobSegmentAliases[strings.ToLower(raw)]; ok {
		return code, true
	}
	return "", false
}
