package lead

// FieldName enumerates the closed lead schema. Extraction output always
// carries every one of these keys; missing information is a nil value,
// never a missing key.
type FieldName string

const (
	FieldCustomerName    FieldName = "customer_name"
	FieldContactPhone    FieldName = "contact_phone"
	FieldContactEmail    FieldName = "contact_email"
	FieldPropertyAddress FieldName = "property_address"
	FieldLeadSource      FieldName = "lead_source"
	FieldJobSegment      FieldName = "job_segment"
	FieldPriority        FieldName = "priority"
	FieldNotes           FieldName = "notes"
)

// FieldNames lists the schema in canonical order.
var FieldNames = []FieldName{
	FieldCustomerName,
	FieldContactPhone,
	FieldContactEmail,
	FieldPropertyAddress,
	FieldLeadSource,
	FieldJobSegment,
	FieldPriority,
	FieldNotes,
}

// Confidence is the extractor's per-field signal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// FieldValue is one extracted field. A nil Value means the utterance did
// not mention the field.
type FieldValue struct {
	Value      *string    `json:"value"`
	Confidence Confidence `json:"confidence"`
}

// ExtractedFields maps every FieldName to its extracted value.
type ExtractedFields map[FieldName]FieldValue

// NewExtractedFields returns a mapping with the full key set and nil values.
func NewExtractedFields() ExtractedFields {
	f := make(ExtractedFields, len(FieldNames))
	for _, name := range FieldNames {
		f[name] = FieldValue{}
	}
	return f
}

// Complete reports whether the mapping carries the full key set and
// nothing else.
func (f ExtractedFields) Complete() bool {
	if len(f) != len(FieldNames) {
		return false
	}
	for _, name := range FieldNames {
		if _, ok := f[name]; !ok {
			return false
		}
	}
	return true
}

// NormalizedLead carries canonicalized values ready for persistence.
// CustomerName is the single mandatory field; everything else may be nil.
type NormalizedLead struct {
	CustomerName    string  `json:"customer_name"`
	ContactPhone    *string `json:"contact_phone"`
	ContactEmail    *string `json:"contact_email"`
	PropertyAddress *string `json:"property_address"`
	LeadSource      *string `json:"lead_source"`
	JobSegment      *string `json:"job_segment"`
	Priority        *string `json:"priority"`
	Notes           *string `json:"notes"`
}

// Closed vocabularies for the enumerated fields.
var (
	LeadSources = []string{"Referral", "Website", "Walk-in", "Phone Call", "Repeat Customer", "Other"}
	JobSegments = []string{"RR", "RN", "CR", "CN"}
	Priorities  = []string{"Low", "Medium", "High", "Critical"}
)

// Spoken long forms of the job segment codes.
var jobSegmentAliases = map[string]string{
	"residential remodel":            "RR",
	"residential renovation":         "RR",
	"residential remodel/renovation": "RR",
	"residential new construction":   "RN",
	"residential new build":          "RN",
	"commercial remodel":             "CR",
	"commercial renovation":          "CR",
	"commercial new construction":    "CN",
	"commercial new build":           "CN",
}
