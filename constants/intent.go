package constants

import (
	"strings"
)

// Intent is the closed set of business intents the classifier resolves to.
type Intent string

const (
	IntentInvoice        Intent = "Invoice"
	IntentRFQ            Intent = "RFQ"
	IntentComplaint      Intent = "Complaint"
	IntentRegulation     Intent = "Regulation"
	IntentGeneralInquiry Intent = "General Inquiry"
	IntentOther          Intent = "Other"
	IntentUnknown        Intent = "Unknown"
)

// classifiable are the labels offered to the generator. Unknown is never offered;
// it marks a failed classification.
var classifiable = []Intent{
	IntentInvoice,
	IntentRFQ,
	IntentComplaint,
	IntentRegulation,
	IntentGeneralInquiry,
	IntentOther,
}

// IntentLabels returns the classifiable intents as plain strings.
func IntentLabels() []string {
	result := make([]string, len(classifiable))
	for i, in := range classifiable {
		result[i] = string(in)
	}
	return result
}

// CanonicalizeIntent maps a free-form label onto the closed intent set.
// The second return value is false when the label had to fall back to Other or Unknown.
func CanonicalizeIntent(input string) (Intent, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.TrimRight(normalized, ".!?:; ")
	if normalized == "" {
		return IntentUnknown, false
	}

	if normalized == strings.ToLower(string(IntentUnknown)) {
		return IntentUnknown, false
	}
	for _, in := range classifiable {
		if normalized == strings.ToLower(string(in)) {
			return in, true
		}
	}

	synonyms := map[string]Intent{
		"request for quote":     IntentRFQ,
		"request for quotation": IntentRFQ,
		"quote request":         IntentRFQ,
		"inquiry":               IntentGeneralInquiry,
		"enquiry":               IntentGeneralInquiry,
		"general enquiry":       IntentGeneralInquiry,
		"question":              IntentGeneralInquiry,
		"bill":                  IntentInvoice,
		"compliance":            IntentRegulation,
	}
	if in, ok := synonyms[normalized]; ok {
		return in, true
	}

	// models like to echo the annotated label, e.g. "RFQ (Request for Quote)"
	for _, key := range []struct {
		needle string
		intent Intent
	}{
		{"rfq", IntentRFQ},
		{"request for quote", IntentRFQ},
		{"complaint", IntentComplaint},
		{"invoice", IntentInvoice},
		{"regulation", IntentRegulation},
		{"regulatory", IntentRegulation},
		{"inquiry", IntentGeneralInquiry},
		{"enquiry", IntentGeneralInquiry},
	} {
		if strings.Contains(normalized, key.needle) {
			return key.intent, true
		}
	}

	return IntentOther, false
}
