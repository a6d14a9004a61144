package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeIntent(t *testing.T) {
	tests := []struct {
		in     string
		want   Intent
		wantOK bool
	}{
		{"Invoice", IntentInvoice, true},
		{"  rfq. ", IntentRFQ, true},
		{"RFQ (Request for Quote)", IntentRFQ, true},
		{"General Inquiry", IntentGeneralInquiry, true},
		{"inquiry", IntentGeneralInquiry, true},
		{"Complaint!", IntentComplaint, true},
		{"regulatory notice", IntentRegulation, true},
		{"Other", IntentOther, true},
		{"Unknown", IntentUnknown, false},
		{"", IntentUnknown, false},
		{"banana", IntentOther, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CanonicalizeIntent(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestIntentLabelsExcludeUnknown(t *testing.T) {
	labels := IntentLabels()
	assert.Len(t, labels, 6)
	assert.NotContains(t, labels, string(IntentUnknown))
	assert.Contains(t, labels, "General Inquiry")
}

func TestIsDocumentExt(t *testing.T) {
	assert.True(t, IsDocumentExt(".PDF"))
	assert.True(t, IsDocumentExt("pdf"))
	assert.False(t, IsDocumentExt(".txt"))
}
