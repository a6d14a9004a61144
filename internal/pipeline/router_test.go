package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/common"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		format constants.Format
		intent constants.Intent
		want   Route
	}{
		{constants.FormatJSON, constants.IntentOther, RouteJSON},
		{constants.FormatJSON, constants.IntentUnknown, RouteJSON},
		{constants.FormatEmail, constants.IntentInvoice, RouteEmail},
		{constants.FormatDocument, constants.IntentInvoice, RouteDocument},
		{constants.FormatText, constants.IntentRFQ, RouteEmail},
		{constants.FormatText, constants.IntentComplaint, RouteEmail},
		{constants.FormatText, constants.IntentGeneralInquiry, RouteEmail},
		{constants.FormatText, constants.IntentInvoice, RouteNone},
		{constants.FormatText, constants.IntentUnknown, RouteNone},
		{constants.Format("Spreadsheet"), constants.IntentRFQ, RouteNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Route(tt.format, tt.intent), "%s/%s", tt.format, tt.intent)
	}
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy([]string{"invoice", "RFQ "})
	require.NoError(t, err)
	assert.Equal(t, RouteEmail, p.Route(constants.FormatText, constants.IntentInvoice))
	assert.Equal(t, RouteEmail, p.Route(constants.FormatText, constants.IntentRFQ))
	assert.Equal(t, RouteNone, p.Route(constants.FormatText, constants.IntentComplaint))

	empty, err := NewPolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, RouteNone, empty.Route(constants.FormatText, constants.IntentRFQ))

	_, err = NewPolicy([]string{"Spam"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
