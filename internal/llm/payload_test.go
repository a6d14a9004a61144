package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docrouter/internal/common"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		structured bool
		want       string
	}{
		{"plain object", `{"a": 1}`, true, `{"a":1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", true, `{"a":1}`},
		{"bare fence", "```\n{\"a\": \"x\"}\n```", true, `{"a":"x"}`},
		{"fence with other tag", "```JSON\n[1, 2]\n```", true, `[1,2]`},
		{"fence without closing", "```json\n{\"a\": true}", true, `{"a":true}`},
		{"inline fence", "```json{\"a\":1}```", true, `{"a":1}`},
		{"padding", "  \n{\"a\":null}\n ", true, `{"a":null}`},
		{"prose", "Sure! Here you go.", false, "Sure! Here you go."},
		{"empty", "", false, ""},
		{"broken fence", "```json\n{\"a\": \n```", false, "```json\n{\"a\": \n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ExtractPayload(tt.in)
			assert.Equal(t, tt.structured, p.Structured)
			assert.Equal(t, tt.want, p.Text)
			if tt.structured {
				assert.NoError(t, p.Err)
			} else {
				assert.Error(t, p.Err)
				assert.Nil(t, p.Value)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	m, err := DecodeObject(`{"subject":"RFQ","total":12.5}`)
	require.NoError(t, err)
	assert.Equal(t, "RFQ", m["subject"])
	assert.Equal(t, 12.5, m["total"])

	for _, in := range []string{"not json", "[1,2]", "null", `"str"`} {
		_, err := DecodeObject(in)
		assert.ErrorIs(t, err, common.ErrInvalidJSON, in)
	}
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "do it\n\nbody", BuildPrompt("do it", "body", false))
	assert.Equal(t, "do it\n\nbody\nYour response MUST be a valid JSON object.", BuildPrompt("do it", "body", true))
}
