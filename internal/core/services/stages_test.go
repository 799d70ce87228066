package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestDecodeStagePayload(t *testing.T) {
	var out domain.HypothesisOutput
	err := decodeStagePayload("```json\n{\"candidates\": [{\"name\": \"angina\"}]}\n```", &out)
	require.NoError(t, err)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "angina", out.Candidates[0].Name)
}

func TestDecodeStagePayload_Malformed(t *testing.T) {
	var out domain.HypothesisOutput
	err := decodeStagePayload("I cannot answer in JSON, sorry.", &out)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
