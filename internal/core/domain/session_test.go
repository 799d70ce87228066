package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_Next(t *testing.T) {
	assert.Equal(t, StageHypothesis, StageInit.Next())
	assert.Equal(t, StageChallenge, StageHypothesis.Next())
	assert.Equal(t, StageReasoning, StageChallenge.Next())
	assert.Equal(t, StageComplete, StageReasoning.Next())

	// Terminal states do not advance.
	assert.Equal(t, StageComplete, StageComplete.Next())
	assert.Equal(t, StageFailed, StageFailed.Next())
}

func TestStage_Mandatory(t *testing.T) {
	assert.False(t, StageHypothesis.Mandatory())
	assert.False(t, StageChallenge.Mandatory())
	assert.True(t, StageReasoning.Mandatory())
}

func TestDiagnosticSession_Result(t *testing.T) {
	s := &DiagnosticSession{
		Results: []StageResult{
			{Stage: StageHypothesis, Succeeded: true},
			{Stage: StageChallenge, Succeeded: false, Error: "timed out"},
		},
	}

	r := s.Result(StageChallenge)
	assert.NotNil(t, r)
	assert.False(t, r.Succeeded)

	assert.Nil(t, s.Result(StageReasoning))
}
