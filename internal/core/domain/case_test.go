package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientCase_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       PatientCase
		wantErr error
	}{
		{
			name:    "empty case",
			c:       PatientCase{},
			wantErr: ErrEmptyCase,
		},
		{
			name:    "whitespace only",
			c:       PatientCase{ChiefComplaint: "   \t"},
			wantErr: ErrEmptyCase,
		},
		{
			name: "chief complaint present",
			c:    PatientCase{ChiefComplaint: "chest pain for 3 hours"},
		},
		{
			name: "findings without chief complaint",
			c:    PatientCase{AuxiliaryExamination: "ST elevation in leads II, III, aVF"},
		},
		{
			name: "physical exam only",
			c:    PatientCase{PhysicalExamination: "BP 160/95, HR 98"},
		},
		{
			name:    "history alone is not enough",
			c:       PatientCase{PastHistory: "hypertension for 5 years"},
			wantErr: ErrEmptyCase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPatientCase_Summary(t *testing.T) {
	c := PatientCase{
		ChiefComplaint: "chest pain for 3 hours",
		VitalSigns:     "T 36.8, P 98, BP 160/95",
	}
	assert.Equal(t, "chest pain for 3 hours; T 36.8, P 98, BP 160/95", c.Summary())

	assert.Equal(t, "no chief complaint recorded", PatientCase{}.Summary())
}
