package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomValidators(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type payload struct {
		Subject  string `json:"subject" validate:"notblank"`
		Deadline string `json:"deadline" validate:"required,date"`
	}

	tests := []struct {
		name       string
		data       payload
		wantFields map[string]string
	}{
		{name: "valid", data: payload{Subject: "Math", Deadline: "2025-01-10"}},
		{
			name:       "blank subject",
			data:       payload{Subject: "   ", Deadline: "2025-01-10"},
			wantFields: map[string]string{"subject": notBlankText},
		},
		{
			name:       "missing deadline",
			data:       payload{Subject: "Math"},
			wantFields: map[string]string{"deadline": requiredText},
		},
		{
			name:       "invalid deadline",
			data:       payload{Subject: "Math", Deadline: "tomorrow"},
			wantFields: map[string]string{"deadline": dateText},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.data)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	nf := NewNotFoundError("work not found")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsNotFound(NewStorageError("find", nf)))

	se := NewStorageError("insert work", assert.AnError)
	assert.Contains(t, se.Error(), "insert work")
	assert.ErrorIs(t, se, assert.AnError)

	assert.True(t, IsShutdown(NewShutdownError("bye")))
}
