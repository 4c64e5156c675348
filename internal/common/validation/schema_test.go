package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"location", "lang"},
		Properties: map[string]Property{
			"location": {Type: "string", MinLength: IntPtr(1)},
			"lang":     {Type: "string", Pattern: "^[A-Za-z]{2}$"},
		},
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]interface{}
		valid    bool
		wantCode string
	}{
		{
			name:  "valid",
			input: map[string]interface{}{"location": "L1", "lang": "en"},
			valid: true,
		},
		{
			name:     "missing required",
			input:    map[string]interface{}{"location": "L1"},
			wantCode: "REQUIRED",
		},
		{
			name:     "pattern mismatch",
			input:    map[string]interface{}{"location": "L1", "lang": "eng"},
			wantCode: "PATTERN",
		},
		{
			name:     "wrong type",
			input:    map[string]interface{}{"location": 12, "lang": "en"},
			wantCode: "INVALID_TYPE",
		},
		{
			name:     "extra field",
			input:    map[string]interface{}{"location": "L1", "lang": "en", "admin": true},
			wantCode: "ADDITIONAL_PROPERTY_NOT_ALLOWED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, testSchema())
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Errors)
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.wantCode, result.Errors[0].Code)
		})
	}
}

func TestGetErrorMessages(t *testing.T) {
	result := ValidateInput(map[string]interface{}{}, testSchema())
	require.False(t, result.Valid)
	msgs := result.GetErrorMessages()
	assert.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "is required")
}
