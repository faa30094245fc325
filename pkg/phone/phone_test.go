package phone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stock247/lending-engine/pkg/phone"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "local format with leading zero", input: "0712345678", expected: "254712345678"},
		{name: "international with plus", input: "+254712345678", expected: "254712345678"},
		{name: "international without plus", input: "254712345678", expected: "254712345678"},
		{name: "bare national number", input: "712345678", expected: "254712345678"},
		{name: "spaces and hyphens stripped", input: "0712 345-678", expected: "254712345678"},
		{name: "plus with spaces", input: "+254 712 345 678", expected: "254712345678"},
		{name: "empty", input: "", wantErr: true},
		{name: "only punctuation", input: " - ", wantErr: true},
		{name: "letters rejected", input: "07abc45678", wantErr: true},
		{name: "bare zero", input: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := phone.Normalize(tt.input, "254")

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// All admissible spellings of the same subscriber number converge on one
// canonical form.
func TestNormalizeIsCanonical(t *testing.T) {
	variants := []string{"0712345678", "+254712345678", "254712345678", "712345678", "0712-345-678"}

	for _, v := range variants {
		got, err := phone.Normalize(v, "254")
		assert.NoError(t, err)
		assert.Equal(t, "254712345678", got, "variant %q", v)
	}
}
