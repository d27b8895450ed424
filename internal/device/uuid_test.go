package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "16-bit lowercase", input: "180f", expected: "180f"},
		{name: "16-bit uppercase", input: "180F", expected: "180f"},
		{name: "16-bit with 0x prefix", input: "0x2902", expected: "2902"},
		{name: "16-bit with 0X prefix", input: "0X2902", expected: "2902"},
		{name: "SIG base with dashes", input: "0000180a-0000-1000-8000-00805f9b34fb", expected: "180a"},
		{name: "SIG base without dashes", input: "0000ae3000001000800000805f9b34fb", expected: "ae30"},
		{name: "SIG base uppercase", input: "0000AE01-0000-1000-8000-00805F9B34FB", expected: "ae01"},
		{name: "vendor 128-bit", input: "E7810A71-73AE-499D-8C15-FAA9AEF0C3F2", expected: "e7810a7173ae499d8c15faa9aef0c3f2"},
		{name: "wrong prefix stays long", input: "AA002902-0000-1000-8000-00805f9b34fb", expected: "aa00290200001000800000805f9b34fb"},
		{name: "wrong suffix stays long", input: "00002902-1234-5678-9abc-def012345678", expected: "00002902123456789abcdef012345678"},
		{name: "32-bit form untouched", input: "12345678", expected: "12345678"},
		{name: "surrounding spaces", input: "  180F ", expected: "180f"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUUID(tt.input))
		})
	}
}

func TestNormalizeUUIDs(t *testing.T) {
	got := NormalizeUUIDs([]string{"0x180d", "0000ae30-0000-1000-8000-00805f9b34fb", "E7810A71-73AE-499D-8C15-FAA9AEF0C3F2"})
	assert.Equal(t, []string{"180d", "ae30", "e7810a7173ae499d8c15faa9aef0c3f2"}, got)
}

func TestShortenUUID(t *testing.T) {
	assert.Equal(t, "e7810a71", ShortenUUID("e7810a7173ae499d8c15faa9aef0c3f2"))
	assert.Equal(t, "180f", ShortenUUID("180f"))
}

func TestValidateUUID(t *testing.T) {
	t.Run("normalizes valid input", func(t *testing.T) {
		got, err := ValidateUUID("180F", "0x2a19")
		require.NoError(t, err)
		assert.Equal(t, []string{"180f", "2a19"}, got)
	})

	t.Run("rejects empty list", func(t *testing.T) {
		_, err := ValidateUUID()
		assert.Error(t, err)
	})

	t.Run("rejects empty entry", func(t *testing.T) {
		_, err := ValidateUUID("180f", "")
		assert.ErrorContains(t, err, "index 1")
	})

	t.Run("rejects non-hex entry", func(t *testing.T) {
		_, err := ValidateUUID("printer")
		assert.ErrorContains(t, err, "invalid UUID format")
	})
}
