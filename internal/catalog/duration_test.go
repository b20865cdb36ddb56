package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input     string
		seconds   int
		formatted string
	}{
		{"PT4M13S", 253, "04:13"},
		{"PT1H2M3S", 3723, "1:02:03"},
		{"PT10H", 36000, "10:00:00"},
		{"PT45S", 45, "00:45"},
		{"PT2M", 120, "02:00"},
		{"PT", 0, "00:00"},
		{"PT1H0M5S", 3605, "1:00:05"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.seconds, d.TotalSeconds)
			assert.Equal(t, tt.formatted, d.Formatted)
		})
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, input := range []string{"", "4M13S", "P1DT2H", "PT4m13s", "PT4M13S extra"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDuration(input)
			assert.Error(t, err)
		})
	}
}
