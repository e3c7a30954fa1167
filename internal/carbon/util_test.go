package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrencyBRL(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{9.84, "R$ 9,84"},
		{20, "R$ 20,00"},
		{0, "R$ 0,00"},
		{3.072, "R$ 3,07"},
		{493.8, "R$ 493,80"},
		{1234.5, "R$ 1234,50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrencyBRL(tt.value))
		})
	}
}

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "76,8 kg", FormatKg(76.8))
	assert.Equal(t, "0,0 kg", FormatKg(0))
	assert.Equal(t, "500,0 kg", FormatKg(500))
}

func TestFormatFactor(t *testing.T) {
	assert.Equal(t, "0,12 kg/km", FormatFactor(0.12))
	assert.Equal(t, "0,25 kg/km", FormatFactor(0.25))
}

func TestFormatDistanceKm(t *testing.T) {
	assert.Equal(t, "640 km", FormatDistanceKm(640))
	assert.Equal(t, "0 km", FormatDistanceKm(0))
}
