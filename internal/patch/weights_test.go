package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name    string
		in      []float64
		want    []float64
		changed bool
	}{
		{"proportional", []float64{2, 2, 4}, []float64{0.25, 0.25, 0.5}, true},
		{"already normalized", []float64{0.5, 0.5}, []float64{0.5, 0.5}, true},
		{"zero sum", []float64{0, 0}, []float64{0, 0}, false},
		{"negative sum", []float64{1, -3}, []float64{1, -3}, false},
		{"empty", []float64{}, []float64{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeWeights(tt.in)
			assert.Equal(t, tt.changed, ok)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestNormalizeWeights_DoesNotMutateInput(t *testing.T) {
	in := []float64{1, 3}
	_, _ = NormalizeWeights(in)
	assert.Equal(t, []float64{1, 3}, in)
}

func TestNormalizeWeights_Idempotent(t *testing.T) {
	once, _ := NormalizeWeights([]float64{1, 1, 1, 7, 0.3})
	twice, _ := NormalizeWeights(once)

	assert.False(t, weightsMoved(once, twice))
}

func TestWeightsMoved(t *testing.T) {
	assert.False(t, weightsMoved([]float64{0.1, 0.9}, []float64{0.1 + 1e-15, 0.9}))
	assert.True(t, weightsMoved([]float64{0.1, 0.9}, []float64{0.2, 0.8}))
	assert.True(t, weightsMoved([]float64{1}, []float64{0.5, 0.5}))
}
