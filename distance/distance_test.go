package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8}, // (1 - -1)^2 + (-1 - 1)^2 = 4 + 4 = 8
		{"Empty", []float32{}, []float32{}, 0},
		{"Large", make([]float32, 1024), make([]float32, 1024), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestSquaredL2Deterministic(t *testing.T) {
	a := make([]float32, 131)
	b := make([]float32, 131)
	for i := range a {
		a[i] = float32(i) * 0.37
		b[i] = float32(i) * -0.11
	}

	first := SquaredL2(a, b)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, SquaredL2(a, b), "repeated calls must be bit-identical")
	}
}
