package utils

import (
	"math"
	"testing"
)

func TestMin(t *testing.T) {
	tests := []struct {
		a, b, expected int
	}{
		{5, 10, 5},
		{10, 5, 5},
		{-5, 5, -5},
		{0, 0, 0},
	}

	for _, tt := range tests {
		result := Min(tt.a, tt.b)
		if result != tt.expected {
			t.Errorf("Min(%d, %d) = %d, expected %d", tt.a, tt.b, result, tt.expected)
		}
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"several", []float64{1, 2, 3, 4}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Mean(tt.values)
			if result != tt.expected {
				t.Errorf("Mean(%v) = %v, expected %v", tt.values, result, tt.expected)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	if result := StdDev(nil); result != 0 {
		t.Errorf("StdDev(nil) = %v, expected 0", result)
	}

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if result := StdDev(values); math.Abs(result-2.0) > 1e-9 {
		t.Errorf("StdDev(%v) = %v, expected 2.0", values, result)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		percentile float64
		expected   float64
	}{
		{0, 1},
		{50, 5.5},
		{100, 10},
	}

	for _, tt := range tests {
		result := Percentile(values, tt.percentile)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("Percentile(%v) = %v, expected %v", tt.percentile, result, tt.expected)
		}
	}

	if result := Percentile(nil, 50); result != 0 {
		t.Errorf("Percentile(nil, 50) = %v, expected 0", result)
	}

	single := []float64{42}
	if result := Percentile(single, 99); result != 42 {
		t.Errorf("Percentile(single, 99) = %v, expected 42", result)
	}
}

func TestPercentileShortcuts(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}

	if result := P50(values); result != 30 {
		t.Errorf("P50 = %v, expected 30", result)
	}
	if result := P95(values); result < 40 || result > 50 {
		t.Errorf("P95 = %v, expected within (40, 50]", result)
	}
	if result := P99(values); result < P95(values) {
		t.Errorf("P99 = %v should be >= P95 = %v", result, P95(values))
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		expected float64
	}{
		{3.14159, 2, 3.14},
		{3.14159, 4, 3.1416},
		{2.5, 0, 3},
		{-2.5, 0, -3},
	}

	for _, tt := range tests {
		result := Round(tt.value, tt.decimals)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("Round(%v, %d) = %v, expected %v", tt.value, tt.decimals, result, tt.expected)
		}
	}
}
