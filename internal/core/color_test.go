package core

import "testing"

func TestNearestColor(t *testing.T) {
	tests := []struct {
		name     string
		rgb      RGB
		expected Color
	}{
		{"pure red", RGB{255, 0, 0}, ColorBrightRed},
		{"pure green", RGB{0, 255, 0}, ColorBrightGreen},
		{"pure blue", RGB{0, 0, 255}, ColorBlue},
		{"white", RGB{255, 255, 255}, ColorBrightWhite},
		{"dark gray", RGB{128, 128, 128}, ColorGray},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NearestColor(tc.rgb); got != tc.expected {
				t.Errorf("NearestColor(%v) = %d, expected %d", tc.rgb, got, tc.expected)
			}
		})
	}
}
