package geometry

import "testing"

var square = []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func TestIsConvex(t *testing.T) {
	tests := []struct {
		name string
		poly []Point2D
		want bool
	}{
		{"square", square, true},
		{"reversed", []Point2D{{0, 10}, {10, 10}, {10, 0}, {0, 0}}, true},
		{"dart", []Point2D{{0, 0}, {10, 0}, {3, 3}, {0, 10}}, false},
		{"bowtie", []Point2D{{0, 0}, {10, 0}, {0, 10}, {10, 10}}, false},
		{"degenerate", []Point2D{{0, 0}, {1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConvex(tt.poly); got != tt.want {
				t.Errorf("IsConvex = %v, want %v", got, tt.want)
			}
		})
	}
}
