package mesh

import (
	"errors"
	"testing"
)

func TestNewLayout(t *testing.T) {
	sizes := []struct{ rows, cols, h, w int }{
		{1, 1, 1, 1},
		{5, 5, 480, 640},
		{2, 7, 33, 101},
		{10, 3, 17, 9},
	}
	for _, sz := range sizes {
		g, err := New(sz.rows, sz.cols, sz.h, sz.w, DefaultBorderFraction)
		if err != nil {
			t.Fatalf("New(%+v): %v", sz, err)
		}
		if g.Len() != (sz.rows+1)*(sz.cols+1) {
			t.Errorf("%+v: Len = %d, want %d", sz, g.Len(), (sz.rows+1)*(sz.cols+1))
		}

		minX, maxX := 0.1*float64(sz.w), float64(sz.w)-0.1*float64(sz.w)
		minY, maxY := 0.1*float64(sz.h), float64(sz.h)-0.1*float64(sz.h)
		for r := 0; r <= sz.rows; r++ {
			for c := 0; c <= sz.cols; c++ {
				p, err := g.Point(r, c)
				if err != nil {
					t.Fatal(err)
				}
				if p.Row != r || p.Col != c {
					t.Errorf("point (%d, %d) has identity (%d, %d)", r, c, p.Row, p.Col)
				}
				if p.X < minX || p.X > maxX || p.Y < minY || p.Y > maxY {
					t.Errorf("%+v: point (%d, %d) at (%v, %v) outside inset", sz, r, c, p.X, p.Y)
				}
			}
		}
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name             string
		rows, cols, h, w int
	}{
		{"zero rows", 0, 5, 100, 100},
		{"negative cols", 5, -1, 100, 100},
		{"zero height", 5, 5, 0, 100},
		{"zero width", 5, 5, 100, 0},
		{"too many points", 1024, 1024, 100, 100},
		{"overflowing lattice", 1 << 32, 1 << 32, 100, 100},
		{"one huge axis", 1, MaxPoints, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rows, tt.cols, tt.h, tt.w, DefaultBorderFraction)
			if !errors.Is(err, ErrInvalidDimension) {
				t.Errorf("err = %v, want ErrInvalidDimension", err)
			}
		})
	}
}

func TestPointOutOfRange(t *testing.T) {
	g, _ := New(2, 3, 100, 100, 0)
	bad := [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 4}}
	for _, rc := range bad {
		if _, err := g.Point(rc[0], rc[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Point%v err = %v, want ErrOutOfRange", rc, err)
		}
		if err := g.SetPoint(rc[0], rc[1], 1, 1); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetPoint%v err = %v, want ErrOutOfRange", rc, err)
		}
	}
	if _, err := g.Point(2, 3); err != nil {
		t.Errorf("Point(2, 3): %v", err)
	}
}

func TestSetPointUnclamped(t *testing.T) {
	g, _ := New(2, 2, 100, 100, 0.1)
	if err := g.SetPoint(1, 1, -50, 500.25); err != nil {
		t.Fatal(err)
	}
	p, _ := g.Point(1, 1)
	if p.X != -50 || p.Y != 500.25 || p.Row != 1 || p.Col != 1 {
		t.Errorf("got %+v", p)
	}
}

func TestCloneIndependent(t *testing.T) {
	g, _ := New(2, 2, 100, 100, 0)
	c := g.Clone()
	_ = g.SetPoint(0, 0, 42, 42)
	p, _ := c.Point(0, 0)
	if p.X != 0 || p.Y != 0 {
		t.Errorf("clone changed with original: %+v", p)
	}
}

func TestCellWinding(t *testing.T) {
	g, _ := New(2, 2, 100, 100, 0)
	q, err := g.Cell(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := [4][2]float64{{0, 50}, {50, 50}, {50, 100}, {0, 100}}
	for i, p := range q {
		if p.X != want[i][0] || p.Y != want[i][1] {
			t.Errorf("corner %d = %v, want %v", i, p, want[i])
		}
	}
	if _, err := g.Cell(2, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Cell(2, 0) err = %v, want ErrOutOfRange", err)
	}
}

func TestNewAtPointLimit(t *testing.T) {
	g, err := New(1023, 1023, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != MaxPoints {
		t.Errorf("Len = %d, want %d", g.Len(), MaxPoints)
	}
}

func TestBounds(t *testing.T) {
	g, _ := New(4, 4, 200, 100, 0.1)
	b := g.Bounds()
	if b.X != 10 || b.Y != 20 || b.Width != 80 || b.Height != 160 {
		t.Errorf("Bounds = %+v", b)
	}
}
