package mesh

import (
	"errors"
	"math"
	"testing"

	"mesh-warp/internal/warp"
)

func TestCoordinateMapIdentity(t *testing.T) {
	sizes := []struct{ rows, cols, w, h int }{
		{5, 5, 100, 100},
		{2, 3, 64, 48},
		{4, 1, 37, 53},
	}
	for _, sz := range sizes {
		g, _ := New(sz.rows, sz.cols, sz.h, sz.w, 0)
		m, err := g.CoordinateMap(sz.w, sz.h)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < sz.h; i++ {
			for j := 0; j < sz.w; j++ {
				x, y := m.At(j, i)
				if math.Abs(float64(x)-float64(j)) > 1e-3 || math.Abs(float64(y)-float64(i)) > 1e-3 {
					t.Fatalf("%+v: map[%d][%d] = (%v, %v), want identity", sz, i, j, x, y)
				}
			}
		}
	}
}

func TestCoordinateMapMovedCenter(t *testing.T) {
	g, _ := New(2, 2, 100, 100, 0)
	before, _ := g.CoordinateMap(100, 100)

	if err := g.SetPoint(1, 1, 60, 70); err != nil {
		t.Fatal(err)
	}
	m, err := g.CoordinateMap(100, 100)
	if err != nil {
		t.Fatal(err)
	}

	if x, y := m.At(50, 50); math.Abs(float64(x)-60) > 1e-4 || math.Abs(float64(y)-70) > 1e-4 {
		t.Errorf("map[50][50] = (%v, %v), want (60, 70)", x, y)
	}
	if x, y := m.At(0, 0); x != 0 || y != 0 {
		t.Errorf("map[0][0] = (%v, %v), want (0, 0)", x, y)
	}
	bx, by := before.At(99, 99)
	if x, y := m.At(99, 99); math.Abs(float64(x-bx)) > 0.01 || math.Abs(float64(y-by)) > 0.01 {
		t.Errorf("map[99][99] = (%v, %v), was (%v, %v)", x, y, bx, by)
	}
}

func TestCoordinateMapLocality(t *testing.T) {
	g, _ := New(4, 4, 100, 100, 0)
	before, _ := g.CoordinateMap(100, 100)

	// Point (1, 1) is a corner of cells (0..1, 0..1), i.e. pixels [0, 50).
	_ = g.SetPoint(1, 1, 40, 10)
	after, _ := g.CoordinateMap(100, 100)

	changed := 0
	for i := 0; i < 100; i++ {
		for j := 0; j < 100; j++ {
			bx, by := before.At(j, i)
			ax, ay := after.At(j, i)
			if bx == ax && by == ay {
				continue
			}
			changed++
			if i >= 50 || j >= 50 {
				t.Fatalf("pixel (%d, %d) outside the adjacent cells changed", j, i)
			}
		}
	}
	if changed == 0 {
		t.Error("moving a point changed nothing")
	}
}

func TestCoordinateMapNonSquareOutput(t *testing.T) {
	g, _ := New(2, 2, 100, 100, 0)
	m, err := g.CoordinateMap(200, 50)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != 200 || m.Height != 50 {
		t.Fatalf("size = %dx%d", m.Width, m.Height)
	}
	// Output column 100 is the middle lattice column, source x 50.
	if x, y := m.At(100, 25); x != 50 || y != 50 {
		t.Errorf("map[25][100] = (%v, %v), want (50, 50)", x, y)
	}
}

func TestCoordinateMapFoldedStillComputed(t *testing.T) {
	g, _ := New(2, 2, 100, 100, 0)
	_ = g.SetPoint(1, 1, 95, 95)
	if _, err := g.CoordinateMap(100, 100); err != nil {
		t.Errorf("folded mesh: %v", err)
	}
}

func TestCoordinateMapWorkersMatchesSerial(t *testing.T) {
	g, _ := New(3, 5, 90, 120, 0.1)
	_ = g.SetPoint(2, 3, 70, 20)
	_ = g.SetPoint(0, 0, -5, 3)

	serial, _ := g.CoordinateMap(121, 77)
	for _, workers := range []int{0, 2, 7, 200} {
		par, err := g.CoordinateMapWorkers(121, 77, workers)
		if err != nil {
			t.Fatal(err)
		}
		for k := range serial.X {
			if serial.X[k] != par.X[k] || serial.Y[k] != par.Y[k] {
				t.Fatalf("workers=%d: entry %d differs", workers, k)
			}
		}
	}
}

func TestCoordinateMapInvalid(t *testing.T) {
	g, _ := New(2, 2, 10, 10, 0)
	for _, sz := range [][2]int{{0, 10}, {10, 0}, {-1, -1}, {1 << 40, 1 << 40}, {warp.MaxPixels, 2}} {
		if _, err := g.CoordinateMap(sz[0], sz[1]); !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("CoordinateMap%v err = %v, want ErrInvalidDimension", sz, err)
		}
	}
}
