package warp

import (
	"errors"
	"image"
	"testing"
)

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*img.Stride+x] = uint8((x*7 + y*13) % 256)
		}
	}
	return img
}

func TestResampleIdentity(t *testing.T) {
	src := gradient(37, 23)
	m, _ := IdentityMap(37, 23)
	out, err := Resample(src, m)
	if err != nil {
		t.Fatal(err)
	}
	for i := range src.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel %d = %d, want %d", i, out.Pix[i], src.Pix[i])
		}
	}
}

func TestResampleOutputSize(t *testing.T) {
	src := gradient(10, 10)
	m, _ := NewMap(31, 7)
	out, err := Resample(src, m)
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 31 || b.Dy() != 7 {
		t.Errorf("bounds = %v", b)
	}
}

func TestSampleBilinear(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(src.Pix, []uint8{0, 100, 200, 50})

	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"top-left", 0, 0, 0},
		{"top-right", 1, 0, 100},
		{"mid-top", 0.5, 0, 50},
		{"center", 0.5, 0.5, 87.5},
		{"quarter", 0.25, 0, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sample(src, tt.x, tt.y); got != tt.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestSampleClampsToEdge(t *testing.T) {
	src := gradient(5, 4)
	at := func(x, y int) float64 { return float64(src.Pix[y*src.Stride+x]) }

	tests := []struct {
		x, y float64
		want float64
	}{
		{-10, -10, at(0, 0)},
		{100, 0, at(4, 0)},
		{2, 50, at(2, 3)},
		{1e9, 1e9, at(4, 3)},
	}
	for _, tt := range tests {
		if got := Sample(src, tt.x, tt.y); got != tt.want {
			t.Errorf("Sample(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSampleSubImage(t *testing.T) {
	big := gradient(20, 20)
	sub := big.SubImage(image.Rect(5, 5, 10, 10)).(*image.Gray)
	if got, want := Sample(sub, 0, 0), float64(big.GrayAt(5, 5).Y); got != want {
		t.Errorf("Sample(sub, 0, 0) = %v, want %v", got, want)
	}
}

func TestToUint8Rounding(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0}, {0.49, 0}, {0.5, 1}, {127.5, 128}, {254.6, 255}, {300, 255},
	}
	for _, tt := range tests {
		if got := toUint8(tt.in); got != tt.want {
			t.Errorf("toUint8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBilinearParallelMatchesSerial(t *testing.T) {
	src := gradient(64, 48)
	m, _ := NewMap(50, 61)
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			m.Set(col, row, float32(col)*1.3-4, float32(row)*0.7+0.25)
		}
	}

	serial, err := Resample(src, m)
	if err != nil {
		t.Fatal(err)
	}
	for _, workers := range []int{2, 5, 64, 1000} {
		par, err := Bilinear{Workers: workers}.Remap(src, m)
		if err != nil {
			t.Fatal(err)
		}
		for i := range serial.Pix {
			if par.Pix[i] != serial.Pix[i] {
				t.Fatalf("workers=%d: pixel %d differs", workers, i)
			}
		}
	}
}

func TestRemapInvalid(t *testing.T) {
	m, _ := IdentityMap(2, 2)
	if _, err := Resample(image.NewGray(image.Rect(0, 0, 0, 0)), m); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("empty source err = %v", err)
	}
	bad := &Map{Width: 2, Height: 2, X: make([]float32, 3), Y: make([]float32, 4)}
	if _, err := Resample(gradient(2, 2), bad); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("short map err = %v", err)
	}
	if _, err := Resample(gradient(2, 2), nil); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("nil map err = %v", err)
	}
}
