package image

import (
	"image"
	"testing"
)

func solid(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestBlendModes(t *testing.T) {
	base := solid(2, 2, 200)
	top := solid(2, 2, 50)

	tests := []struct {
		mode BlendMode
		want uint8
	}{
		{BlendNormal, 50},
		{BlendDifference, 150},
		{BlendMultiply, 39},
		{BlendScreen, 211},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			out := Blend(base, top, tt.mode, 1)
			if got := out.Pix[0]; got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
	if base.Pix[0] != 200 {
		t.Error("Blend modified base")
	}
}

func TestBlendOpacity(t *testing.T) {
	out := Blend(solid(1, 1, 200), solid(1, 1, 0), BlendNormal, 0.5)
	if out.Pix[0] != 100 {
		t.Errorf("got %d, want 100", out.Pix[0])
	}
	out = Blend(solid(1, 1, 200), solid(1, 1, 0), BlendNormal, 0)
	if out.Pix[0] != 200 {
		t.Errorf("opacity 0: got %d, want 200", out.Pix[0])
	}
}

func TestBlendSizeMismatch(t *testing.T) {
	out := Blend(solid(4, 1, 10), solid(2, 1, 90), BlendNormal, 1)
	if out.Bounds().Dx() != 4 {
		t.Fatalf("width = %d", out.Bounds().Dx())
	}
	if out.Pix[1] != 90 || out.Pix[3] != 10 {
		t.Errorf("pix = %v", out.Pix)
	}
}

func TestParseBlendMode(t *testing.T) {
	for _, s := range []string{"difference", "Difference", "MULTIPLY"} {
		if _, err := ParseBlendMode(s); err != nil {
			t.Errorf("ParseBlendMode(%q): %v", s, err)
		}
	}
	if _, err := ParseBlendMode("dodge"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSideBySide(t *testing.T) {
	out := SideBySide(solid(3, 2, 10), solid(2, 4, 20))
	if b := out.Bounds(); b.Dx() != 5 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}
	if out.GrayAt(0, 0).Y != 10 || out.GrayAt(3, 3).Y != 20 || out.GrayAt(0, 3).Y != 0 {
		t.Error("unexpected pixel layout")
	}
}
