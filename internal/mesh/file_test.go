package mesh

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	g, _ := New(3, 4, 120, 160, DefaultBorderFraction)
	_ = g.SetPoint(1, 2, 33.25, 71.5)
	_ = g.SetPoint(3, 4, -5, 500)

	var buf bytes.Buffer
	if err := g.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf, 120, 160)
	if err != nil {
		t.Fatal(err)
	}

	if got.Rows() != 3 || got.Cols() != 4 {
		t.Fatalf("shape = %dx%d", got.Rows(), got.Cols())
	}
	want := g.Points()
	for i, p := range got.Points() {
		if p != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.json")
	g, _ := New(2, 2, 50, 50, 0.2)
	if err := g.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path, 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := got.Point(2, 2); p.X != 40 || p.Y != 40 {
		t.Errorf("Point(2, 2) = %+v", p)
	}
}

func TestEncodeFormat(t *testing.T) {
	g, _ := New(1, 1, 10, 10, 0)
	var buf bytes.Buffer
	if err := g.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{`"rows": 1`, `"cols": 1`, `"points": [`, `"x": 10`, `"y": 0`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded mesh lacks %s:\n%s", want, s)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{rows: 1`},
		{"missing rows", `{"cols": 1, "points": [[{"x":0,"y":0},{"x":1,"y":0}],[{"x":0,"y":1},{"x":1,"y":1}]]}`},
		{"zero cols", `{"rows": 1, "cols": 0, "points": []}`},
		{"short outer", `{"rows": 1, "cols": 1, "points": [[{"x":0,"y":0},{"x":1,"y":0}]]}`},
		{"short row", `{"rows": 1, "cols": 1, "points": [[{"x":0,"y":0}],[{"x":0,"y":1},{"x":1,"y":1}]]}`},
		{"missing y", `{"rows": 1, "cols": 1, "points": [[{"x":0,"y":0},{"x":1}],[{"x":0,"y":1},{"x":1,"y":1}]]}`},
		{"huge lattice", `{"rows": 4294967296, "cols": 4294967296, "points": []}`},
		{"string x", `{"rows": 1, "cols": 1, "points": [[{"x":"0","y":0},{"x":1,"y":0}],[{"x":0,"y":1},{"x":1,"y":1}]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.json), 10, 10)
			if !errors.Is(err, ErrMalformedData) {
				t.Errorf("err = %v, want ErrMalformedData", err)
			}
		})
	}
}

func TestDecodeKeepsOutsidePoints(t *testing.T) {
	doc := `{"rows": 1, "cols": 1, "points": [[{"x":-4,"y":0},{"x":1,"y":0}],[{"x":0,"y":1},{"x":99,"y":1}]]}`
	g, err := Decode(strings.NewReader(doc), 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := g.Point(0, 0); p.X != -4 {
		t.Errorf("Point(0, 0) = %+v", p)
	}
	if p, _ := g.Point(1, 1); p.X != 99 || p.Row != 1 || p.Col != 1 {
		t.Errorf("Point(1, 1) = %+v", p)
	}
}
