package app

import (
	"path/filepath"
	"testing"

	"mesh-warp/internal/prefs"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Rows != 5 || c.Cols != 5 || c.BorderFraction != 0.1 || c.PickDistance != 10 {
		t.Errorf("DefaultConfig = %+v", c)
	}
	if c.Backend != BackendGo || !c.WarnFolds || c.Workers < 1 {
		t.Errorf("DefaultConfig = %+v", c)
	}
}

func TestConfigNormalized(t *testing.T) {
	c := Config{Rows: 0, Cols: -2, BorderFraction: 0.7, PickDistance: -1, Workers: 0, Backend: "cuda"}.normalized()
	d := DefaultConfig()
	if c.Rows != d.Rows || c.Cols != d.Cols || c.BorderFraction != d.BorderFraction || c.PickDistance != d.PickDistance {
		t.Errorf("normalized = %+v", c)
	}
	if c.Workers != 1 || c.Backend != BackendGo {
		t.Errorf("normalized = %+v", c)
	}
}

func TestConfigPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	p := prefs.LoadFrom(path)

	c := DefaultConfig()
	c.Rows, c.Cols = 3, 8
	c.BorderFraction = 0.05
	c.Backend = BackendOpenCV
	c.WarnFolds = false
	c.Store(p)
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	got := ConfigFromPrefs(prefs.LoadFrom(path))
	if got != c {
		t.Errorf("ConfigFromPrefs = %+v, want %+v", got, c)
	}
}

func TestSessionUsesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Rows, cfg.Cols = 2, 3
	s := NewSession(cfg)
	if err := s.LoadImage(writePNG(t, t.TempDir(), 30, 20)); err != nil {
		t.Fatal(err)
	}
	if g := s.Mesh(); g.Rows() != 2 || g.Cols() != 3 {
		t.Errorf("mesh = %dx%d", g.Rows(), g.Cols())
	}
}
