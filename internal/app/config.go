package app

import (
	"runtime"

	"mesh-warp/internal/mesh"
	"mesh-warp/internal/prefs"
)

// Backends accepted in Config.Backend.
const (
	BackendGo     = "go"
	BackendOpenCV = "opencv"
)

// Config holds session defaults.
type Config struct {
	Rows           int     // Cell rows of a freshly built mesh
	Cols           int     // Cell columns of a freshly built mesh
	BorderFraction float64 // Inset of a fresh mesh from the image edge
	PickDistance   float64 // Pointer tolerance in pixels
	Workers        int     // Row bands computed in parallel
	Backend        string  // Remap backend name
	WarnFolds      bool    // Report folded cells after each recompute
}

// DefaultConfig returns a 5x5 mesh, 10% border, 10px pick tolerance.
func DefaultConfig() Config {
	return Config{
		Rows:           5,
		Cols:           5,
		BorderFraction: mesh.DefaultBorderFraction,
		PickDistance:   mesh.DefaultPickDistance,
		Workers:        runtime.GOMAXPROCS(0),
		Backend:        BackendGo,
		WarnFolds:      true,
	}
}

// ConfigFromPrefs overlays stored preferences on DefaultConfig.
func ConfigFromPrefs(p *prefs.Prefs) Config {
	c := DefaultConfig()
	c.Rows = p.Int(prefs.KeyGridRows, c.Rows)
	c.Cols = p.Int(prefs.KeyGridCols, c.Cols)
	c.BorderFraction = p.FloatWithFallback(prefs.KeyBorderFraction, c.BorderFraction)
	c.PickDistance = p.FloatWithFallback(prefs.KeyPickDistance, c.PickDistance)
	c.Workers = p.Int(prefs.KeyWorkers, c.Workers)
	c.Backend = p.String(prefs.KeyBackend, c.Backend)
	c.WarnFolds = p.Bool(prefs.KeyWarnFolds, c.WarnFolds)
	return c.normalized()
}

// Store writes the config into p. Call p.Save to persist it.
func (c Config) Store(p *prefs.Prefs) {
	p.SetInt(prefs.KeyGridRows, c.Rows)
	p.SetInt(prefs.KeyGridCols, c.Cols)
	p.SetFloat(prefs.KeyBorderFraction, c.BorderFraction)
	p.SetFloat(prefs.KeyPickDistance, c.PickDistance)
	p.SetInt(prefs.KeyWorkers, c.Workers)
	p.SetString(prefs.KeyBackend, c.Backend)
	p.SetBool(prefs.KeyWarnFolds, c.WarnFolds)
}

// normalized replaces unusable values with defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Rows < 1 {
		c.Rows = d.Rows
	}
	if c.Cols < 1 {
		c.Cols = d.Cols
	}
	if c.BorderFraction < 0 || c.BorderFraction >= 0.5 {
		c.BorderFraction = d.BorderFraction
	}
	if c.PickDistance <= 0 {
		c.PickDistance = d.PickDistance
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Backend != BackendGo && c.Backend != BackendOpenCV {
		c.Backend = BackendGo
	}
	return c
}
