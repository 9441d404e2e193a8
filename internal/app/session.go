// Package app provides the mesh warp session: the state machine that owns
// the source image, the control mesh and the warped output, and notifies
// observers as they change.
package app

import (
	"fmt"
	goimage "image"
	"io"
	"math"
	"sync"

	"mesh-warp/internal/image"
	"mesh-warp/internal/mesh"
	"mesh-warp/internal/warp"
	"mesh-warp/pkg/geometry"
)

// State is the session lifecycle state.
type State int

const (
	StateEmpty         State = iota // No image
	StateImageLoaded                // Image and default mesh, no output yet
	StateMeshEdited                 // Points moved since the last resample
	StateOutputCurrent              // Output matches the mesh
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateImageLoaded:
		return "ImageLoaded"
	case StateMeshEdited:
		return "MeshEdited"
	case StateOutputCurrent:
		return "OutputCurrent"
	default:
		return "Unknown"
	}
}

// Session owns the source image, mesh, coordinate map and output image.
// Commands run one at a time; each runs to completion, including listener
// notification, before the next starts.
type Session struct {
	cmdMu sync.Mutex
	mu    sync.RWMutex

	cfg      Config
	remapper warp.Remapper

	source    *image.Layer
	grid      *mesh.Grid
	maps      *warp.Map
	output    *goimage.Gray
	outWidth  int
	outHeight int

	state       State
	status      string
	projectPath string

	listeners map[EventType][]EventListener
}

// Option configures a Session.
type Option func(*Session)

// WithRemapper replaces the default pure-Go remapper.
func WithRemapper(r warp.Remapper) Option {
	return func(s *Session) {
		if r != nil {
			s.remapper = r
		}
	}
}

// NewSession creates an empty session.
func NewSession(cfg Config, opts ...Option) *Session {
	cfg = cfg.normalized()
	s := &Session{
		cfg:       cfg,
		remapper:  warp.Bilinear{Workers: cfg.Workers},
		listeners: make(map[EventType][]EventListener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// LoadImage replaces the source image with the file at path, rebuilds the
// default mesh and recomputes the output at the image size.
func (s *Session) LoadImage(path string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.loadImage(path)
}

func (s *Session) loadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return s.fail("Error loading image", classify(err))
	}
	return s.setSource(layer, "Loaded image: "+path)
}

// LoadImageReader is LoadImage for in-memory data; name is used for status
// messages only.
func (s *Session) LoadImageReader(name string, r io.Reader) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	layer, err := image.Decode(r)
	if err != nil {
		return s.fail("Error loading image", err)
	}
	return s.setSource(layer, "Loaded image: "+name)
}

func (s *Session) setSource(layer *image.Layer, status string) error {
	w, h := layer.Width(), layer.Height()
	grid, err := mesh.New(s.cfg.Rows, s.cfg.Cols, h, w, s.cfg.BorderFraction)
	if err != nil {
		return s.fail("Error loading image", err)
	}

	s.mu.Lock()
	s.source = layer
	s.grid = grid
	s.maps = nil
	s.output = nil
	s.outWidth, s.outHeight = w, h
	s.mu.Unlock()

	logger().Info("image loaded", "path", layer.Path, "format", layer.Format, "width", w, "height", h)
	s.Emit(EventImageChanged, ImageEvent{Path: layer.Path, Image: image.Clone(layer.Image)})
	s.setState(StateImageLoaded)
	s.emitMesh()

	if err := s.recompute(w, h); err != nil {
		return err
	}
	s.report(status)
	return nil
}

// ResizeGrid discards the current mesh and builds a fresh rows x cols mesh,
// then recomputes the output.
func (s *Session) ResizeGrid(rows, cols int) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	src := s.sourceLayer()
	if src == nil {
		return s.fail("Load an image first", ErrNoImageLoaded)
	}
	grid, err := mesh.New(rows, cols, src.Height(), src.Width(), s.cfg.BorderFraction)
	if err != nil {
		return s.fail("Error resizing grid", err)
	}

	s.mu.Lock()
	s.grid = grid
	w, h := s.outWidth, s.outHeight
	s.mu.Unlock()

	s.setState(StateMeshEdited)
	s.emitMesh()
	if err := s.recompute(w, h); err != nil {
		return err
	}
	s.report(fmt.Sprintf("Grid resized to %dx%d", rows, cols))
	return nil
}

// MovePoint moves control point (row, col) to (x, y), clamped to the source
// image. The output is not recomputed; call UpdateOutput when the drag ends.
// Non-finite coordinates are rejected and leave the mesh unchanged.
func (s *Session) MovePoint(row, col int, x, y float64) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if !finite(x) || !finite(y) {
		if s.sourceLayer() == nil {
			return s.fail("Load an image first", ErrNoImageLoaded)
		}
		return s.fail("Error moving point",
			fmt.Errorf("%w: position (%v, %v)", mesh.ErrInvalidDimension, x, y))
	}

	s.mu.Lock()
	if s.source == nil || s.grid == nil {
		s.mu.Unlock()
		return s.fail("Load an image first", ErrNoImageLoaded)
	}
	p := geometry.Point2D{X: x, Y: y}.Clamp(0, 0,
		float64(s.source.Width()-1), float64(s.source.Height()-1))
	err := s.grid.SetPoint(row, col, p.X, p.Y)
	s.mu.Unlock()
	if err != nil {
		return s.fail("Error moving point", err)
	}

	s.setState(StateMeshEdited)
	s.emitMesh()
	s.setStatus(fmt.Sprintf("Moving point (%d, %d) to (%.1f, %.1f)", row, col, p.X, p.Y), nil)
	return nil
}

// UpdateOutput recomputes the map and output at the last-used output size.
func (s *Session) UpdateOutput() error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.sourceLayer() == nil {
		return s.fail("Load an image first", ErrNoImageLoaded)
	}
	s.mu.RLock()
	w, h := s.outWidth, s.outHeight
	s.mu.RUnlock()
	if err := s.recompute(w, h); err != nil {
		return err
	}
	s.report("")
	return nil
}

// UpdateOutputSize recomputes the map and output at width x height, which
// becomes the last-used size.
func (s *Session) UpdateOutputSize(width, height int) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.sourceLayer() == nil {
		return s.fail("Load an image first", ErrNoImageLoaded)
	}
	if width <= 0 || height <= 0 {
		return s.fail("Error updating output",
			fmt.Errorf("%w: output %dx%d", mesh.ErrInvalidDimension, width, height))
	}
	if err := s.recompute(width, height); err != nil {
		return err
	}
	s.report("")
	return nil
}

// recompute rebuilds the coordinate map from a snapshot of the mesh and
// resamples the source through it.
func (s *Session) recompute(width, height int) error {
	s.mu.RLock()
	grid := s.grid.Clone()
	src := s.source.Image
	s.mu.RUnlock()

	m, err := grid.CoordinateMapWorkers(width, height, s.cfg.Workers)
	if err != nil {
		return s.fail("Error updating output", err)
	}
	out, err := s.remapper.Remap(src, m)
	if err != nil {
		return s.fail("Error updating output", err)
	}

	s.mu.Lock()
	s.maps = m
	s.output = out
	s.outWidth, s.outHeight = width, height
	s.mu.Unlock()

	s.setState(StateOutputCurrent)
	s.Emit(EventOutputChanged, OutputEvent{Image: image.Clone(out), Width: width, Height: height})
	return nil
}

// report sets a success status. With WarnFolds on, a fold warning for the
// current mesh is appended. An empty msg sets the warning alone, or nothing
// when the mesh has no folds.
func (s *Session) report(msg string) {
	if s.cfg.WarnFolds {
		if g := s.Mesh(); g != nil {
			if folds := g.Folds(); len(folds) > 0 {
				warning := fmt.Sprintf("Warning: mesh has %d folded cell(s)", len(folds))
				if msg == "" {
					msg = warning
				} else {
					msg += " | " + warning
				}
			}
		}
	}
	if msg != "" {
		s.setStatus(msg, nil)
	}
}

// SaveMesh writes the current mesh as JSON.
func (s *Session) SaveMesh(path string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.saveMesh(path)
}

func (s *Session) saveMesh(path string) error {
	s.mu.RLock()
	grid := s.grid
	if grid != nil {
		grid = grid.Clone()
	}
	s.mu.RUnlock()

	if grid == nil {
		return s.fail("No mesh to save", ErrNothingToSave)
	}
	if err := grid.Save(path); err != nil {
		return s.fail("Error saving mesh", classify(err))
	}
	s.setStatus("Mesh saved to: "+path, nil)
	return nil
}

// LoadMesh replaces the mesh with the one stored at path and recomputes the
// output. An image must be loaded first.
func (s *Session) LoadMesh(path string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.loadMesh(path)
}

func (s *Session) loadMesh(path string) error {
	src := s.sourceLayer()
	if src == nil {
		return s.fail("Load an image first", ErrNoImageLoaded)
	}

	grid, err := mesh.Load(path, src.Height(), src.Width())
	if err != nil {
		return s.fail("Error loading mesh", classify(err))
	}

	s.mu.Lock()
	s.grid = grid
	w, h := s.outWidth, s.outHeight
	s.mu.Unlock()

	s.setState(StateMeshEdited)
	s.emitMesh()
	if err := s.recompute(w, h); err != nil {
		return err
	}
	s.report("Mesh loaded from: " + path)
	return nil
}

// SaveResult writes the last computed output image. The codec is chosen
// from the file extension.
func (s *Session) SaveResult(path string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.saveResult(path)
}

func (s *Session) saveResult(path string) error {
	s.mu.RLock()
	out := s.output
	s.mu.RUnlock()

	if out == nil {
		return s.fail("No result image to save", ErrNothingToSave)
	}
	if !image.IsSupportedFormat(path) {
		return s.fail("Error saving result",
			fmt.Errorf("%w: %s", image.ErrUnsupportedFormat, path))
	}
	if err := image.Save(path, out); err != nil {
		return s.fail("Error saving result", classify(err))
	}
	s.setStatus("Result image saved to: "+path, nil)
	return nil
}

// SaveMaps writes the last computed coordinate maps as an .npz archive.
func (s *Session) SaveMaps(path string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.saveMaps(path)
}

func (s *Session) saveMaps(path string) error {
	s.mu.RLock()
	m := s.maps
	s.mu.RUnlock()

	if m == nil {
		return s.fail("No maps to save", ErrNothingToSave)
	}
	if err := warp.SaveMaps(path, m); err != nil {
		return s.fail("Error saving maps", classify(err))
	}
	s.setStatus("Maps saved to: "+path, nil)
	return nil
}

// FindNearestPoint returns the control point nearest (x, y) within
// maxDistance pixels.
func (s *Session) FindNearestPoint(x, y, maxDistance float64) (mesh.Point, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.grid == nil {
		return mesh.Point{}, 0, false
	}
	return s.grid.FindNearest(x, y, maxDistance)
}

// Hover describes the pointer position over the source image and the grid
// point under it, if any, using the configured pick distance.
func (s *Session) Hover(x, y float64) string {
	p, _, ok := s.FindNearestPoint(x, y, s.cfg.PickDistance)
	if !ok {
		return fmt.Sprintf("Input: (%.1f, %.1f)", x, y)
	}
	return fmt.Sprintf("Input: (%.1f, %.1f) | Grid: (row=%d, col=%d)", x, y, p.Row, p.Col)
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns the last status message.
func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SourceImage returns a copy of the source image, or nil.
func (s *Session) SourceImage() *goimage.Gray {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.source == nil {
		return nil
	}
	return image.Clone(s.source.Image)
}

// OutputImage returns a copy of the last output image, or nil.
func (s *Session) OutputImage() *goimage.Gray {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return image.Clone(s.output)
}

// Mesh returns a snapshot of the mesh, or nil.
func (s *Session) Mesh() *mesh.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.grid == nil {
		return nil
	}
	return s.grid.Clone()
}

// Maps returns a copy of the last coordinate map, or nil.
func (s *Session) Maps() *warp.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.maps == nil {
		return nil
	}
	return s.maps.Clone()
}

// OutputSize returns the last-used output size.
func (s *Session) OutputSize() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outWidth, s.outHeight
}

func (s *Session) sourceLayer() *image.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *Session) emitMesh() {
	s.Emit(EventMeshChanged, MeshEvent{Mesh: s.Mesh()})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		s.Emit(EventStateChanged, state)
	}
}

func (s *Session) setStatus(msg string, err error) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
	s.Emit(EventStatus, StatusEvent{Message: msg, Err: err})
}

// fail reports err on the status channel and returns it. Sentinel-only
// failures use msg alone; others append the error text.
func (s *Session) fail(msg string, err error) error {
	text := msg
	if err != ErrNoImageLoaded && err != ErrNothingToSave {
		text = msg + ": " + err.Error()
	}
	logger().Debug("command failed", "status", text)
	s.setStatus(text, err)
	return err
}
