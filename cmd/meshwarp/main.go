// Command meshwarp warps an image through a control mesh without the
// interactive editor. It loads an image, optionally a mesh and point moves,
// and writes the result, the coordinate maps and a mesh overlay.
package main

import (
	"flag"
	"fmt"
	goimage "image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"mesh-warp/internal/app"
	"mesh-warp/internal/cvwarp"
	"mesh-warp/internal/image"
	"mesh-warp/internal/overlay"
	"mesh-warp/internal/prefs"
	"mesh-warp/internal/version"
	"mesh-warp/internal/warp"
	"mesh-warp/pkg/colorutil"
)

// moveList collects repeated -move flags.
type moveList []move

type move struct {
	row, col int
	x, y     float64
}

func (m *moveList) String() string {
	parts := make([]string, len(*m))
	for i, mv := range *m {
		parts[i] = fmt.Sprintf("%d,%d,%g,%g", mv.row, mv.col, mv.x, mv.y)
	}
	return strings.Join(parts, " ")
}

func (m *moveList) Set(s string) error {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return fmt.Errorf("want row,col,x,y, got %q", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return fmt.Errorf("row: %w", err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return fmt.Errorf("col: %w", err)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}
	*m = append(*m, move{row: row, col: col, x: x, y: y})
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := app.ConfigFromPrefs(prefs.Load())

	imagePath := flag.String("i", "", "Source image (PNG, JPEG, BMP or TIFF)")
	meshPath := flag.String("m", "", "Mesh JSON to load")
	outPath := flag.String("o", "", "Write the warped image here")
	mapsPath := flag.String("maps", "", "Write coordinate maps (.npz) here")
	applyMaps := flag.String("apply-maps", "", "Warp with a saved .npz map instead of a mesh")
	saveMesh := flag.String("save-mesh", "", "Write the final mesh JSON here")
	overlayPath := flag.String("overlay", "", "Write the source image with the mesh drawn on it")
	zoom := flag.Float64("zoom", 1, "Overlay zoom")
	lineColor := flag.String("line-color", "blue", "Overlay line color")
	diffPath := flag.String("diff", "", "Write a source/result composite here")
	diffMode := flag.String("diff-mode", "difference", "Composite blend mode, or side-by-side")
	rows := flag.Int("rows", cfg.Rows, "Mesh cell rows")
	cols := flag.Int("cols", cfg.Cols, "Mesh cell columns")
	width := flag.Int("w", 0, "Output width (default: image width)")
	height := flag.Int("h", 0, "Output height (default: image height)")
	backend := flag.String("backend", cfg.Backend, "Remap backend: go or opencv")
	workers := flag.Int("workers", cfg.Workers, "Parallel row bands")
	watch := flag.Bool("watch", false, "Re-render whenever the -m mesh file changes")
	stats := flag.Bool("stats", false, "Print displacement statistics")
	verbose := flag.Bool("v", false, "Verbose logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	var moves moveList
	flag.Var(&moves, "move", "Move a point: row,col,x,y (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Println("meshwarp", version.String())
		return
	}
	if *imagePath == "" {
		fmt.Println("Usage: meshwarp -i <image> [-m mesh.json] [-move r,c,x,y]... [-o out.png] [-maps maps.npz]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *verbose {
		app.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *applyMaps != "" {
		if err := runApplyMaps(*imagePath, *applyMaps, *outPath, *backend, *workers); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to apply maps: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg.Rows, cfg.Cols = *rows, *cols
	cfg.Backend = *backend
	cfg.Workers = *workers

	var opts []app.Option
	if cfg.Backend == app.BackendOpenCV {
		opts = append(opts, app.WithRemapper(cvwarp.Remapper{}))
	}
	session := app.NewSession(cfg, opts...)
	session.On(app.EventStatus, func(data interface{}) {
		ev := data.(app.StatusEvent)
		if ev.Err != nil {
			fmt.Fprintln(os.Stderr, ev.Message)
			return
		}
		fmt.Println(ev.Message)
	})

	if err := session.LoadImage(*imagePath); err != nil {
		os.Exit(1)
	}
	if *meshPath != "" {
		if err := session.LoadMesh(*meshPath); err != nil {
			os.Exit(1)
		}
	}
	for _, mv := range moves {
		if err := session.MovePoint(mv.row, mv.col, mv.x, mv.y); err != nil {
			os.Exit(1)
		}
	}
	if *width > 0 || *height > 0 {
		w, h := session.OutputSize()
		if *width > 0 {
			w = *width
		}
		if *height > 0 {
			h = *height
		}
		if err := session.UpdateOutputSize(w, h); err != nil {
			os.Exit(1)
		}
	} else if len(moves) > 0 {
		if err := session.UpdateOutput(); err != nil {
			os.Exit(1)
		}
	}

	out := outputs{
		result:    *outPath,
		maps:      *mapsPath,
		mesh:      *saveMesh,
		overlay:   *overlayPath,
		zoom:      *zoom,
		lineColor: *lineColor,
		diff:      *diffPath,
		diffMode:  *diffMode,
		stats:     *stats,
	}
	if err := out.write(session); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if *watch {
		if *meshPath == "" {
			fmt.Fprintln(os.Stderr, "-watch needs -m")
			os.Exit(1)
		}
		runWatch(session, *meshPath, out)
	}
}

// outputs lists the files written after each render.
type outputs struct {
	result, maps, mesh, overlay string
	zoom                        float64
	lineColor                   string
	diff, diffMode              string
	stats                       bool
}

func (o outputs) write(s *app.Session) error {
	if o.result != "" {
		if err := s.SaveResult(o.result); err != nil {
			return err
		}
	}
	if o.maps != "" {
		if err := s.SaveMaps(o.maps); err != nil {
			return err
		}
	}
	if o.mesh != "" {
		if err := s.SaveMesh(o.mesh); err != nil {
			return err
		}
	}
	if o.overlay != "" {
		if err := o.writeOverlay(s); err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
	}
	if o.diff != "" {
		if err := o.writeDiff(s); err != nil {
			return fmt.Errorf("composite: %w", err)
		}
	}
	if o.stats {
		if m := s.Maps(); m != nil {
			st := m.Displacement()
			fmt.Printf("Displacement: mean %.2f px, stddev %.2f px, max %.2f px\n", st.Mean, st.StdDev, st.Max)
		}
		if folds := s.Mesh().Folds(); len(folds) > 0 {
			for _, c := range folds {
				fmt.Printf("  folded cell (%d, %d)\n", c.Row, c.Col)
			}
		}
	}
	return nil
}

func (o outputs) writeOverlay(s *app.Session) error {
	style := overlay.DefaultStyle()
	if c, ok := colorutil.Parse(o.lineColor); ok {
		style.LineColor = c
	} else {
		log.Printf("Unknown line color %q, using default", o.lineColor)
	}
	img, err := overlay.Render(s.SourceImage(), s.Mesh(), overlay.Options{Style: style, Zoom: o.zoom})
	if err != nil {
		return err
	}
	if err := image.Save(o.overlay, img); err != nil {
		return err
	}
	fmt.Println("Overlay saved to: " + o.overlay)
	return nil
}

func (o outputs) writeDiff(s *app.Session) error {
	src, res := s.SourceImage(), s.OutputImage()
	if res == nil {
		return app.ErrNothingToSave
	}
	var composite *goimage.Gray
	if strings.EqualFold(o.diffMode, "side-by-side") {
		composite = image.SideBySide(src, res)
	} else {
		mode, err := image.ParseBlendMode(o.diffMode)
		if err != nil {
			return err
		}
		if !src.Rect.Size().Eq(res.Rect.Size()) {
			return fmt.Errorf("%s needs output size equal to the source size", mode)
		}
		composite = image.Blend(src, res, mode, 1)
	}
	if err := image.Save(o.diff, composite); err != nil {
		return err
	}
	fmt.Println("Composite saved to: " + o.diff)
	return nil
}

// runWatch re-renders every time the mesh file changes, until interrupted.
func runWatch(s *app.Session, meshPath string, out outputs) {
	s.On(app.EventOutputChanged, func(interface{}) {
		// Listeners must not issue commands; hand off to a goroutine.
		go func() {
			if err := out.write(s); err != nil {
				log.Printf("Write failed: %v", err)
			}
		}()
	})

	w, err := s.WatchMesh(meshPath, time.Second)
	if err != nil {
		log.Fatalf("Failed to watch %s: %v", meshPath, err)
	}
	defer w.Stop()
	log.Printf("Watching %s (Ctrl-C to stop)", w.Path())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func runApplyMaps(imagePath, mapsPath, outPath, backend string, workers int) error {
	if outPath == "" {
		return fmt.Errorf("-apply-maps needs -o")
	}
	layer, err := image.Load(imagePath)
	if err != nil {
		return err
	}
	m, err := warp.LoadMaps(mapsPath)
	if err != nil {
		return err
	}

	var r warp.Remapper = warp.Bilinear{Workers: workers}
	if backend == app.BackendOpenCV {
		r = cvwarp.Remapper{}
	}
	start := time.Now()
	out, err := r.Remap(layer.Image, m)
	if err != nil {
		return err
	}
	log.Printf("Remapped %dx%d in %s", m.Width, m.Height, time.Since(start).Round(time.Millisecond))

	if err := image.Save(outPath, out); err != nil {
		return err
	}
	fmt.Println("Result image saved to: " + outPath)
	return nil
}
