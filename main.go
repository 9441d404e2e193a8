// Package main provides the interactive mesh warp editor. It reads commands
// from standard input and drives a session the way a pointer-driven editor
// would: pick a point, drag it, release to recompute.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"mesh-warp/internal/app"
	"mesh-warp/internal/cvwarp"
	"mesh-warp/internal/image"
	"mesh-warp/internal/mesh"
	"mesh-warp/internal/overlay"
	"mesh-warp/internal/prefs"
	"mesh-warp/internal/project"
	"mesh-warp/internal/version"
)

const appTitle = "Mesh Warp"

const helpText = `Commands:
  open <image>            load a source image
  project <file>          load a .meshproj project
  save-project <file>     save a .meshproj project
  grid <rows> <cols>      rebuild the mesh
  pick <x> <y>            select the nearest control point
  drag <x> <y>            move the selected point
  release                 recompute the output
  move <r> <c> <x> <y>    move a point and recompute
  hover <x> <y>           describe the position
  size <w> <h>            change the output size
  load-mesh <file>        load mesh JSON
  save-mesh <file>        save mesh JSON
  save <file>             save the result image
  save-maps <file>        save coordinate maps (.npz)
  overlay <file> [zoom]   save the source with the mesh drawn on it
  watch <file>            reload mesh JSON when it changes
  points                  list control points
  folds                   list folded cells
  state                   print session state
  prefs                   store current grid settings as defaults
  help                    show this text
  quit                    exit`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log.Printf("Starting %s v%s", appTitle, version.Version)
	if *verbose {
		app.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	appPrefs := prefs.Load()
	cfg := app.ConfigFromPrefs(appPrefs)

	var opts []app.Option
	if cfg.Backend == app.BackendOpenCV {
		opts = append(opts, app.WithRemapper(cvwarp.Remapper{}))
	}
	session := app.NewSession(cfg, opts...)

	ed := &editor{session: session, prefs: appPrefs, out: os.Stdout}
	ed.subscribe()

	// Handle command line arguments
	if flag.NArg() > 0 {
		arg := flag.Arg(0)
		var err error
		if strings.HasSuffix(arg, project.Extension) {
			err = session.LoadProject(arg)
		} else {
			err = session.LoadImage(arg)
		}
		if err != nil {
			log.Printf("Failed to open %s: %v", arg, err)
		}
	}

	ed.run(os.Stdin)
	ed.close()
}

// editor maps text commands onto session commands.
type editor struct {
	session  *app.Session
	prefs    *prefs.Prefs
	out      io.Writer
	selected *mesh.Point
	watcher  *app.FileWatcher
}

func (e *editor) subscribe() {
	e.session.On(app.EventStatus, func(data interface{}) {
		fmt.Fprintln(e.out, data.(app.StatusEvent).Message)
	})
	e.session.On(app.EventStateChanged, func(data interface{}) {
		log.Printf("State: %s", data.(app.State))
	})
	e.session.On(app.EventOutputChanged, func(data interface{}) {
		ev := data.(app.OutputEvent)
		log.Printf("Output updated (%dx%d)", ev.Width, ev.Height)
	})
	e.session.On(app.EventImageChanged, func(interface{}) {
		e.selected = nil
	})
}

func (e *editor) run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	fmt.Fprint(e.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return
		}
		if line != "" {
			if err := e.exec(strings.Fields(line)); err != nil {
				log.Printf("%v", err)
			}
		}
		fmt.Fprint(e.out, "> ")
	}
}

func (e *editor) close() {
	if e.watcher != nil {
		e.watcher.Stop()
	}
}

// exec runs one command. Session failures are already reported on the
// status channel, so only argument errors are returned.
func (e *editor) exec(args []string) error {
	s := e.session
	cmd, args := args[0], args[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(e.out, helpText)
	case "open":
		if len(args) != 1 {
			return usage(cmd, "<image>")
		}
		_ = s.LoadImage(args[0])
	case "project":
		if len(args) != 1 {
			return usage(cmd, "<file>")
		}
		_ = s.LoadProject(args[0])
	case "save-project":
		if len(args) != 1 {
			return usage(cmd, "<file>")
		}
		_ = s.SaveProject(args[0])
	case "grid":
		n, err := ints(args, 2)
		if err != nil {
			return usage(cmd, "<rows> <cols>")
		}
		e.selected = nil
		_ = s.ResizeGrid(n[0], n[1])
	case "pick":
		f, err := floats(args, 2)
		if err != nil {
			return usage(cmd, "<x> <y>")
		}
		p, dist, ok := s.FindNearestPoint(f[0], f[1], s.Config().PickDistance)
		if !ok {
			e.selected = nil
			fmt.Fprintln(e.out, "No point within reach")
			return nil
		}
		e.selected = &p
		fmt.Fprintf(e.out, "Selected point (%d, %d) at %.1f px\n", p.Row, p.Col, dist)
	case "drag":
		f, err := floats(args, 2)
		if err != nil {
			return usage(cmd, "<x> <y>")
		}
		if e.selected == nil {
			return fmt.Errorf("no point selected")
		}
		_ = s.MovePoint(e.selected.Row, e.selected.Col, f[0], f[1])
	case "release":
		e.selected = nil
		_ = s.UpdateOutput()
	case "move":
		if len(args) != 4 {
			return usage(cmd, "<r> <c> <x> <y>")
		}
		n, err := ints(args[:2], 2)
		if err != nil {
			return usage(cmd, "<r> <c> <x> <y>")
		}
		f, err := floats(args[2:], 2)
		if err != nil {
			return usage(cmd, "<r> <c> <x> <y>")
		}
		if s.MovePoint(n[0], n[1], f[0], f[1]) == nil {
			_ = s.UpdateOutput()
		}
	case "hover":
		f, err := floats(args, 2)
		if err != nil {
			return usage(cmd, "<x> <y>")
		}
		fmt.Fprintln(e.out, s.Hover(f[0], f[1]))
	case "size":
		n, err := ints(args, 2)
		if err != nil {
			return usage(cmd, "<w> <h>")
		}
		_ = s.UpdateOutputSize(n[0], n[1])
	case "load-mesh":
		if len(args) != 1 {
			return usage(cmd, "<file>")
		}
		_ = s.LoadMesh(args[0])
	case "save-mesh":
		if len(args) != 1 {
			return usage(cmd, "<file>")
		}
		_ = s.SaveMesh(args[0])
	case "save":
		if len(args) != 1 {
			return usage(cmd, "<file>")
		}
		_ = s.SaveResult(args[0])
	case "save-maps":
		if len(args) != 1 {
			return usage(cmd, "<file>")
		}
		_ = s.SaveMaps(args[0])
	case "overlay":
		return e.overlay(args)
	case "watch":
		if len(args) != 1 {
			return usage(cmd, "<file>")
		}
		e.close()
		w, err := s.WatchMesh(args[0], time.Second)
		if err != nil {
			return err
		}
		e.watcher = w
		fmt.Fprintf(e.out, "Watching %s\n", w.Path())
	case "points":
		g := s.Mesh()
		if g == nil {
			return app.ErrNoImageLoaded
		}
		for _, p := range g.Points() {
			fmt.Fprintf(e.out, "(%d, %d) %.1f, %.1f\n", p.Row, p.Col, p.X, p.Y)
		}
	case "folds":
		g := s.Mesh()
		if g == nil {
			return app.ErrNoImageLoaded
		}
		folds := g.Folds()
		if len(folds) == 0 {
			fmt.Fprintln(e.out, "No folded cells")
		}
		for _, c := range folds {
			fmt.Fprintf(e.out, "Folded cell (%d, %d)\n", c.Row, c.Col)
		}
	case "state":
		w, h := s.OutputSize()
		fmt.Fprintf(e.out, "%s, output %dx%d\n", s.State(), w, h)
	case "prefs":
		cfg := s.Config()
		if g := s.Mesh(); g != nil {
			cfg.Rows, cfg.Cols = g.Rows(), g.Cols()
		}
		cfg.Store(e.prefs)
		if err := e.prefs.Save(); err != nil {
			return fmt.Errorf("saving preferences: %w", err)
		}
		fmt.Fprintf(e.out, "Preferences saved to %s\n", e.prefs.Path())
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (e *editor) overlay(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("overlay", "<file> [zoom]")
	}
	zoom := 1.0
	if len(args) == 2 {
		f, err := floats(args[1:], 1)
		if err != nil {
			return usage("overlay", "<file> [zoom]")
		}
		zoom = f[0]
	}
	src := e.session.SourceImage()
	if src == nil {
		return app.ErrNoImageLoaded
	}
	img, err := overlay.Render(src, e.session.Mesh(), overlay.Options{
		Style:    overlay.DefaultStyle(),
		Zoom:     zoom,
		Selected: e.selected,
	})
	if err != nil {
		return err
	}
	if err := image.Save(args[0], img); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Overlay saved to: "+args[0])
	return nil
}

func usage(cmd, args string) error {
	return fmt.Errorf("usage: %s %s", cmd, args)
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d arguments", n)
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func floats(args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d arguments", n)
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
