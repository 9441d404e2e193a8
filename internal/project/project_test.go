package project

import (
	"path/filepath"
	"testing"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "demo"+Extension)

	p := New("demo")
	p.SetImage(projPath, filepath.Join(dir, "images", "face.png"))
	p.OutputWidth, p.OutputHeight = 320, 200
	if err := p.Save(projPath); err != nil {
		t.Fatal(err)
	}

	got, err := Load(projPath)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "demo" || got.Version != 1 {
		t.Errorf("got %+v", got)
	}
	if got.ImagePath != filepath.Join("images", "face.png") {
		t.Errorf("ImagePath = %q, want relative", got.ImagePath)
	}
	if want := filepath.Join(dir, "images", "face.png"); got.GetImagePath(projPath) != want {
		t.Errorf("GetImagePath = %q, want %q", got.GetImagePath(projPath), want)
	}
	if got.OutputWidth != 320 || got.OutputHeight != 200 {
		t.Errorf("output = %dx%d", got.OutputWidth, got.OutputHeight)
	}
}

func TestDefaultPaths(t *testing.T) {
	projPath := filepath.Join("work", "demo.meshproj")
	p := New("demo")

	if got, want := p.GetMeshPath(projPath), filepath.Join("work", "demo_mesh.json"); got != want {
		t.Errorf("GetMeshPath = %q, want %q", got, want)
	}
	if got, want := p.GetResultPath(projPath), filepath.Join("work", "demo_result.png"); got != want {
		t.Errorf("GetResultPath = %q, want %q", got, want)
	}
	if got, want := p.GetMapsPath(projPath), filepath.Join("work", "demo_maps.npz"); got != want {
		t.Errorf("GetMapsPath = %q, want %q", got, want)
	}
	if got := p.GetImagePath(projPath); got != "" {
		t.Errorf("GetImagePath = %q, want empty", got)
	}
}

func TestExplicitPaths(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "demo.meshproj")
	p := New("demo")
	p.SetMesh(projPath, filepath.Join(dir, "meshes", "m.json"))
	p.SetResult(projPath, filepath.Join(dir, "out.png"))
	p.SetMaps(projPath, filepath.Join(dir, "out.npz"))

	if got := p.GetMeshPath(projPath); got != filepath.Join(dir, "meshes", "m.json") {
		t.Errorf("GetMeshPath = %q", got)
	}
	if got := p.GetResultPath(projPath); got != filepath.Join(dir, "out.png") {
		t.Errorf("GetResultPath = %q", got)
	}
	if got := p.GetMapsPath(projPath); got != filepath.Join(dir, "out.npz") {
		t.Errorf("GetMapsPath = %q", got)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.meshproj")); err == nil {
		t.Error("expected error")
	}
}
