// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Extension is the conventional project file extension.
const Extension = ".meshproj"

// File represents a mesh warp project file (.meshproj).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Paths (relative to project file)
	ImagePath  string `json:"image"`
	MeshPath   string `json:"mesh,omitempty"`
	ResultPath string `json:"result,omitempty"`
	MapsPath   string `json:"maps,omitempty"`

	// Output size; zero means the source image size.
	OutputWidth  int `json:"output_width,omitempty"`
	OutputHeight int `json:"output_height,omitempty"`
}

// New creates a new project file.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
	}
}

// Load loads a project from a .meshproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage sets the image path (relative to project).
func (p *File) SetImage(projectPath, imagePath string) {
	p.ImagePath = relativeTo(projectPath, imagePath)
	p.Modified = time.Now()
}

// SetMesh sets the mesh path (relative to project).
func (p *File) SetMesh(projectPath, meshPath string) {
	p.MeshPath = relativeTo(projectPath, meshPath)
	p.Modified = time.Now()
}

// SetResult sets the result image path (relative to project).
func (p *File) SetResult(projectPath, resultPath string) {
	p.ResultPath = relativeTo(projectPath, resultPath)
	p.Modified = time.Now()
}

// SetMaps sets the coordinate map archive path (relative to project).
func (p *File) SetMaps(projectPath, mapsPath string) {
	p.MapsPath = relativeTo(projectPath, mapsPath)
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the source image.
func (p *File) GetImagePath(projectPath string) string {
	return resolve(projectPath, p.ImagePath)
}

// GetMeshPath returns the path to the mesh file.
func (p *File) GetMeshPath(projectPath string) string {
	if p.MeshPath == "" {
		// Default: project_name_mesh.json
		return basePath(projectPath) + "_mesh.json"
	}
	return resolve(projectPath, p.MeshPath)
}

// GetResultPath returns the path to the result image.
func (p *File) GetResultPath(projectPath string) string {
	if p.ResultPath == "" {
		return basePath(projectPath) + "_result.png"
	}
	return resolve(projectPath, p.ResultPath)
}

// GetMapsPath returns the path to the coordinate map archive.
func (p *File) GetMapsPath(projectPath string) string {
	if p.MapsPath == "" {
		return basePath(projectPath) + "_maps.npz"
	}
	return resolve(projectPath, p.MapsPath)
}

func relativeTo(projectPath, target string) string {
	dir, err := filepath.Abs(filepath.Dir(projectPath))
	if err != nil {
		return target
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return target
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return abs
	}
	return rel
}

func resolve(projectPath, rel string) string {
	if rel == "" {
		return ""
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(filepath.Dir(projectPath), rel)
}

func basePath(projectPath string) string {
	return strings.TrimSuffix(projectPath, filepath.Ext(projectPath))
}
