package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mesh-warp/internal/project"
)

// SaveProject writes a project file at path referencing the source image,
// and saves the mesh, result image and coordinate maps next to it.
func (s *Session) SaveProject(path string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	src := s.sourceLayer()
	if src == nil {
		return s.fail("Load an image first", ErrNoImageLoaded)
	}
	if src.Path == "" {
		return s.fail("Error saving project", fmt.Errorf("source image was not loaded from a file"))
	}

	proj := project.New(projectName(path))
	s.mu.RLock()
	if s.projectPath != "" {
		if existing, err := project.Load(s.projectPath); err == nil {
			proj.Created = existing.Created
			proj.Name = existing.Name
		}
	}
	proj.OutputWidth, proj.OutputHeight = s.outWidth, s.outHeight
	s.mu.RUnlock()

	proj.SetImage(path, src.Path)
	meshPath := proj.GetMeshPath(path)
	proj.SetMesh(path, meshPath)

	if err := s.saveMesh(meshPath); err != nil {
		return err
	}

	s.mu.RLock()
	computed := s.output != nil
	s.mu.RUnlock()
	if computed {
		resultPath, mapsPath := proj.GetResultPath(path), proj.GetMapsPath(path)
		if err := s.saveResult(resultPath); err != nil {
			return err
		}
		if err := s.saveMaps(mapsPath); err != nil {
			return err
		}
		proj.SetResult(path, resultPath)
		proj.SetMaps(path, mapsPath)
	}
	if err := proj.Save(path); err != nil {
		return s.fail("Error saving project", classify(err))
	}

	s.mu.Lock()
	s.projectPath = path
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	s.setStatus("Project saved to: "+path, nil)
	return nil
}

// LoadProject loads the project's image, its mesh if present, and restores
// the output size.
func (s *Session) LoadProject(path string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	proj, err := project.Load(path)
	if err != nil {
		return s.fail("Error loading project", classify(err))
	}
	if proj.ImagePath == "" {
		return s.fail("Error loading project", fmt.Errorf("project has no image"))
	}

	if err := s.loadImage(proj.GetImagePath(path)); err != nil {
		return err
	}

	meshPath := proj.GetMeshPath(path)
	if _, err := os.Stat(meshPath); err == nil {
		if err := s.loadMesh(meshPath); err != nil {
			return err
		}
	}

	if proj.OutputWidth > 0 && proj.OutputHeight > 0 {
		w, h := s.OutputSize()
		if w != proj.OutputWidth || h != proj.OutputHeight {
			if err := s.recompute(proj.OutputWidth, proj.OutputHeight); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	s.projectPath = path
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, path)
	s.report("Project loaded from: " + path)
	return nil
}

// ProjectPath returns the path of the last saved or loaded project.
func (s *Session) ProjectPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectPath
}

func projectName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), project.Extension)
}
