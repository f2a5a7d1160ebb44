package benchmark

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ManifestFile must exist at the root of every benchmark project.
const ManifestFile = "Forc.toml"

// projectDepth is how far below the tests directory project directories live (tests/<group>/<project>).
const projectDepth = 2

var ErrInvalidProject = errors.New("invalid benchmark project")

// A Project is a benchmark discovered on disk, before it has been run.
type Project struct {
	// Terminal directory name of Path.
	Name string
	// Canonical path to the project directory.
	Path string
}

// VerifyPath checks that path is an existing directory containing the project manifest.
func VerifyPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidProject, path)
	}
	manifest, err := os.Stat(filepath.Join(path, ManifestFile))
	if err != nil || !manifest.Mode().IsRegular() {
		return fmt.Errorf("%w: project directory %q does not contain a %s file", ErrInvalidProject, path, ManifestFile)
	}
	return nil
}

// Discover returns the projects found exactly two levels below root, in lexical order. Directories without a
// manifest are skipped.
func Discover(root string) ([]*Project, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading tests directory failed: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tests path %s is not a directory", root)
	}

	root = filepath.Clean(root)
	projects := []*Project{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		depth := pathDepth(root, path)
		if depth < projectDepth {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		canonical, err := canonicalize(path)
		if err != nil {
			return fmt.Errorf("canonicalizing %s failed: %w", path, err)
		}
		if err := VerifyPath(canonical); err != nil {
			slog.Debug("skipping directory without manifest", slog.String("path", canonical))
		} else {
			projects = append(projects, &Project{Name: filepath.Base(canonical), Path: canonical})
		}
		return fs.SkipDir
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
