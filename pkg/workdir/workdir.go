// Package workdir encapsulates all path knowledge for a pixel workspace. A
// workspace holds job configs in prompts/, template bodies in
// prompt_templates/ and generated artifacts in outputs/.
package workdir

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is a value object that resolves paths within a workspace.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Root returns the absolute path to the workspace.
func (d Dir) Root() string { return d.root }

// PromptsDir returns the directory holding job configs.
func (d Dir) PromptsDir() string { return filepath.Join(d.root, "prompts") }

// TemplatesDir returns the directory holding template bodies.
func (d Dir) TemplatesDir() string { return filepath.Join(d.root, "prompt_templates") }

// OutputsDir returns the directory artifacts are written to.
func (d Dir) OutputsDir() string { return filepath.Join(d.root, "outputs") }

// GitignorePath returns the path to the workspace .gitignore file.
func (d Dir) GitignorePath() string { return filepath.Join(d.root, ".gitignore") }

// JobConfigPath returns the path of the job config with the given extension
// (including the leading dot).
func (d Dir) JobConfigPath(id, ext string) string {
	return filepath.Join(d.PromptsDir(), id+ext)
}

// Jobs returns the sorted ids of all job configs in prompts/. Returns nil if
// the directory does not exist.
func (d Dir) Jobs() []string {
	entries, err := os.ReadDir(d.PromptsDir())
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var ids []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		ext := filepath.Ext(e.Name())
		switch ext {
		case ".json", ".yaml", ".yml", ".toml":
		default:
			continue
		}

		id := strings.TrimSuffix(e.Name(), ext)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Exists reports whether the workspace root exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}
