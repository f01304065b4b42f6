package workdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const gitignoreContent = "outputs/\n.env\n"

// EnsureStructure creates prompts/, prompt_templates/ and outputs/ plus a
// .gitignore if they are missing. It is safe to call multiple times
// (idempotent).
func EnsureStructure(d Dir) error {
	for _, dir := range []string{d.PromptsDir(), d.TemplatesDir(), d.OutputsDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("workdir: create %s: %w", filepath.Base(dir), err)
		}
	}

	if err := ensureGitignore(d); err != nil {
		return fmt.Errorf("workdir: gitignore: %w", err)
	}

	return nil
}

// ensureGitignore creates the .gitignore file if it does not exist.
func ensureGitignore(d Dir) error {
	path := d.GitignorePath()

	if _, err := os.Stat(path); err == nil {
		return nil // already exists
	}

	return os.WriteFile(path, []byte(gitignoreContent), 0o600)
}

// Sample describes a job to scaffold.
type Sample struct {
	Job          string
	TemplateFile string
	TemplateBody string
	Variables    map[string]any
}

// DefaultSample is the job written by Bootstrap when none is given.
var DefaultSample = Sample{
	Job:          "welcome",
	TemplateFile: "welcome.j2",
	TemplateBody: "Write a short, warm welcome note for {{ name }}, who just joined the team.\n",
	Variables:    map[string]any{"name": "Jordan"},
}

// Bootstrap ensures the workspace layout and writes the sample job config
// and template. Existing files are never overwritten; the returned paths
// list only what was created.
func Bootstrap(d Dir, s Sample) ([]string, error) {
	if err := EnsureStructure(d); err != nil {
		return nil, err
	}

	cfg := map[string]any{
		"template_file": s.TemplateFile,
		"variables":     s.Variables,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("workdir: marshal job %q: %w", s.Job, err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{d.JobConfigPath(s.Job, ".json"), append(data, '\n')},
		{filepath.Join(d.TemplatesDir(), s.TemplateFile), []byte(s.TemplateBody)},
	}

	var created []string

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}

		if err := os.WriteFile(f.path, f.data, 0o600); err != nil {
			return created, fmt.Errorf("workdir: write %s: %w", f.path, err)
		}

		created = append(created, f.path)
	}

	return created, nil
}
