package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/workdir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Extensions lists the config formats in lookup order.
var Extensions = []string{".json", ".yaml", ".yml", ".toml"}

// Resolver locates job configs inside a workspace.
type Resolver struct {
	Dir workdir.Dir
}

// NewResolver creates a Resolver reading from d's prompts/ directory.
func NewResolver(d workdir.Dir) *Resolver {
	return &Resolver{Dir: d}
}

// Resolve loads, parses and validates the config of job id. The first
// existing file among prompts/{id}.json, .yaml, .yml, .toml wins.
func (r *Resolver) Resolve(id string) (Config, error) {
	if strings.TrimSpace(id) == "" {
		return Config{}, errors.WithHint(
			errors.NewKind(errors.ErrConfigInvalid, "job id is required"),
			"pass a job id or export FILENAME",
		)
	}

	if id != filepath.Base(id) || id == "." || strings.Contains(id, "..") {
		return Config{}, errors.NewKind(errors.ErrConfigInvalid, "job id %q must be a plain name", id)
	}

	var searched []string

	for _, ext := range Extensions {
		path := r.Dir.JobConfigPath(id, ext)

		data, err := os.ReadFile(path) //nolint:gosec // path is built from the workspace root and a plain job id
		if errors.Is(err, os.ErrNotExist) {
			searched = append(searched, path)
			continue
		}
		if err != nil {
			return Config{}, errors.WrapKind(err, errors.ErrConfigInvalid, "job %q: read %s", id, path)
		}

		cfg, err := Parse(path, data)
		if err != nil {
			return Config{}, errors.Wrapf(err, "job %q", id)
		}

		cfg.ID = id
		cfg.Source = path

		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}

		return cfg, nil
	}

	err := errors.WithDetailf(
		errors.NewKind(errors.ErrConfigNotFound, "no config for job %q", id),
		"searched: %s", strings.Join(searched, ", "),
	)

	return Config{}, errors.WithHint(err, r.notFoundHint())
}

func (r *Resolver) notFoundHint() string {
	if !r.Dir.Exists() {
		return fmt.Sprintf("workspace %s does not exist; pass --root or run `pixel init`", r.Dir.Root())
	}

	jobs := r.Dir.Jobs()
	if len(jobs) == 0 {
		return "prompts/ has no job configs; run `pixel init` to create a sample"
	}

	return "available jobs: " + strings.Join(jobs, ", ")
}

// Parse decodes a config by file extension and applies defaults. It does not
// validate.
func Parse(path string, data []byte) (Config, error) {
	var cfg Config

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.WrapKind(err, errors.ErrConfigInvalid, "parse %s", path)
		}
		if cfg.Variables != nil {
			cfg.Variables = normalizeNumbers(cfg.Variables).(map[string]any)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.WrapKind(err, errors.ErrConfigInvalid, "parse %s", path)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.WrapKind(err, errors.ErrConfigInvalid, "parse %s", path)
		}
	default:
		return Config{}, errors.NewKind(errors.ErrConfigInvalid, "unsupported config format %q", ext)
	}

	cfg.applyDefaults()

	return cfg, nil
}

// normalizeNumbers replaces json.Number values with int64, or float64 when
// the number is not integral, so JSON variables carry the same types as the
// YAML and TOML decoders produce.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}
