package prompt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
)

// Source resolves a template reference to its body.
type Source interface {
	Load(ref string) (string, error)
}

// fallbackExtensions are tried, in order, when the bare reference is missing.
var fallbackExtensions = []string{".j2", ".jinja", ".txt", ".md"}

// DirSource reads template bodies from a directory.
type DirSource struct {
	Root string
}

// Load reads Root/ref, falling back to ref with a template extension
// appended. References resolving outside Root are treated as missing.
func (s DirSource) Load(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if ref == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.NewKind(errors.ErrTemplateNotFound, "template %q is outside %s", ref, s.Root)
	}

	candidates := []string{filepath.Join(s.Root, clean)}
	for _, ext := range fallbackExtensions {
		candidates = append(candidates, filepath.Join(s.Root, clean+ext))
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		data, err := os.ReadFile(path) //nolint:gosec // path is confined to the template root above
		if err != nil {
			return "", errors.WrapKind(err, errors.ErrTemplateNotFound, "template %q", ref)
		}

		return string(data), nil
	}

	return "", errors.WithDetailf(
		errors.NewKind(errors.ErrTemplateNotFound, "template %q not found", ref),
		"template directory: %s", s.Root,
	)
}

// MapSource serves template bodies from memory.
type MapSource map[string]string

// Load returns the body registered under ref.
func (s MapSource) Load(ref string) (string, error) {
	body, ok := s[ref]
	if !ok {
		return "", errors.NewKind(errors.ErrTemplateNotFound, "template %q not found", ref)
	}
	return body, nil
}
