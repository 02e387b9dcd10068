package model

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

//go:embed artifacts/*.json
var builtinArtifacts embed.FS

// Registry holds one loaded CategoryModel per category. It is constructed
// once, eagerly, and is read-only afterwards, so concurrent lookups need no
// locking.
type Registry struct {
	models map[vocab.Category]*CategoryModel
}

// RegistryOption configures registry construction.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	dir    string
	logger zerolog.Logger
}

// WithArtifactDir loads artifacts from <dir>/<category>.json instead of the
// built-in embedded set.
func WithArtifactDir(dir string) RegistryOption {
	return func(o *registryOptions) { o.dir = dir }
}

// WithLogger attaches a logger for load-time diagnostics.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(o *registryOptions) { o.logger = logger }
}

// NewRegistry loads all category models and fails fast if any artifact is
// missing or corrupt, so configuration problems surface at process start.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	o := registryOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{models: make(map[vocab.Category]*CategoryModel, 3)}
	for _, cat := range vocab.Categories() {
		data, source, err := readArtifact(o.dir, cat)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModelNotLoaded, cat, err)
		}
		m, err := parseArtifact(data, source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModelNotLoaded, cat, err)
		}
		if m.Category != cat {
			return nil, fmt.Errorf("%w: %s: artifact %s declares category %s",
				ErrModelNotLoaded, cat, source, m.Category)
		}
		r.models[cat] = m
		o.logger.Info().
			Str("category", string(cat)).
			Str("version", m.Version).
			Int("features", len(m.Features)).
			Int("components", len(m.Components)).
			Msg("loaded category model")
	}
	return r, nil
}

// Model returns the loaded model for a category.
func (r *Registry) Model(cat vocab.Category) (*CategoryModel, error) {
	m, ok := r.models[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, cat)
	}
	return m, nil
}

// Versions reports the loaded artifact version per category.
func (r *Registry) Versions() map[vocab.Category]string {
	out := make(map[vocab.Category]string, len(r.models))
	for cat, m := range r.models {
		out[cat] = m.Version
	}
	return out
}

func readArtifact(dir string, cat vocab.Category) ([]byte, string, error) {
	if dir != "" {
		path := filepath.Join(dir, string(cat)+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		return data, path, nil
	}
	name := "artifacts/" + string(cat) + ".json"
	data, err := builtinArtifacts.ReadFile(name)
	if err != nil {
		return nil, "", err
	}
	return data, "builtin:" + name, nil
}
