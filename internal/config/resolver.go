// Package config resolves pricer settings from a YAML file, environment
// variables, and CLI flags, with CLI winning over env winning over file.
// Each resolved value remembers where it came from so `pricer config` style
// debugging can say why a setting has the value it has.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath  string
	CLIDBPath   string
	CLIVocab    string
	CLIModelDir string
	CLILogLevel string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath      ResolvedValue `json:"db_path"`
	VocabPath   ResolvedValue `json:"vocab_path"`
	ModelDir    ResolvedValue `json:"model_dir"`
	ONNXLibPath ResolvedValue `json:"onnx_lib_path"`
	LogLevel    ResolvedValue `json:"log_level"`
}

type fileConfig struct {
	DBPath    string `yaml:"db_path"`
	VocabPath string `yaml:"vocab_path"`
	Models    struct {
		Dir         string `yaml:"dir"`
		ONNXLibPath string `yaml:"onnx_lib_path"`
	} `yaml:"models"`
	LogLevel string `yaml:"log_level"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ezsell", "pricer.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.VocabPath, cfg.VocabPath, SourceConfig, path)
		apply(&out.ModelDir, cfg.Models.Dir, SourceConfig, path)
		apply(&out.ONNXLibPath, cfg.Models.ONNXLibPath, SourceConfig, path)
		apply(&out.LogLevel, cfg.LogLevel, SourceConfig, path)
	}

	applyEnv(&out.DBPath, "PRICER_DB")
	applyEnv(&out.VocabPath, "PRICER_VOCAB")
	applyEnv(&out.ModelDir, "PRICER_MODEL_DIR")
	applyEnv(&out.ONNXLibPath, "ONNXRUNTIME_SHARED_LIBRARY_PATH")
	applyEnv(&out.LogLevel, "PRICER_LOG_LEVEL")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.VocabPath, opts.CLIVocab, SourceCLI, "--vocab")
	apply(&out.ModelDir, opts.CLIModelDir, SourceCLI, "--models")
	apply(&out.LogLevel, opts.CLILogLevel, SourceCLI, "--log-level")

	if out.LogLevel.Value == "" {
		out.LogLevel = ResolvedValue{Value: "info", Source: SourceDefault, From: "built-in default"}
	}

	for _, v := range []*ResolvedValue{&out.DBPath, &out.VocabPath, &out.ModelDir} {
		if v.Value != "" {
			v.Value = expandUserPath(v.Value)
		}
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
