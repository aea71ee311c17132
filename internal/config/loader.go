package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed files return an error.
//
// When Root is not set, it defaults to the directory of the project config.
// A relative Root is anchored there too.
func Load(globalPath, projectPath string) (*PipelineConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, errors.Wrap(err, "loading global config")
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, errors.Wrap(err, "loading project config")
		}

		base, err := filepath.Abs(filepath.Dir(projectPath))
		if err != nil {
			return nil, errors.Wrapf(err, "resolving directory of %s", projectPath)
		}
		if cfg.Root == "" {
			cfg.Root = base
		} else {
			cfg.Root = ResolvePath(base, cfg.Root)
		}
	}

	return cfg, nil
}

// DefaultGlobalPath returns ~/.adrg/config.yaml.
func DefaultGlobalPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting home directory")
	}
	return filepath.Join(homeDir, ".adrg", "config.yaml"), nil
}

// mergeConfigFile decodes a JSON or YAML file and merges it into base.
// Non-empty fields override. Map entries (agents, collaborators) replace the
// entry with the same key whole.
func mergeConfigFile(base *PipelineConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	loaded, err := decode(path, data)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	// Maps are merged by hand so a partial entry never inherits stale fields.
	agents, collaborators := loaded.Agents, loaded.Collaborators
	loaded.Agents, loaded.Collaborators = nil, nil

	if err := mergo.Merge(base, loaded, mergo.WithOverride); err != nil {
		return errors.Wrapf(err, "merging %s", path)
	}

	if base.Agents == nil {
		base.Agents = make(map[string]AgentConfig)
	}
	for key, agent := range agents {
		base.Agents[key] = agent
	}
	if base.Collaborators == nil {
		base.Collaborators = make(map[string]CollaboratorConfig)
	}
	for key, c := range collaborators {
		base.Collaborators[key] = c
	}

	return nil
}

func decode(path string, data []byte) (*PipelineConfig, error) {
	var loaded PipelineConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, err
		}
	}
	return &loaded, nil
}

// ResolvePath expands a leading ~ and anchors relative paths at root.
// An empty path stays empty.
func ResolvePath(root, p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return filepath.Clean(p)
}

// Resolve anchors p at c.Root.
func (c *PipelineConfig) Resolve(p string) string {
	return ResolvePath(c.Root, p)
}
