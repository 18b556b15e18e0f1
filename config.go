package sinceupdater

import (
	"os"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const DefaultSummaryPath = "/tmp/since-tags-summary.md"

type Config struct {
	Tag             string   `yaml:"tag"`
	Keywords        []string `yaml:"keywords"`
	Marker          string   `yaml:"marker"`
	Pattern         string   `yaml:"pattern"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	SummaryPath     string   `yaml:"summary_path"`
	StrictSemver    bool     `yaml:"strict_semver"`
}

func DefaultConfig() *Config {
	return &Config{
		Tag:      "@since",
		Keywords: []string{"todo", "next-version", "tbd"},
		Marker:   "@next-version",
		Pattern:  "**/*.php",
		ExcludeDirs: []string{
			"node_modules",
			"vendor",
			"phpcs",
			".github",
			".wordpress-org",
			"bin",
			"build",
			"docker",
			"img",
			"phpstan",
			"docs",
		},
		SummaryPath: DefaultSummaryPath,
	}
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Errorf("%w: failed to parse config %s: %s", ErrConfiguration, path, err.Error())
	}

	return config, nil
}
