package sinceupdater

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/mod/semver"
)

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([\w.-]+))?$`)

type Validator interface {
	ValidateVersion(version string) error
	CheckVersion(version string) *VersionValidation
	ValidatePath(path string) error
	ValidateConfig(config *Config) error
}

type DefaultValidator struct {
	config *Config
}

func NewDefaultValidator(config *Config) *DefaultValidator {
	return &DefaultValidator{
		config: config,
	}
}

// ValidateVersion is the pre-flight check for a release version. Every failure
// wraps ErrConfiguration.
func (v *DefaultValidator) ValidateVersion(version string) error {
	if version == "" {
		return errors.Errorf("%w: version argument is required", ErrConfiguration)
	}

	if !versionPattern.MatchString(version) {
		return errors.WithDetails(
			errors.Errorf("%w: invalid version format. Expected format: x.y.z or x.y.z-beta.n", ErrConfiguration),
			"version", version,
		)
	}

	if v.config.StrictSemver && !semver.IsValid("v"+version) {
		return errors.WithDetails(
			errors.Errorf("%w: version %s is not valid semantic versioning", ErrConfiguration, version),
			"version", version,
		)
	}

	return nil
}

func (v *DefaultValidator) CheckVersion(version string) *VersionValidation {
	result := &VersionValidation{
		Version:     version,
		IsValid:     true,
		Issues:      []string{},
		Suggestions: []string{},
	}

	clean := strings.TrimSpace(version)
	if clean == "" {
		result.IsValid = false
		result.Issues = append(result.Issues, "Version cannot be empty")
		return result
	}

	if clean != version {
		result.IsValid = false
		result.Issues = append(result.Issues, "Version contains surrounding whitespace")
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("Suggested: %s", clean))
	}

	match := versionPattern.FindStringSubmatch(clean)
	if match == nil {
		result.IsValid = false
		result.Issues = append(result.Issues, "Version must match x.y.z or x.y.z-prerelease")

		trimmed := strings.TrimPrefix(strings.TrimPrefix(clean, "v"), "V")
		if trimmed != clean && versionPattern.MatchString(trimmed) {
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("Suggested: %s", trimmed))
		} else if parts := strings.Split(trimmed, "."); len(parts) < 3 && allDigits(parts) {
			for len(parts) < 3 {
				parts = append(parts, "0")
			}
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("Suggested: %s", strings.Join(parts, ".")))
		}
		return result
	}

	result.Prerelease = match[4]

	if !semver.IsValid("v" + clean) {
		if v.config.StrictSemver {
			result.IsValid = false
			result.Issues = append(result.Issues, "Version is not valid semantic versioning")
		} else {
			result.Suggestions = append(result.Suggestions, "Version is accepted but is not strict semantic versioning")
		}
	}

	return result
}

func (v *DefaultValidator) ValidatePath(path string) error {
	if path == "" {
		return errors.Errorf("%w: path cannot be empty", ErrConfiguration)
	}

	if !filepath.IsAbs(path) {
		return errors.Errorf("%w: path must be absolute", ErrConfiguration)
	}

	for _, segment := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if segment == ".." {
			return errors.Errorf("%w: path contains directory traversal", ErrConfiguration)
		}
	}

	return nil
}

func (v *DefaultValidator) ValidateConfig(config *Config) error {
	if config == nil {
		return errors.Errorf("%w: config cannot be nil", ErrConfiguration)
	}

	if strings.TrimSpace(config.Tag) == "" {
		return errors.Errorf("%w: tag cannot be empty", ErrConfiguration)
	}

	if strings.TrimSpace(config.Marker) == "" {
		return errors.Errorf("%w: marker cannot be empty", ErrConfiguration)
	}

	if len(config.Keywords) == 0 {
		return errors.Errorf("%w: keywords cannot be empty", ErrConfiguration)
	}

	for _, keyword := range config.Keywords {
		if strings.TrimSpace(keyword) == "" {
			return errors.Errorf("%w: keywords cannot contain an empty entry", ErrConfiguration)
		}
	}

	if config.Pattern == "" {
		return errors.Errorf("%w: pattern cannot be empty", ErrConfiguration)
	}

	if !doublestar.ValidatePattern(config.Pattern) {
		return errors.Errorf("%w: invalid pattern %q", ErrConfiguration, config.Pattern)
	}

	for _, pattern := range config.ExcludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("%w: invalid exclude pattern %q", ErrConfiguration, pattern)
		}
	}

	return nil
}

func allDigits(parts []string) bool {
	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	return true
}
