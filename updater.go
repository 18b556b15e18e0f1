package sinceupdater

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

type Updater interface {
	UpdateAll(ctx context.Context, version string, rootPath string, pattern string, dryRun bool) (*BatchResult, error)
	ScanAll(ctx context.Context, rootPath string, pattern string) ([]FilePlaceholders, error)
	CheckVersion(ctx context.Context, version string) *VersionValidation
}

type DefaultUpdater struct {
	scanner    Scanner
	validator  Validator
	discoverer Discoverer
	config     *Config

	// newStore builds the FileStore for a batch root.
	newStore func(root string) FileStore
}

func NewDefaultUpdater(config *Config) (*DefaultUpdater, error) {
	validator := NewDefaultValidator(config)
	if err := validator.ValidateConfig(config); err != nil {
		return nil, err
	}

	scanner, err := NewPlaceholderScanner(config)
	if err != nil {
		return nil, errors.Errorf("failed to create scanner: %w", err)
	}

	return &DefaultUpdater{
		scanner:    scanner,
		validator:  validator,
		discoverer: NewGlobDiscoverer(config),
		config:     config,
		newStore: func(root string) FileStore {
			return NewOSFileStore(root)
		},
	}, nil
}

// WithFileStore replaces the filesystem used for reading and writing files.
func (u *DefaultUpdater) WithFileStore(newStore func(root string) FileStore) *DefaultUpdater {
	u.newStore = newStore
	return u
}

// UpdateAll validates version and rootPath, then rewrites every discovered file
// in order. A failure on one file is recorded in the result and does not stop
// the batch; only the upfront validation returns an error.
func (u *DefaultUpdater) UpdateAll(ctx context.Context, version string, rootPath string, pattern string, dryRun bool) (*BatchResult, error) {
	if err := u.validator.ValidateVersion(version); err != nil {
		return nil, errors.Errorf("error updating %s tags: %w", u.config.Tag, err)
	}

	if err := u.validator.ValidatePath(rootPath); err != nil {
		return nil, errors.Errorf("invalid root path: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	result := &BatchResult{
		Updated: []FileChange{},
		Errors:  []FileError{},
		DryRun:  dryRun,
	}

	rewriter := NewFileRewriter(u.scanner, u.newStore(rootPath))
	for _, file := range u.discoverer.Discover(ctx, rootPath, pattern) {
		change, err := rewriter.Rewrite(ctx, file, version, dryRun)
		if err != nil {
			logger.Warn().Err(err).Str("path", file).Msg("failed to update file")
			result.Errors = append(result.Errors, FileError{Path: file, Message: err.Error()})
			continue
		}

		if change.Updated {
			result.Updated = append(result.Updated, change)
			result.TotalUpdated += change.Count
		}
	}

	logger.Info().
		Str("version", version).
		Int("files", len(result.Updated)).
		Int("placeholders", result.TotalUpdated).
		Int("errors", len(result.Errors)).
		Bool("dry_run", dryRun).
		Msg("placeholder update complete")

	return result, nil
}

// ScanAll lists the discovered files that still hold placeholders. Nothing is written.
func (u *DefaultUpdater) ScanAll(ctx context.Context, rootPath string, pattern string) ([]FilePlaceholders, error) {
	if err := u.validator.ValidatePath(rootPath); err != nil {
		return nil, errors.Errorf("invalid root path: %w", err)
	}

	store := u.newStore(rootPath)
	result := []FilePlaceholders{}

	for _, file := range u.discoverer.Discover(ctx, rootPath, pattern) {
		info, err := u.scanner.ScanFile(ctx, store, file)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", file).Msg("failed to scan file")
			continue
		}

		if info.Count > 0 {
			result = append(result, info)
		}
	}

	return result, nil
}

func (u *DefaultUpdater) CheckVersion(ctx context.Context, version string) *VersionValidation {
	return u.validator.CheckVersion(version)
}
