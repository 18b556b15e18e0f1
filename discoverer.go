package sinceupdater

import (
	"context"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

type Discoverer interface {
	Discover(ctx context.Context, root string, pattern string) []string
}

type GlobDiscoverer struct {
	config *Config

	// newFS opens the tree rooted at root.
	newFS func(root string) fs.FS
}

func NewGlobDiscoverer(config *Config) *GlobDiscoverer {
	return &GlobDiscoverer{
		config: config,
		newFS:  os.DirFS,
	}
}

// WithFS replaces the filesystem the discoverer walks.
func (d *GlobDiscoverer) WithFS(newFS func(root string) fs.FS) *GlobDiscoverer {
	d.newFS = newFS
	return d
}

// Discover returns the files under root matching pattern, relative to root and
// sorted. Excluded and hidden directories are never read. An unreadable
// directory is logged and skipped; a bad pattern or an unreadable root is
// logged and reported as zero files.
func (d *GlobDiscoverer) Discover(ctx context.Context, root string, pattern string) []string {
	logger := zerolog.Ctx(ctx)

	if pattern == "" {
		pattern = d.config.Pattern
	}
	pattern = strings.TrimPrefix(pattern, "./")

	logger.Debug().Str("root", root).Str("pattern", pattern).Msg("scanning for placeholder tags")

	if !doublestar.ValidatePattern(pattern) {
		d.logFailure(ctx, doublestar.ErrBadPattern, root, pattern)
		return []string{}
	}

	excludes := d.excludePatterns()
	files := []string{}

	err := fs.WalkDir(d.newFS(root), ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == "." {
				return err
			}
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == "." {
			return nil
		}

		if isHidden(path) || d.isExcludedDir(path, entry) || isExcluded(path, excludes) {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			return nil
		}

		if matched, _ := doublestar.Match(pattern, path); matched {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		d.logFailure(ctx, err, root, pattern)
		return []string{}
	}
	sort.Strings(files)

	logger.Debug().Int("files", len(files)).Msg("found files to scan")
	return files
}

func (d *GlobDiscoverer) logFailure(ctx context.Context, cause error, root string, pattern string) {
	err := errors.WithDetails(
		errors.Errorf("%w: %s", ErrDiscovery, cause.Error()),
		"root", root,
		"pattern", pattern,
	)
	zerolog.Ctx(ctx).Error().Err(err).Msg("error finding files")
}

func (d *GlobDiscoverer) isExcludedDir(path string, entry fs.DirEntry) bool {
	if !entry.IsDir() {
		return false
	}
	for _, dir := range d.config.ExcludeDirs {
		dir = strings.Trim(dir, "/")
		if dir != "" && path == dir {
			return true
		}
	}
	return false
}

func (d *GlobDiscoverer) excludePatterns() []string {
	patterns := make([]string, 0, len(d.config.ExcludeDirs)+len(d.config.ExcludePatterns))
	for _, dir := range d.config.ExcludeDirs {
		dir = strings.Trim(dir, "/")
		if dir == "" {
			continue
		}
		patterns = append(patterns, dir+"/**")
	}
	return append(patterns, d.config.ExcludePatterns...)
}

func isExcluded(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func isHidden(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
