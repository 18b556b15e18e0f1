package sinceupdater

import (
	"context"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

type Scanner interface {
	CountPlaceholders(content string) int
	ScanFile(ctx context.Context, store FileStore, path string) (FilePlaceholders, error)
	Resolve(content string, version string) string
}

// PlaceholderScanner holds the two placeholder forms. The annotation form is a
// tag followed by a keyword ("@since todo"); the standalone form is the marker
// on its own ("@next-version") and may appear without the tag in front of it.
// whitespace matches ASCII whitespace plus vertical tab, the Unicode space
// separators, line and paragraph separators and the byte order mark.
const whitespace = `[\s\x{0B}\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

type PlaceholderScanner struct {
	tag               string
	annotationPattern *regexp.Regexp
	standalonePattern *regexp.Regexp
}

func NewPlaceholderScanner(config *Config) (*PlaceholderScanner, error) {
	keywords := make([]string, 0, len(config.Keywords))
	for _, keyword := range config.Keywords {
		keywords = append(keywords, regexp.QuoteMeta(keyword))
	}

	annotationPattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(config.Tag) + whitespace + `+(` + strings.Join(keywords, "|") + `)`)
	if err != nil {
		return nil, errors.Errorf("invalid annotation pattern: %w", err)
	}

	standalonePattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(config.Marker))
	if err != nil {
		return nil, errors.Errorf("invalid standalone pattern: %w", err)
	}

	return &PlaceholderScanner{
		tag:               config.Tag,
		annotationPattern: annotationPattern,
		standalonePattern: standalonePattern,
	}, nil
}

// CountPlaceholders sums the matches of both forms without deduplicating them.
func (s *PlaceholderScanner) CountPlaceholders(content string) int {
	return len(s.annotationPattern.FindAllStringIndex(content, -1)) +
		len(s.standalonePattern.FindAllStringIndex(content, -1))
}

func (s *PlaceholderScanner) ScanFile(ctx context.Context, store FileStore, path string) (FilePlaceholders, error) {
	content, err := store.ReadFile(path)
	if err != nil {
		return FilePlaceholders{Path: path}, &IOFailure{Path: path, Err: err}
	}

	return FilePlaceholders{
		Path:  path,
		Count: s.CountPlaceholders(string(content)),
	}, nil
}

// Resolve runs the annotation pass and then the standalone pass. Both always
// run so a file holding only one of the forms is still resolved.
func (s *PlaceholderScanner) Resolve(content string, version string) string {
	content = s.ResolveAnnotations(content, version)
	return s.ResolveStandalone(content, version)
}

func (s *PlaceholderScanner) ResolveAnnotations(content string, version string) string {
	return s.annotationPattern.ReplaceAllLiteralString(content, s.tag+" "+version)
}

func (s *PlaceholderScanner) ResolveStandalone(content string, version string) string {
	return s.standalonePattern.ReplaceAllLiteralString(content, version)
}
