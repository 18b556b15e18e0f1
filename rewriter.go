package sinceupdater

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const DefaultFilePermissions = 0644

// FileStore reads and writes files by slash-separated paths relative to a root.
type FileStore interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

type OSFileStore struct {
	root string
}

func NewOSFileStore(root string) *OSFileStore {
	return &OSFileStore{root: root}
}

func (s *OSFileStore) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(s.resolve(path))
}

// WriteFile overwrites the whole file and keeps its existing permission bits.
func (s *OSFileStore) WriteFile(path string, data []byte) error {
	fullPath := s.resolve(path)

	perm := fs.FileMode(DefaultFilePermissions)
	if info, err := os.Stat(fullPath); err == nil {
		perm = info.Mode().Perm()
	}

	return os.WriteFile(fullPath, data, perm)
}

func (s *OSFileStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, filepath.FromSlash(path))
}

type Rewriter interface {
	Rewrite(ctx context.Context, path string, version string, dryRun bool) (FileChange, error)
}

type FileRewriter struct {
	scanner Scanner
	store   FileStore
}

func NewFileRewriter(scanner Scanner, store FileStore) *FileRewriter {
	return &FileRewriter{
		scanner: scanner,
		store:   store,
	}
}

// Rewrite resolves every placeholder in one file. The returned count is the
// pre-rewrite scan count, not the number of replacements actually made.
func (r *FileRewriter) Rewrite(ctx context.Context, path string, version string, dryRun bool) (FileChange, error) {
	content, err := r.store.ReadFile(path)
	if err != nil {
		return FileChange{Path: path}, &IOFailure{Path: path, Err: err}
	}

	originalContent := string(content)
	count := r.scanner.CountPlaceholders(originalContent)
	if count == 0 {
		return FileChange{Path: path}, nil
	}

	modifiedContent := r.scanner.Resolve(originalContent, version)
	if modifiedContent == originalContent {
		return FileChange{Path: path}, nil
	}

	if !dryRun {
		if err := r.store.WriteFile(path, []byte(modifiedContent)); err != nil {
			return FileChange{Path: path}, &IOFailure{Path: path, Err: err}
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Int("count", count).
		Bool("dry_run", dryRun).
		Msg("resolved placeholders")

	return FileChange{Path: path, Updated: true, Count: count}, nil
}
