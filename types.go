package sinceupdater

type FileChange struct {
	Path    string `json:"path"`
	Updated bool   `json:"updated"`
	Count   int    `json:"count"`
}

type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// BatchResult is built fresh for every UpdateAll call. Updated and Errors are
// kept in discovery order so the summary lists files deterministically.
type BatchResult struct {
	Updated      []FileChange `json:"updated"`
	Errors       []FileError  `json:"errors,omitempty"`
	TotalUpdated int          `json:"total_updated"`
	DryRun       bool         `json:"dry_run,omitempty"`
}

type FilePlaceholders struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type VersionValidation struct {
	Version     string   `json:"version"`
	IsValid     bool     `json:"is_valid"`
	Prerelease  string   `json:"prerelease,omitempty"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
