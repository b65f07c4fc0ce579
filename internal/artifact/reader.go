package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fortuna/clueboard/internal/archive"
)

// Status tags the outcome of reading one artifact.
type Status int

const (
	StatusOK Status = iota
	// StatusUnreadable means the file could not be opened or read.
	StatusUnreadable
	// StatusMalformed means the file was read but is not a valid transcript.
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnreadable:
		return "unreadable"
	case StatusMalformed:
		return "malformed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the per-file outcome handed to artifact consumers. Transcript is
// only meaningful when Status is StatusOK; otherwise Reason says why the
// file should be skipped.
type Result struct {
	Path       string
	Status     Status
	Transcript archive.Transcript
	Reason     error
}

// OK reports whether the artifact decoded successfully.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// IsNotExist reports whether the artifact was missing.
func (r Result) IsNotExist() bool {
	return r.Status == StatusUnreadable && errors.Is(r.Reason, fs.ErrNotExist)
}

// Load reads and decodes one artifact. It never panics and never returns a
// partially decoded transcript.
func Load(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Status: StatusUnreadable, Reason: err}
	}

	var t archive.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Result{Path: path, Status: StatusMalformed, Reason: err}
	}
	if t.Rounds == nil {
		return Result{Path: path, Status: StatusMalformed, Reason: errors.New("missing rounds")}
	}

	return Result{Path: path, Status: StatusOK, Transcript: t}
}

// Scan loads every .json artifact under root in lexical path order. Bad
// files are reported in their Result and do not stop the scan; only an
// unreadable root is an error.
func Scan(root string) ([]Result, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			paths = append(paths, path)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(paths)
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, Load(path))
	}
	return results, nil
}

// Seasons lists the season directories under root.
func Seasons(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	seasons := []string{}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			seasons = append(seasons, e.Name())
		}
	}
	sort.Strings(seasons)
	return seasons, nil
}

// Games lists the game ids stored for a season.
func Games(root, seasonID string) ([]string, error) {
	if err := validateID(seasonID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(root, seasonID))
	if err != nil {
		return nil, fmt.Errorf("list games for season %s: %w", seasonID, err)
	}

	games := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		games = append(games, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(games)
	return games, nil
}
