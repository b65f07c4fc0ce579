package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fortuna/clueboard/internal/archive"
)

// DefaultRoot is the directory artifacts are written under.
const DefaultRoot = "data"

// ErrInvalidID is returned for season or game ids that cannot be used as a
// single path element.
var ErrInvalidID = errors.New("invalid artifact id")

// Writer persists transcripts as <root>/<seasonID>/<gameID>.json.
type Writer struct {
	root string
}

// NewWriter creates a writer rooted at root.
func NewWriter(root string) *Writer {
	if root == "" {
		root = DefaultRoot
	}
	return &Writer{root: root}
}

// Root returns the artifact root directory.
func (w *Writer) Root() string {
	return w.root
}

// Path returns the artifact location for a game.
func (w *Writer) Path(seasonID, gameID string) string {
	return filepath.Join(w.root, seasonID, gameID+".json")
}

// Encode returns the canonical artifact bytes for a transcript: 4-space
// indented JSON without HTML escaping, terminated by a newline.
func Encode(t archive.Transcript) ([]byte, error) {
	if t.Rounds == nil {
		t.Rounds = []archive.Round{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	return buf.Bytes(), nil
}

// Write encodes t and replaces the artifact for (seasonID, gameID). The
// content goes to a temporary file in the target directory first and is
// renamed into place, so readers never see a truncated artifact.
func (w *Writer) Write(t archive.Transcript, seasonID, gameID string) (string, error) {
	if err := validateID(seasonID); err != nil {
		return "", fmt.Errorf("season %q: %w", seasonID, err)
	}
	if err := validateID(gameID); err != nil {
		return "", fmt.Errorf("game %q: %w", gameID, err)
	}

	data, err := Encode(t)
	if err != nil {
		return "", err
	}

	target := w.Path(seasonID, gameID)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create season directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+gameID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename artifact: %w", err)
	}

	return target, nil
}

// Load reads a single artifact from the store.
func (w *Writer) Load(seasonID, gameID string) Result {
	if err := validateID(seasonID); err != nil {
		return Result{Path: w.Path(seasonID, gameID), Status: StatusUnreadable, Reason: err}
	}
	if err := validateID(gameID); err != nil {
		return Result{Path: w.Path(seasonID, gameID), Status: StatusUnreadable, Reason: err}
	}
	return Load(w.Path(seasonID, gameID))
}

func validateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return ErrInvalidID
	case id == "." || id == "..":
		return ErrInvalidID
	case strings.ContainsAny(id, `/\`):
		return ErrInvalidID
	}
	return nil
}
