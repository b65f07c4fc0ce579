package archive

import (
	"errors"
	"strings"
)

const (
	// BaseURL is the archive root that relative links are resolved against.
	BaseURL = "https://j-archive.com/"

	SeasonLinkPrefix = "showseason.php"
	GameLinkPrefix   = "showgame.php"

	// DefaultRows is the canonical number of clue rows on a board.
	DefaultRows = 5

	// ResponseSuffix is appended to a clue id to find its companion node.
	ResponseSuffix = "_r"
)

// Config holds the page-layout constants the extractor depends on.
type Config struct {
	BaseURL          string
	SeasonLinkPrefix string
	GameLinkPrefix   string
	Rows             int
	ResponseSuffix   string
}

// DefaultConfig returns the layout used by the live archive.
func DefaultConfig() Config {
	return Config{
		BaseURL:          BaseURL,
		SeasonLinkPrefix: SeasonLinkPrefix,
		GameLinkPrefix:   GameLinkPrefix,
		Rows:             DefaultRows,
		ResponseSuffix:   ResponseSuffix,
	}
}

// Validate checks that every field needed for extraction is set.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base url is required"))
	}
	if c.SeasonLinkPrefix == "" {
		errs = append(errs, errors.New("season link prefix is required"))
	}
	if c.GameLinkPrefix == "" {
		errs = append(errs, errors.New("game link prefix is required"))
	}
	if c.Rows < 1 {
		errs = append(errs, errors.New("rows must be at least 1"))
	}
	if c.ResponseSuffix == "" {
		errs = append(errs, errors.New("response suffix is required"))
	}
	return errors.Join(errs...)
}

// SeasonURL returns the season page address for a season id.
func (c Config) SeasonURL(seasonID string) string {
	return absolute(c.SeasonLinkPrefix+"?season="+seasonID, c.BaseURL)
}

// GameURL returns the game page address for a game id.
func (c Config) GameURL(gameID string) string {
	return absolute(c.GameLinkPrefix+"?game_id="+gameID, c.BaseURL)
}
