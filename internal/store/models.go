package store

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// GameRecord indexes one artifact written to the data directory.
type GameRecord struct {
	SeasonID       string    `json:"season_id" db:"season_id"`
	GameID         string    `json:"game_id" db:"game_id"`
	URL            string    `json:"url" db:"url"`
	Path           string    `json:"path" db:"path"`
	Rounds         int       `json:"rounds" db:"rounds"`
	Clues          int       `json:"clues" db:"clues"`
	TripleStumpers int       `json:"triple_stumpers" db:"triple_stumpers"`
	Checksum       string    `json:"checksum" db:"checksum"`
	ScrapedAt      time.Time `json:"scraped_at" db:"scraped_at"`
}

// SeasonSummary aggregates the indexed games of one season.
type SeasonSummary struct {
	SeasonID       string    `json:"season_id"`
	Games          int       `json:"games"`
	Clues          int       `json:"clues"`
	TripleStumpers int       `json:"triple_stumpers"`
	LastScrapedAt  time.Time `json:"last_scraped_at"`
}

// Checksum returns the hex SHA-256 of an encoded artifact.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
