package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/clueboard/internal/store"
)

// ErrNotFound is returned when no indexed game matches.
var ErrNotFound = errors.New("game not found")

// GameRepository handles access to the artifact index
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

// Upsert inserts or replaces the index row for (season_id, game_id).
func (r *GameRepository) Upsert(ctx context.Context, rec store.GameRecord) error {
	query := `
		INSERT INTO games (season_id, game_id, url, path, rounds, clues, triple_stumpers, checksum, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (season_id, game_id) DO UPDATE SET
			url = EXCLUDED.url,
			path = EXCLUDED.path,
			rounds = EXCLUDED.rounds,
			clues = EXCLUDED.clues,
			triple_stumpers = EXCLUDED.triple_stumpers,
			checksum = EXCLUDED.checksum,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		rec.SeasonID, rec.GameID, rec.URL, rec.Path,
		rec.Rounds, rec.Clues, rec.TripleStumpers, rec.Checksum, rec.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting game %s/%s: %w", rec.SeasonID, rec.GameID, err)
	}
	return nil
}

// Get returns the index row for one game.
func (r *GameRepository) Get(ctx context.Context, seasonID, gameID string) (*store.GameRecord, error) {
	query := `
		SELECT season_id, game_id, url, path, rounds, clues, triple_stumpers, checksum, scraped_at
		FROM games
		WHERE season_id = $1 AND game_id = $2
	`

	rec, err := scanGame(r.db.DB().QueryRowContext(ctx, query, seasonID, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, seasonID, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}
	return rec, nil
}

// ListBySeason returns the indexed games of a season ordered by game id.
func (r *GameRepository) ListBySeason(ctx context.Context, seasonID string) ([]*store.GameRecord, error) {
	query := `
		SELECT season_id, game_id, url, path, rounds, clues, triple_stumpers, checksum, scraped_at
		FROM games
		WHERE season_id = $1
		ORDER BY game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	games := []*store.GameRecord{}
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, rec)
	}
	return games, rows.Err()
}

// SeasonSummaries aggregates the index per season.
func (r *GameRepository) SeasonSummaries(ctx context.Context) ([]store.SeasonSummary, error) {
	query := `
		SELECT season_id, COUNT(*), COALESCE(SUM(clues), 0), COALESCE(SUM(triple_stumpers), 0), MAX(scraped_at)
		FROM games
		GROUP BY season_id
		ORDER BY season_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying season summaries: %w", err)
	}
	defer rows.Close()

	summaries := []store.SeasonSummary{}
	for rows.Next() {
		var s store.SeasonSummary
		if err := rows.Scan(&s.SeasonID, &s.Games, &s.Clues, &s.TripleStumpers, &s.LastScrapedAt); err != nil {
			return nil, fmt.Errorf("scanning season summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func scanGame(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.GameRecord, error) {
	rec := &store.GameRecord{}
	err := scanner.Scan(
		&rec.SeasonID, &rec.GameID, &rec.URL, &rec.Path,
		&rec.Rounds, &rec.Clues, &rec.TripleStumpers, &rec.Checksum, &rec.ScrapedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
