package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yachtlive/yacht/internal/models"
)

// Archiver persists finished games. The live game document stays in the
// store; this is the durable copy for history views.
type Archiver struct {
	pool *pgxpool.Pool
}

// NewArchiver wraps an open pool.
func NewArchiver(pool *pgxpool.Pool) *Archiver {
	return &Archiver{pool: pool}
}

// EnsureSchema creates the archive table if it does not exist yet.
func (a *Archiver) EnsureSchema(ctx context.Context) error {
	q := `
		CREATE TABLE IF NOT EXISTS archived_games (
			room_id     uuid PRIMARY KEY,
			winner_id   uuid NOT NULL,
			rounds      int NOT NULL,
			players     jsonb NOT NULL,
			finished_at timestamptz NOT NULL DEFAULT now()
		)
	`
	if _, err := a.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

// ArchiveGame upserts one finished game, keyed by its room id. Re-archiving
// the same game (two clients both observing the finish) is harmless.
func (a *Archiver) ArchiveGame(ctx context.Context, g *models.GameState) error {
	players, err := json.Marshal(g.Players)
	if err != nil {
		return fmt.Errorf("marshal players for archive: %w", err)
	}
	q := `
		INSERT INTO archived_games (room_id, winner_id, rounds, players)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_id) DO UPDATE
		SET winner_id = EXCLUDED.winner_id,
		    rounds    = EXCLUDED.rounds,
		    players   = EXCLUDED.players
	`
	if _, err := a.pool.Exec(ctx, q, g.RoomID, g.WinnerID, models.NumRounds, players); err != nil {
		return fmt.Errorf("archive game %s: %w", g.RoomID, err)
	}
	return nil
}
