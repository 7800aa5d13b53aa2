package queue

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS rooms (
          id             TEXT PRIMARY KEY,
          creator_id     TEXT NOT NULL,
          created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `)
	if err != nil {
		log.Printf("migrate stream-queue-service: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS items (
          id           uuid PRIMARY KEY,
          room_id      TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
          media_ref    TEXT NOT NULL,
          title        TEXT NOT NULL,
          thumbnail    TEXT NOT NULL DEFAULT '',
          score        INT NOT NULL DEFAULT 0,
          state        TEXT NOT NULL DEFAULT 'pending',
          submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	// Circular reference rooms -> items is added after both tables exist.
	if _, err := pool.Exec(ctx, `
		ALTER TABLE rooms ADD COLUMN IF NOT EXISTS now_playing_id uuid REFERENCES items(id) ON DELETE SET NULL
	`); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS votes (
          item_id  uuid NOT NULL REFERENCES items(id) ON DELETE CASCADE,
          user_id  TEXT NOT NULL,
          direction TEXT NOT NULL,
          cast_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (item_id, user_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_items_room_state
      ON items(room_id, state)
    `); err != nil {
		return err
	}

	return nil
}
