package queue

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the pool-level surface the service needs. *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// querier is the slice of DB shared by pools and transactions. Store
// helpers take it so every mutation can run inside the caller's tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- rooms ---

// ensureRoom creates the room on first submission. The room id doubles
// as the creator's identity, which is what makes share links like
// /creator/{id} resolvable without a separate namespace.
func ensureRoom(ctx context.Context, q querier, roomID string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO rooms (id, creator_id)
		VALUES ($1, $1)
		ON CONFLICT (id) DO NOTHING
	`, roomID)
	return err
}

// lockRoomCursor locks the room row and returns the current cursor.
// The row lock is what serializes concurrent advances on one room.
// found is false when the room was never created.
func lockRoomCursor(ctx context.Context, q querier, roomID string) (cursor *string, found bool, err error) {
	err = q.QueryRow(ctx, `
		SELECT now_playing_id FROM rooms WHERE id = $1 FOR UPDATE
	`, roomID).Scan(&cursor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cursor, true, nil
}

func setRoomCursor(ctx context.Context, q querier, roomID string, itemID *string) error {
	_, err := q.Exec(ctx, `
		UPDATE rooms SET now_playing_id = $2 WHERE id = $1
	`, roomID, itemID)
	return err
}

func roomCreator(ctx context.Context, q querier, roomID string) (string, bool, error) {
	var creator string
	err := q.QueryRow(ctx, `
		SELECT creator_id FROM rooms WHERE id = $1
	`, roomID).Scan(&creator)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return creator, true, nil
}

// --- items ---

const itemColumns = "id, room_id, media_ref, title, thumbnail, score, state, submitted_at"

func scanItem(row pgx.Row, it *Item) error {
	return row.Scan(&it.ID, &it.RoomID, &it.MediaRef, &it.Title, &it.Thumbnail, &it.Score, &it.State, &it.SubmittedAt)
}

func insertItem(ctx context.Context, q querier, it *Item) error {
	err := q.QueryRow(ctx, `
		INSERT INTO items (id, room_id, media_ref, title, thumbnail, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING score, submitted_at
	`, it.ID, it.RoomID, it.MediaRef, it.Title, it.Thumbnail, it.State).Scan(&it.Score, &it.SubmittedAt)
	if isUniqueViolation(err) {
		return serviceErr(ErrConflict, "item already exists")
	}
	return err
}

// lockItem fetches an item scoped to its room under FOR UPDATE, so the
// enclosing vote transaction cannot race a state transition.
func lockItem(ctx context.Context, q querier, roomID, itemID string) (Item, error) {
	var it Item
	err := scanItem(q.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1 AND room_id = $2
		FOR UPDATE
	`, itemID, roomID), &it)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, serviceErr(ErrNotFound, "item not found")
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func removeItem(ctx context.Context, q querier, roomID, itemID string) error {
	// Votes cascade via the FK; a playing item releases the room cursor
	// through ON DELETE SET NULL.
	tag, err := q.Exec(ctx, `
		DELETE FROM items WHERE id = $1 AND room_id = $2
	`, itemID, roomID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return serviceErr(ErrNotFound, "item not found")
	}
	return nil
}

var validTransitions = map[ItemState]ItemState{
	StatePending: StatePlaying,
	StatePlaying: StatePlayed,
}

// setItemState performs a guarded lifecycle transition. Only
// pending->playing and playing->played are legal.
func setItemState(ctx context.Context, q querier, itemID string, from, to ItemState) error {
	if validTransitions[from] != to {
		return serviceErr(ErrInvalidTransition, "illegal transition "+string(from)+" -> "+string(to))
	}
	tag, err := q.Exec(ctx, `
		UPDATE items SET state = $2 WHERE id = $1 AND state = $3
	`, itemID, to, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var current ItemState
	err = q.QueryRow(ctx, `SELECT state FROM items WHERE id = $1`, itemID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return serviceErr(ErrNotFound, "item not found")
	}
	if err != nil {
		return err
	}
	return serviceErr(ErrInvalidTransition, "item is "+string(current)+", expected "+string(from))
}

// lockPendingHead returns the ranked head of the pending queue, locked,
// or found=false when the queue is empty.
func lockPendingHead(ctx context.Context, q querier, roomID string) (Item, bool, error) {
	var it Item
	err := scanItem(q.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE room_id = $1 AND state = 'pending'
		ORDER BY `+rankedOrder+`
		LIMIT 1
		FOR UPDATE
	`, roomID), &it)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, err
	}
	return it, true, nil
}

func playingItem(ctx context.Context, q querier, roomID string) (Item, bool, error) {
	var it Item
	err := scanItem(q.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE room_id = $1 AND state = 'playing'
	`, roomID), &it)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, err
	}
	return it, true, nil
}

// listPendingViews reads the ranked pending queue with the caller's
// vote flag in one query, so the snapshot cannot tear across a
// concurrent vote. An empty userID yields haveVoted=false everywhere.
func listPendingViews(ctx context.Context, q querier, roomID, userID string) ([]ItemView, error) {
	rows, err := q.Query(ctx, `
		SELECT i.id, i.title, i.thumbnail, i.score, (v.user_id IS NOT NULL)
		FROM items i
		LEFT JOIN votes v ON v.item_id = i.id AND v.user_id = $2
		WHERE i.room_id = $1 AND i.state = 'pending'
		ORDER BY i.score DESC, i.submitted_at ASC, i.id ASC
	`, roomID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ItemView{}
	for rows.Next() {
		var v ItemView
		if err := rows.Scan(&v.ID, &v.Title, &v.Thumbnail, &v.Score, &v.HaveVoted); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- votes ---

// castVote upserts the caller's vote. The (item_id, user_id) primary
// key plus ON CONFLICT makes re-casting last-writer-wins: no ledger
// state can ever hold two rows for one pair.
func castVote(ctx context.Context, q querier, userID, itemID string, dir Direction) error {
	_, err := q.Exec(ctx, `
		INSERT INTO votes (item_id, user_id, direction, cast_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (item_id, user_id)
		DO UPDATE SET direction = EXCLUDED.direction, cast_at = EXCLUDED.cast_at
	`, itemID, userID, dir)
	return err
}

// withdrawVote deletes the vote row. Deleting an absent row is a no-op,
// not an error.
func withdrawVote(ctx context.Context, q querier, userID, itemID string) error {
	_, err := q.Exec(ctx, `
		DELETE FROM votes WHERE item_id = $1 AND user_id = $2
	`, itemID, userID)
	return err
}

func tallyVotes(ctx context.Context, q querier, itemID string) (up, down int, err error) {
	err = q.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE direction = 'up'),
			COUNT(*) FILTER (WHERE direction = 'down')
		FROM votes
		WHERE item_id = $1
	`, itemID).Scan(&up, &down)
	return up, down, err
}

// refreshScore re-derives the cached score from the ledger tally
// inside the same transaction as the vote mutation. The cache is a
// materialized view of the ledger, never an independent counter.
func refreshScore(ctx context.Context, q querier, itemID string) (int, error) {
	up, down, err := tallyVotes(ctx, q, itemID)
	if err != nil {
		return 0, err
	}
	score := up - down
	if _, err := q.Exec(ctx, `
		UPDATE items SET score = $2 WHERE id = $1
	`, itemID, score); err != nil {
		return 0, err
	}
	return score, nil
}
