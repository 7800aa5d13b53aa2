package queue

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/Raj-Devo/Muzer/internal/media"
)

// MediaResolver turns a submitted URL into a playable video reference.
// internal/media provides the YouTube implementation.
type MediaResolver interface {
	Resolve(ctx context.Context, rawURL string) (media.Video, error)
}

// Service owns every mutation of rooms, items and votes. All writes go
// through a single transaction per operation; nothing else touches the
// tables.
type Service struct {
	db    DB
	rdb   *redis.Client
	media MediaResolver
}

func NewService(db DB, rdb *redis.Client, resolver MediaResolver) *Service {
	return &Service{db: db, rdb: rdb, media: resolver}
}

func (s *Service) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// retryable matches lost-race postgres failures: serialization failures
// and deadlocks. Those are retried once before surfacing Conflict.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

func (s *Service) withRetry(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := s.withTx(ctx, fn)
	if err != nil && retryable(err) {
		if err = s.withTx(ctx, fn); err != nil && retryable(err) {
			return serviceErr(ErrConflict, "concurrent update, retry")
		}
	}
	return err
}

// SubmitItem resolves the submitted URL and inserts a pending item.
// The room is created implicitly on first submission; its id is the
// creator's identity.
func (s *Service) SubmitItem(ctx context.Context, roomID, userID, rawURL string) (Item, error) {
	if userID == "" {
		return Item{}, serviceErr(ErrUnauthenticated, "missing user identity")
	}
	if roomID == "" || strings.TrimSpace(rawURL) == "" {
		return Item{}, serviceErr(ErrInvalidReference, "room id and url are required")
	}

	// Resolve before opening the transaction; the external call must
	// not hold row locks.
	video, err := s.media.Resolve(ctx, rawURL)
	if errors.Is(err, media.ErrInvalidURL) {
		return Item{}, serviceErr(ErrInvalidReference, "unrecognized video url")
	}
	if err != nil {
		return Item{}, err
	}

	it := Item{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		MediaRef:  video.ID,
		Title:     video.Title,
		Thumbnail: video.ThumbnailURL,
		State:     StatePending,
	}

	err = s.withRetry(ctx, func(tx pgx.Tx) error {
		if err := ensureRoom(ctx, tx, roomID); err != nil {
			return err
		}
		return insertItem(ctx, tx, &it)
	})
	if err != nil {
		return Item{}, err
	}

	s.publishEvent(ctx, "item.submitted", map[string]any{
		"roomId": roomID,
		"item":   it,
	})
	return it, nil
}

// Vote upserts the caller's vote on a pending item and refreshes the
// cached score in the same transaction. Votes on playing or played
// items are rejected: promotion is a hard cutoff.
func (s *Service) Vote(ctx context.Context, roomID, userID, itemID string, dir Direction) (int, error) {
	if userID == "" {
		return 0, serviceErr(ErrUnauthenticated, "missing user identity")
	}
	if dir != DirUp && dir != DirDown {
		return 0, serviceErr(ErrInvalidReference, "direction must be up or down")
	}

	var score int
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		it, err := lockItem(ctx, tx, roomID, itemID)
		if err != nil {
			return err
		}
		if it.State != StatePending {
			return serviceErr(ErrNotFound, "item is no longer pending")
		}
		if err := castVote(ctx, tx, userID, itemID, dir); err != nil {
			return err
		}
		score, err = refreshScore(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.publishEvent(ctx, "vote.changed", map[string]any{
		"roomId": roomID,
		"itemId": itemID,
		"score":  score,
	})
	return score, nil
}

// Unvote withdraws the caller's vote. Withdrawing a vote that was never
// cast succeeds and changes nothing.
func (s *Service) Unvote(ctx context.Context, roomID, userID, itemID string) (int, error) {
	if userID == "" {
		return 0, serviceErr(ErrUnauthenticated, "missing user identity")
	}

	var score int
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockItem(ctx, tx, roomID, itemID); err != nil {
			return err
		}
		if err := withdrawVote(ctx, tx, userID, itemID); err != nil {
			return err
		}
		var err error
		score, err = refreshScore(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.publishEvent(ctx, "vote.changed", map[string]any{
		"roomId": roomID,
		"itemId": itemID,
		"score":  score,
	})
	return score, nil
}

// AdvancePlayback moves the room cursor: the current item becomes
// played and the ranked head of the queue, if any, becomes playing.
// Only the room's creator may advance. Advancing an empty idle room is
// a no-op returning the empty state.
func (s *Service) AdvancePlayback(ctx context.Context, roomID, callerID string) (*Item, error) {
	if callerID == "" {
		return nil, serviceErr(ErrUnauthenticated, "missing user identity")
	}

	var next *Item
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		next = nil

		creator, found, err := roomCreator(ctx, tx, roomID)
		if err != nil {
			return err
		}
		// An uncreated room belongs to the identity its id names.
		if !found {
			creator = roomID
		}
		if callerID != creator {
			return serviceErr(ErrForbidden, "only the room creator can advance playback")
		}
		if !found {
			return nil
		}

		cursor, _, err := lockRoomCursor(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if cursor != nil {
			if err := setItemState(ctx, tx, *cursor, StatePlaying, StatePlayed); err != nil {
				return err
			}
		}

		head, ok, err := lockPendingHead(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if !ok {
			return setRoomCursor(ctx, tx, roomID, nil)
		}
		if err := setItemState(ctx, tx, head.ID, StatePending, StatePlaying); err != nil {
			return err
		}
		if err := setRoomCursor(ctx, tx, roomID, &head.ID); err != nil {
			return err
		}
		head.State = StatePlaying
		next = &head
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"roomId": roomID}
	if next != nil {
		payload["nowPlayingId"] = next.ID
	}
	s.publishEvent(ctx, "playback.advanced", payload)
	return next, nil
}

// RemoveItem deletes a pending submission and its votes. Creator only.
func (s *Service) RemoveItem(ctx context.Context, roomID, callerID, itemID string) error {
	if callerID == "" {
		return serviceErr(ErrUnauthenticated, "missing user identity")
	}

	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		creator, found, err := roomCreator(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if !found {
			return serviceErr(ErrNotFound, "room not found")
		}
		if callerID != creator {
			return serviceErr(ErrForbidden, "only the room creator can remove items")
		}
		it, err := lockItem(ctx, tx, roomID, itemID)
		if err != nil {
			return err
		}
		if it.State != StatePending {
			return serviceErr(ErrConflict, "only pending items can be removed")
		}
		return removeItem(ctx, tx, roomID, itemID)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, "item.removed", map[string]any{
		"roomId": roomID,
		"itemId": itemID,
	})
	return nil
}

// GetState returns the now-playing item and the ranked pending queue.
// callerID may be empty; haveVoted is then false for every entry. The
// read runs in one read-only transaction so the snapshot is consistent.
func (s *Service) GetState(ctx context.Context, roomID, callerID string) (RoomState, error) {
	state := RoomState{Queue: []ItemView{}}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return state, err
	}
	defer tx.Rollback(ctx)

	playing, ok, err := playingItem(ctx, tx, roomID)
	if err != nil {
		return state, err
	}
	if ok {
		v := viewOf(playing, false)
		state.NowPlaying = &v
	}

	state.Queue, err = listPendingViews(ctx, tx, roomID, callerID)
	if err != nil {
		return state, err
	}
	return state, tx.Commit(ctx)
}
