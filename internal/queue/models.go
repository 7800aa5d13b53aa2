package queue

import (
	"time"
)

// ItemState is the playback lifecycle of a submitted item.
// Transitions are pending -> playing -> played, driven only by AdvancePlayback.
type ItemState string

const (
	StatePending ItemState = "pending"
	StatePlaying ItemState = "playing"
	StatePlayed  ItemState = "played"
)

// Direction is the sign of a vote.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
)

// Item is a submitted video in a room's queue.
type Item struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	MediaRef    string    `json:"mediaRef"` // provider video id extracted from the submitted URL
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	Score       int       `json:"score"`
	State       ItemState `json:"state"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Vote is a single user's preference on a single item.
// At most one row exists per (user, item); re-casting replaces it.
type Vote struct {
	UserID    string    `json:"userId"`
	ItemID    string    `json:"itemId"`
	Direction Direction `json:"direction"`
	CastAt    time.Time `json:"castAt"`
}

// ItemView is the boundary shape of an item in getState responses.
type ItemView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Score     int    `json:"score"`
	HaveVoted bool   `json:"haveVoted"`
}

// RoomState is the full queue snapshot returned to clients.
type RoomState struct {
	NowPlaying *ItemView  `json:"nowPlaying"`
	Queue      []ItemView `json:"queue"`
}

func viewOf(it Item, haveVoted bool) ItemView {
	return ItemView{
		ID:        it.ID,
		Title:     it.Title,
		Thumbnail: it.Thumbnail,
		Score:     it.Score,
		HaveVoted: haveVoted,
	}
}
